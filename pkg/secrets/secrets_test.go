package secrets

import (
	"context"
	"testing"
)

func TestIsRef(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"arn:aws:secretsmanager:ap-southeast-2:123456789012:secret:bmc-pass", true},
		{"hunter2", false},
		{"", false},
		{"arn:aws:s3:::bucket", false},
	}

	for _, tt := range tests {
		if got := IsRef(tt.value); got != tt.want {
			t.Errorf("IsRef(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestResolvePassthrough(t *testing.T) {
	// Plain values resolve without a client, even on a nil Resolver.
	var r *Resolver
	got, err := r.Resolve(context.Background(), "hunter2")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != "hunter2" {
		t.Errorf("Expected passthrough, got %q", got)
	}
}

func TestResolveRefWithoutClient(t *testing.T) {
	var r *Resolver
	_, err := r.Resolve(context.Background(), "arn:aws:secretsmanager:ap-southeast-2:123456789012:secret:bmc-pass")
	if err == nil {
		t.Error("Expected an error resolving a reference without a client")
	}
}
