package redfish

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rackwatch/rackwatch/pkg/models"
	"github.com/rackwatch/rackwatch/pkg/vendors"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		Host:     "bmc-1",
		Vendor:   models.VendorOther,
		Username: "admin",
		Password: "secret",
		Profile:  vendors.Builtin().Get(models.VendorOther),
		BaseURL:  baseURL,
	})
}

func TestFetchLogEntries(t *testing.T) {
	var gotAuth bool
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		gotAuth = ok && user == "admin" && pass == "secret"
		if r.URL.Path != "/Systems/1/LogServices/SEL/Entries" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"Members": [
			{"Created": "2024-09-13T12:34:56Z", "Message": "PSU1 input lost", "Severity": "Critical", "SensorType": "Power"},
			{"Message": "System booted"}
		]}`))
	}))
	defer ts.Close()

	events, err := newTestClient(ts.URL).FetchLogEntries(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !gotAuth {
		t.Error("Expected a basic-auth request")
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}

	first := events[0]
	want := time.Date(2024, 9, 13, 12, 34, 56, 0, time.UTC)
	if !first.Timestamp.Equal(want) {
		t.Errorf("Expected timestamp %v, got %v", want, first.Timestamp)
	}
	if first.Severity != "Critical" {
		t.Errorf("Expected severity 'Critical', got %q", first.Severity)
	}
	if first.Host != "bmc-1" {
		t.Errorf("Expected host 'bmc-1', got %q", first.Host)
	}

	second := events[1]
	if second.Severity != "INFO" {
		t.Errorf("Expected defaulted severity 'INFO', got %q", second.Severity)
	}
}

func TestFetchLogEntriesProtocolError(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	_, err := newTestClient(ts.URL).FetchLogEntries(context.Background())
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("Expected ProtocolError, got %v", err)
	}
	if protoErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", protoErr.StatusCode)
	}
}

func TestFetchLogEntriesConnectivityError(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	_, err := newTestClient(url).FetchLogEntries(context.Background())
	var connErr *ConnectivityError
	if !errors.As(err, &connErr) {
		t.Fatalf("Expected ConnectivityError, got %v", err)
	}
}

func TestFetchLogEntriesParseError(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>this is not redfish</html>"))
	}))
	defer ts.Close()

	_, err := newTestClient(ts.URL).FetchLogEntries(context.Background())
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected ParseError, got %v", err)
	}
}

func TestFetchSystem(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Systems/1" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"Model": "ProLiant DL380 Gen10",
			"SerialNumber": "SN123456",
			"BiosVersion": "U30 v2.52",
			"PowerState": "On",
			"LastResetTime": "2024-09-01T08:00:00Z"
		}`))
	}))
	defer ts.Close()

	info, err := newTestClient(ts.URL).FetchSystem(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if info.Model != "ProLiant DL380 Gen10" {
		t.Errorf("Expected model 'ProLiant DL380 Gen10', got %q", info.Model)
	}
	if info.Serial != "SN123456" {
		t.Errorf("Expected serial 'SN123456', got %q", info.Serial)
	}
	if info.PowerState != "On" {
		t.Errorf("Expected power state 'On', got %q", info.PowerState)
	}
	if info.LastBoot == nil || !info.LastBoot.Equal(time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected last boot 2024-09-01T08:00:00Z, got %v", info.LastBoot)
	}
}

func TestFetchSystemToleratesOddBody(t *testing.T) {
	// The probe is first an auth check; a body that fails to decode is
	// not an error.
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	info, err := newTestClient(ts.URL).FetchSystem(context.Background())
	if err != nil {
		t.Fatalf("Expected no error for undecodable probe body, got %v", err)
	}
	if info.Model != "" {
		t.Errorf("Expected empty hardware info, got %+v", info)
	}
}
