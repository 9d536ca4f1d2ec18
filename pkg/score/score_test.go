package score

import (
	"fmt"
	"testing"

	"github.com/rackwatch/rackwatch/pkg/models"
)

func eventsWithSeverities(severities ...string) []models.Event {
	events := make([]models.Event, len(severities))
	for i, sev := range severities {
		events[i] = models.Event{
			Host:     "bmc-1",
			Vendor:   models.VendorHPE,
			Severity: sev,
			Message:  fmt.Sprintf("event %d", i),
		}
	}
	return events
}

func TestAnalyzeEmpty(t *testing.T) {
	got := Analyze(nil)
	if got.RiskScore != 0 {
		t.Errorf("Expected score 0 for empty input, got %v", got.RiskScore)
	}
	if got.Summary != "No data" {
		t.Errorf("Expected summary 'No data', got %q", got.Summary)
	}
	if len(got.Insights) != 1 || got.Insights[0] != "No logs to analyze" {
		t.Errorf("Expected single 'No logs to analyze' insight, got %v", got.Insights)
	}
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name        string
		severities  []string
		wantScore   float64
		wantSummary string
	}{
		{
			name:        "all info",
			severities:  []string{"INFO", "INFO", "INFO"},
			wantScore:   0,
			wantSummary: "Stable",
		},
		{
			name:        "single warning",
			severities:  []string{"WARN"},
			wantScore:   0.05,
			wantSummary: "Stable",
		},
		{
			name:        "threshold boundary is not stable",
			severities:  []string{"INFO", "WARN", "ERROR", "INFO", "WARN"},
			wantScore:   0.3,
			wantSummary: "Investigate power/cooling",
		},
		{
			name:        "severities counted case-insensitively",
			severities:  []string{"error", "critical", "fatal", "warn"},
			wantScore:   0.65,
			wantSummary: "Investigate power/cooling",
		},
		{
			name:        "score clamps at 1",
			severities:  []string{"FATAL", "FATAL", "FATAL", "FATAL", "FATAL", "FATAL", "FATAL"},
			wantScore:   1.0,
			wantSummary: "Investigate power/cooling",
		},
		{
			name:        "unknown severities count as nothing",
			severities:  []string{"NOTICE", "DEBUG", "Informational"},
			wantScore:   0,
			wantSummary: "Stable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Analyze(eventsWithSeverities(tt.severities...))
			if diff := got.RiskScore - tt.wantScore; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Expected score %v, got %v", tt.wantScore, got.RiskScore)
			}
			if got.Summary != tt.wantSummary {
				t.Errorf("Expected summary %q, got %q", tt.wantSummary, got.Summary)
			}
			if got.RiskScore < 0 || got.RiskScore > 1 {
				t.Errorf("Score %v outside [0,1]", got.RiskScore)
			}
		})
	}
}

func TestAnalyzeInsightCounts(t *testing.T) {
	got := Analyze(eventsWithSeverities("ERROR", "WARN", "WARN", "INFO"))
	if len(got.Insights) != 2 {
		t.Fatalf("Expected 2 insights, got %d", len(got.Insights))
	}
	if got.Insights[0] != "1 critical/error" {
		t.Errorf("Expected '1 critical/error', got %q", got.Insights[0])
	}
	if got.Insights[1] != "2 warnings" {
		t.Errorf("Expected '2 warnings', got %q", got.Insights[1])
	}
}

func TestAnalyzeOrderIndependent(t *testing.T) {
	forward := Analyze(eventsWithSeverities("INFO", "WARN", "ERROR", "INFO", "WARN"))
	reversed := Analyze(eventsWithSeverities("WARN", "INFO", "ERROR", "WARN", "INFO"))

	if forward.RiskScore != reversed.RiskScore {
		t.Errorf("Score should be order-independent: %v vs %v", forward.RiskScore, reversed.RiskScore)
	}
	if forward.Summary != reversed.Summary {
		t.Errorf("Summary should be order-independent: %q vs %q", forward.Summary, reversed.Summary)
	}
}

func TestAnalyzeWithCustomWeights(t *testing.T) {
	w := Weights{Critical: 0.5, Warn: 0.1, Threshold: 0.4}
	got := AnalyzeWith(w, eventsWithSeverities("ERROR"))
	if got.RiskScore != 0.5 {
		t.Errorf("Expected score 0.5 with custom weights, got %v", got.RiskScore)
	}
	if got.Summary != "Investigate power/cooling" {
		t.Errorf("Expected 'Investigate power/cooling', got %q", got.Summary)
	}
}

func TestEvidence(t *testing.T) {
	events := []models.Event{
		{Host: "hpe-demo", Vendor: models.VendorHPE, Severity: "ERROR", Message: "PSU input unstable"},
		{Host: "dell-demo", Vendor: models.VendorDell, Severity: "WARN", Message: "Fan 2 speed above threshold"},
	}

	lines := Evidence(events, EvidenceLimit)
	if len(lines) != 2 {
		t.Fatalf("Expected 2 evidence lines, got %d", len(lines))
	}
	if lines[0] != "[hpe@hpe-demo] ERROR: PSU input unstable" {
		t.Errorf("Unexpected evidence line: %q", lines[0])
	}
	if lines[1] != "[dell@dell-demo] WARN: Fan 2 speed above threshold" {
		t.Errorf("Unexpected evidence line: %q", lines[1])
	}
}

func TestEvidenceTruncation(t *testing.T) {
	events := eventsWithSeverities(
		"INFO", "INFO", "INFO", "INFO", "INFO",
		"INFO", "INFO", "INFO", "INFO", "INFO",
		"INFO", "INFO",
	)

	lines := Evidence(events, EvidenceLimit)
	if len(lines) != EvidenceLimit {
		t.Fatalf("Expected %d evidence lines, got %d", EvidenceLimit, len(lines))
	}
	// Input order: the first events win.
	if lines[0] != "[hpe@bmc-1] INFO: event 0" {
		t.Errorf("Expected first event first, got %q", lines[0])
	}
}

func TestEvidenceNonPositiveMax(t *testing.T) {
	events := eventsWithSeverities("INFO", "WARN")

	if lines := Evidence(events, 0); lines != nil {
		t.Errorf("Expected no evidence for max 0, got %v", lines)
	}
	if lines := Evidence(events, -1); lines != nil {
		t.Errorf("Expected no evidence for a negative max, got %v", lines)
	}
}
