// Package score turns a collection of canonical events into a bounded
// risk assessment. Everything here is a pure function: same events in,
// same score out, no I/O.
package score

import (
	"fmt"
	"strings"

	"github.com/rackwatch/rackwatch/pkg/models"
)

// EvidenceLimit caps how many raw log lines back up an assessment.
const EvidenceLimit = 10

// Weights are the scoring heuristics. They are deliberately simple:
// fixed per-event costs with a single summary threshold, tunable but
// not learned.
type Weights struct {
	Critical  float64 // cost per ERROR/CRITICAL/FATAL event
	Warn      float64 // cost per WARN event
	Threshold float64 // scores at or above this stop being "Stable"
}

// DefaultWeights returns the stock heuristics.
func DefaultWeights() Weights {
	return Weights{Critical: 0.2, Warn: 0.05, Threshold: 0.3}
}

// highSeverity holds the severities counted as critical, uppercased.
var highSeverity = map[string]bool{
	"ERROR":    true,
	"CRITICAL": true,
	"FATAL":    true,
}

// Analyze scores events with the default weights.
func Analyze(events []models.Event) models.Analysis {
	return AnalyzeWith(DefaultWeights(), events)
}

// AnalyzeWith scores events with explicit weights. It is total: any
// input, including nil, produces a score in [0,1].
func AnalyzeWith(w Weights, events []models.Event) models.Analysis {
	if len(events) == 0 {
		return models.Analysis{
			RiskScore: 0,
			Summary:   "No data",
			Insights:  []string{"No logs to analyze"},
		}
	}

	var critical, warn int
	for _, e := range events {
		sev := strings.ToUpper(e.Severity)
		switch {
		case highSeverity[sev]:
			critical++
		case sev == "WARN":
			warn++
		}
	}

	riskScore := w.Critical*float64(critical) + w.Warn*float64(warn)
	if riskScore > 1.0 {
		riskScore = 1.0
	}

	summary := "Stable"
	if riskScore >= w.Threshold {
		summary = "Investigate power/cooling"
	}

	return models.Analysis{
		RiskScore: riskScore,
		Summary:   summary,
		Insights: []string{
			fmt.Sprintf("%d critical/error", critical),
			fmt.Sprintf("%d warnings", warn),
		},
	}
}

// Evidence renders up to max events as attribution lines in input
// order, the presentation view used by the fan-out path. A
// non-positive max yields nothing.
func Evidence(events []models.Event, max int) []string {
	if max <= 0 {
		return nil
	}
	if max > len(events) {
		max = len(events)
	}
	lines := make([]string, 0, max)
	for _, e := range events[:max] {
		lines = append(lines, fmt.Sprintf("[%s@%s] %s: %s", e.Vendor, e.Host, e.Severity, e.Message))
	}
	return lines
}
