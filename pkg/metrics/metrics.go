// Package metrics holds the process-wide Prometheus collectors. The
// fallback counter is the side channel for errors the collector
// absorbs: they never reach a caller, but they are never silent here.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Collections counts completed collection runs by vendor and the
	// source that ultimately produced the events ("redfish" or "sel").
	Collections = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "rackwatch", Subsystem: "collector", Name: "collections_total", Help: "Completed collection runs by vendor and event source."},
		[]string{"vendor", "source"},
	)

	// Fallbacks counts structured-path failures absorbed into the SEL
	// fallback.
	Fallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "rackwatch", Subsystem: "collector", Name: "fallbacks_total", Help: "Structured collection failures absorbed by the SEL fallback."},
		[]string{"vendor"},
	)

	// RiskScore observes every computed risk score.
	RiskScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{Namespace: "rackwatch", Subsystem: "score", Name: "risk_score", Help: "Distribution of computed risk scores.", Buckets: []float64{0.05, 0.1, 0.2, 0.3, 0.5, 0.7, 0.9, 1}},
	)

	// RequestDuration observes facade request handling time.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "rackwatch", Subsystem: "http", Name: "request_duration_seconds", Help: "Request handling latency by route.", Buckets: prometheus.DefBuckets},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(Collections, Fallbacks, RiskScore, RequestDuration)
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
