// Package server is the HTTP facade over the collection and scoring
// pipeline: /api/connect, /api/analyze, /health, /metrics and a static
// UI mount. All cross-cutting setup lives in an explicit Config; there
// are no ambient globals.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/rackwatch/rackwatch/pkg/collector"
	"github.com/rackwatch/rackwatch/pkg/metrics"
	"github.com/rackwatch/rackwatch/pkg/models"
	"github.com/rackwatch/rackwatch/pkg/score"
	"github.com/rackwatch/rackwatch/pkg/secrets"
	"github.com/rackwatch/rackwatch/pkg/sink"
)

// Config wires the facade.
type Config struct {
	Addr string

	// UIDir is served under /ui/ when it exists; empty disables the
	// mount.
	UIDir string

	// AllowedOrigins for CORS; empty means allow everything, the
	// demo posture.
	AllowedOrigins []string

	Collector *collector.Collector
	Weights   score.Weights

	// Sinks receive every collected run, best-effort. Optional.
	Sinks sink.Sink

	// Resolver expands Secrets Manager references in request
	// credentials. Optional.
	Resolver *secrets.Resolver

	Logger *zap.Logger
}

// Server handles facade requests.
type Server struct {
	cfg Config
	log *zap.Logger
}

// New builds a Server. The collector is required.
func New(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{cfg: cfg, log: log}
}

// Handler builds the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/api/connect", s.timed("connect", s.handleConnect)).Methods(http.MethodPost)
	r.HandleFunc("/api/analyze", s.timed("analyze", s.handleAnalyze)).Methods(http.MethodPost)

	if s.cfg.UIDir != "" {
		if _, err := os.Stat(s.cfg.UIDir); err == nil {
			r.PathPrefix("/ui/").Handler(http.StripPrefix("/ui/", http.FileServer(http.Dir(s.cfg.UIDir))))
			r.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
				http.Redirect(w, req, "/ui/index.html", http.StatusTemporaryRedirect)
			}).Methods(http.MethodGet)
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(r)
}

// ListenAndServe runs the facade until the context is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) timed(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		h(w, req)
		metrics.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type connectRequest struct {
	Vendor   string `json:"vendor"`
	BMCHost  string `json:"bmc_host"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type connectResponse struct {
	Vendor   string              `json:"vendor"`
	Hardware models.HardwareInfo `json:"hardware"`
	Logs     []models.Event      `json:"logs"`
	Analysis models.Analysis     `json:"analysis"`
}

func (s *Server) handleConnect(w http.ResponseWriter, req *http.Request) {
	var in connectRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	vendor, err := models.ParseVendor(in.Vendor)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	creds, err := s.resolveCredentials(req.Context(), in.Username, in.Password)
	if err != nil {
		s.log.Error("credential resolution failed", zap.Error(err))
		writeDetail(w, http.StatusBadGateway, "credential resolution failed")
		return
	}

	var (
		logs     []models.Event
		hardware models.HardwareInfo
	)
	if vendor == models.VendorAll {
		logs = s.cfg.Collector.CollectAll(req.Context(), demoHost, creds)
		hardware = collector.PlaceholderHardware(models.VendorAll)
	} else {
		logs, hardware = s.cfg.Collector.Collect(req.Context(), vendor, in.BMCHost, creds)
	}

	analysis := s.analyze(logs)
	s.deliver(req.Context(), logs)

	writeJSON(w, http.StatusOK, connectResponse{
		Vendor:   string(vendor),
		Hardware: hardware,
		Logs:     logs,
		Analysis: analysis,
	})
}

type analyzeRequest struct {
	Vendor  string `json:"vendor"`
	BMCHost string `json:"bmc_host"`
}

type analyzeResponse struct {
	Vendor    string   `json:"vendor"`
	RiskScore float64  `json:"risk_score"`
	Summary   string   `json:"summary"`
	Insights  []string `json:"insights"`
	Evidence  []string `json:"evidence"`
	Count     int      `json:"count"`
}

// handleAnalyze is the credential-less assessment path: it samples the
// SEL fallback per vendor and scores the merged sequence.
func (s *Server) handleAnalyze(w http.ResponseWriter, req *http.Request) {
	var in analyzeRequest
	// An empty body means "analyze everything".
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if in.Vendor == "" {
		in.Vendor = string(models.VendorAll)
	}
	vendor, err := models.ParseVendor(in.Vendor)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	targets := []models.Vendor{vendor}
	if vendor == models.VendorAll {
		targets = models.Vendors
	}

	var events []models.Event
	for _, v := range targets {
		host := in.BMCHost
		if host == "" {
			host = demoHost(v)
		}
		events = append(events, s.cfg.Collector.CollectSample(req.Context(), v, host)...)
	}

	analysis := s.analyze(events)
	writeJSON(w, http.StatusOK, analyzeResponse{
		Vendor:    string(vendor),
		RiskScore: analysis.RiskScore,
		Summary:   analysis.Summary,
		Insights:  analysis.Insights,
		Evidence:  score.Evidence(events, score.EvidenceLimit),
		Count:     len(events),
	})
}

func (s *Server) analyze(events []models.Event) models.Analysis {
	analysis := score.AnalyzeWith(s.cfg.Weights, events)
	metrics.RiskScore.Observe(analysis.RiskScore)
	return analysis
}

// deliver hands a run to the configured sinks. Sink trouble is logged,
// never surfaced to the request.
func (s *Server) deliver(ctx context.Context, events []models.Event) {
	if s.cfg.Sinks == nil || len(events) == 0 {
		return
	}
	if err := s.cfg.Sinks.Store(ctx, events); err != nil {
		s.log.Warn("sink delivery failed", zap.Error(err))
	}
}

func (s *Server) resolveCredentials(ctx context.Context, username, password string) (collector.Credentials, error) {
	user, err := s.cfg.Resolver.Resolve(ctx, username)
	if err != nil {
		return collector.Credentials{}, err
	}
	pass, err := s.cfg.Resolver.Resolve(ctx, password)
	if err != nil {
		return collector.Credentials{}, err
	}
	return collector.Credentials{Username: user, Password: pass}, nil
}

// demoHost names the per-vendor sample host used by fan-out requests.
func demoHost(v models.Vendor) string {
	return fmt.Sprintf("%s-demo", v)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
