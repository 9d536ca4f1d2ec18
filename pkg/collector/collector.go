// Package collector decides how events get out of a BMC: the
// structured Redfish path first, then the IPMI SEL text fallback.
// The strategy absorbs every structured-path failure, so Collect never
// returns an error. The absorbed failure is reported through the side
// channel instead: a warn log carrying the run ID and a fallback
// counter.
package collector

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rackwatch/rackwatch/pkg/metrics"
	"github.com/rackwatch/rackwatch/pkg/models"
	"github.com/rackwatch/rackwatch/pkg/normalize"
	"github.com/rackwatch/rackwatch/pkg/redfish"
	"github.com/rackwatch/rackwatch/pkg/vendors"
)

// PlaceholderSEL stands in for real ipmitool output until an
// integration wires one up via SELSource.
const PlaceholderSEL = "1 | 09/13/2024 | 12:34:56 | Critical | PSU1 input lost"

// Credentials are the BMC login for one host.
type Credentials struct {
	Username string
	Password string
}

// SELSource produces raw "sel elist" text for a host. This is the
// integration seam for a real ipmitool invocation; errors are
// tolerated and yield an empty fallback.
type SELSource func(ctx context.Context, vendor models.Vendor, host string) (string, error)

// PlaceholderSELSource returns the fixed sample SEL line.
func PlaceholderSELSource(ctx context.Context, vendor models.Vendor, host string) (string, error) {
	return PlaceholderSEL, nil
}

// Config wires a Collector.
type Config struct {
	// DisableRedfish skips the structured path and goes straight to
	// the SEL fallback. The zero value keeps structured collection
	// preferred.
	DisableRedfish bool

	// Timeout bounds each BMC request; zero means redfish.DefaultTimeout.
	Timeout time.Duration

	// Profiles resolves vendor-specific Redfish paths; nil uses the
	// built-in table.
	Profiles *vendors.Profiles

	// SELSource supplies fallback SEL text; nil uses the placeholder.
	SELSource SELSource

	// RedfishBaseURL overrides the per-host service root. Tests point
	// this at an httptest server.
	RedfishBaseURL string

	Logger *zap.Logger
}

// Collector retrieves and normalizes events for BMC hosts.
type Collector struct {
	cfg Config
	log *zap.Logger
}

// New builds a Collector, defaulting the SEL source, profile table and
// logger.
func New(cfg Config) *Collector {
	if cfg.SELSource == nil {
		cfg.SELSource = PlaceholderSELSource
	}
	if cfg.Profiles == nil {
		cfg.Profiles = vendors.Builtin()
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{cfg: cfg, log: log}
}

// Collect retrieves events for one host. It never fails: any
// structured-path error is absorbed into the SEL fallback, and the
// fallback itself tolerates malformed input. Callers that care about
// "no data" versus "data" inspect the returned slice's length.
func (c *Collector) Collect(ctx context.Context, vendor models.Vendor, host string, creds Credentials) ([]models.Event, models.HardwareInfo) {
	runID := uuid.NewString()

	if !c.cfg.DisableRedfish {
		events, hw, err := c.collectStructured(ctx, vendor, host, creds)
		if err == nil {
			metrics.Collections.WithLabelValues(string(vendor), "redfish").Inc()
			return events, hw
		}
		// The suppressed primary error surfaces here and nowhere else.
		c.log.Warn("structured collection failed, falling back to SEL",
			zap.String("run_id", runID),
			zap.String("vendor", string(vendor)),
			zap.String("host", host),
			zap.Error(err))
		metrics.Fallbacks.WithLabelValues(string(vendor)).Inc()
	}

	return c.fallback(ctx, runID, vendor, host), PlaceholderHardware(vendor)
}

// CollectSample retrieves events through the SEL path only. It backs
// credential-less requests, where probing the structured endpoint
// would always fail and cost a timeout per vendor.
func (c *Collector) CollectSample(ctx context.Context, vendor models.Vendor, host string) []models.Event {
	return c.fallback(ctx, uuid.NewString(), vendor, host)
}

// fallback runs the SEL text path. It cannot fail: a failing SEL
// source yields an empty sequence and malformed lines are skipped by
// the parser.
func (c *Collector) fallback(ctx context.Context, runID string, vendor models.Vendor, host string) []models.Event {
	text, err := c.cfg.SELSource(ctx, vendor, host)
	if err != nil {
		c.log.Warn("sel source failed",
			zap.String("run_id", runID),
			zap.String("vendor", string(vendor)),
			zap.String("host", host),
			zap.Error(err))
		text = ""
	}
	events := normalize.ParseSEL(text, host, vendor)
	metrics.Collections.WithLabelValues(string(vendor), "sel").Inc()
	return events
}

func (c *Collector) collectStructured(ctx context.Context, vendor models.Vendor, host string, creds Credentials) ([]models.Event, models.HardwareInfo, error) {
	client := redfish.NewClient(redfish.Config{
		Host:     host,
		Vendor:   vendor,
		Username: creds.Username,
		Password: creds.Password,
		Profile:  c.cfg.Profiles.Get(vendor),
		Timeout:  c.cfg.Timeout,
		BaseURL:  c.cfg.RedfishBaseURL,
	})

	hw, err := client.FetchSystem(ctx)
	if err != nil {
		return nil, models.HardwareInfo{}, err
	}
	events, err := client.FetchLogEntries(ctx)
	if err != nil {
		return nil, models.HardwareInfo{}, err
	}
	return events, hw, nil
}

// CollectAll fans out across every real vendor in fixed order and
// concatenates the results. Order matters downstream: evidence
// truncation takes the first lines of the merged sequence.
func (c *Collector) CollectAll(ctx context.Context, hostFor func(models.Vendor) string, creds Credentials) []models.Event {
	var merged []models.Event
	for _, v := range models.Vendors {
		events, _ := c.Collect(ctx, v, hostFor(v), creds)
		merged = append(merged, events...)
	}
	return merged
}

// PlaceholderHardware synthesizes inventory for paths with no live
// system resource, such as the SEL fallback.
func PlaceholderHardware(vendor models.Vendor) models.HardwareInfo {
	now := time.Now().UTC()
	return models.HardwareInfo{
		Model:      strings.ToUpper(string(vendor)) + "-Server-GenX",
		Serial:     "SN123456",
		Firmware:   "2.0.1",
		PowerState: "On",
		LastBoot:   &now,
	}
}
