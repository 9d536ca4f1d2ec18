// Package redfish is the structured log adapter: it speaks just enough
// Redfish to probe a system resource and pull its log entries over
// basic-auth HTTPS. BMC firmware almost universally ships self-signed
// certificates, so certificate verification is relaxed here.
package redfish

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rackwatch/rackwatch/pkg/models"
	"github.com/rackwatch/rackwatch/pkg/normalize"
	"github.com/rackwatch/rackwatch/pkg/vendors"
)

// DefaultTimeout bounds every request to a BMC. Management controllers
// are slow but a healthy one answers well inside this.
const DefaultTimeout = 10 * time.Second

// Config holds everything needed to talk to one BMC.
type Config struct {
	Host     string
	Vendor   models.Vendor
	Username string
	Password string
	Profile  vendors.Profile

	// Timeout defaults to DefaultTimeout when zero.
	Timeout time.Duration

	// BaseURL overrides the https://<host>/redfish/v1 service root.
	// Tests point this at an httptest server.
	BaseURL string
}

// Client fetches system and log resources from a single BMC.
type Client struct {
	cfg     Config
	baseURL string
	http    *http.Client
}

// NewClient builds a client with a TLS-relaxed transport and a fixed
// per-request timeout.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s/redfish/v1", cfg.Host)
	}
	return &Client{
		cfg:     cfg,
		baseURL: baseURL,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
	}
}

// systemResource is the subset of a Redfish ComputerSystem we report.
type systemResource struct {
	Model         string `json:"Model"`
	SerialNumber  string `json:"SerialNumber"`
	BiosVersion   string `json:"BiosVersion"`
	PowerState    string `json:"PowerState"`
	LastResetTime string `json:"LastResetTime"`
}

// logEntries is the Redfish log-entries collection envelope.
type logEntries struct {
	Members []map[string]any `json:"Members"`
}

// FetchSystem probes the vendor's system resource. It doubles as the
// authentication check for the whole structured path: connectivity and
// status failures are returned, but a body that does not decode is
// tolerated since the probe's job is done by then.
func (c *Client) FetchSystem(ctx context.Context) (models.HardwareInfo, error) {
	body, err := c.get(ctx, c.cfg.Profile.SystemPath)
	if err != nil {
		return models.HardwareInfo{}, err
	}

	var sys systemResource
	if err := json.Unmarshal(body, &sys); err != nil {
		return models.HardwareInfo{}, nil
	}

	info := models.HardwareInfo{
		Model:      sys.Model,
		Serial:     sys.SerialNumber,
		Firmware:   sys.BiosVersion,
		PowerState: sys.PowerState,
	}
	if sys.LastResetTime != "" {
		if t, err := time.Parse(time.RFC3339, sys.LastResetTime); err == nil {
			utc := t.UTC()
			info.LastBoot = &utc
		}
	}
	return info, nil
}

// FetchLogEntries pulls the vendor's log-entries resource and
// normalizes every member.
func (c *Client) FetchLogEntries(ctx context.Context) ([]models.Event, error) {
	body, err := c.get(ctx, c.cfg.Profile.LogPath)
	if err != nil {
		return nil, err
	}

	var entries logEntries
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, &ParseError{Host: c.cfg.Host, Resource: c.cfg.Profile.LogPath, Err: err}
	}

	events := make([]models.Event, 0, len(entries.Members))
	for _, entry := range entries.Members {
		events = append(events, normalize.DecodeRedfishEntry(entry, c.cfg.Host, c.cfg.Vendor))
	}
	return events, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, &ConnectivityError{Host: c.cfg.Host, Err: err}
	}
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ConnectivityError{Host: c.cfg.Host, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &ProtocolError{Host: c.cfg.Host, Resource: path, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectivityError{Host: c.cfg.Host, Err: err}
	}
	return body, nil
}
