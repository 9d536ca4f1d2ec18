// Package hec forwards canonical events to Splunk HTTP Event
// Collector endpoints. Endpoints are health-checked in the background
// and each run goes to the first healthy one.
package hec

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mosajjal/Go-Splunk-HTTP/splunk/v2"

	"github.com/rackwatch/rackwatch/pkg/models"
)

const healthInterval = 10 * time.Second

// Config holds HEC forwarder configuration.
type Config struct {
	Endpoints     []string
	Token         string
	TLSSkipVerify bool
	Proxy         string
	Index         string
	Source        string
	SourceType    string
	Timeout       time.Duration

	// ChannelID must be a UUID when set; anything else is replaced
	// with a fresh one.
	ChannelID string
}

// Sink delivers events to Splunk HEC.
type Sink struct {
	connections []*connection
	done        chan struct{}
}

type connection struct {
	endpoint  string
	client    *splunk.Client
	isHealthy bool
}

// New builds a Sink and starts background health checking.
func New(cfg Config) (*Sink, error) {
	s := &Sink{done: make(chan struct{})}
	for _, endpoint := range cfg.Endpoints {
		conn, err := newConnection(endpoint, cfg)
		if err != nil {
			return nil, err
		}
		s.connections = append(s.connections, conn)
	}
	if len(s.connections) == 0 {
		return nil, fmt.Errorf("no HEC endpoints configured")
	}
	go s.healthLoop()
	return s, nil
}

func newConnection(endpoint string, cfg Config) (*connection, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.TLSSkipVerify},
	}
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}
	httpClient := &http.Client{Timeout: timeout, Transport: transport}

	if !strings.HasSuffix(endpoint, "/services/collector") {
		endpoint = fmt.Sprintf("%s/services/collector", endpoint)
	}

	channelID := cfg.ChannelID
	if _, err := uuid.Parse(channelID); err != nil {
		channelID = uuid.New().String()
	}

	client := splunk.NewClient(httpClient, endpoint, cfg.Token, channelID, cfg.Source, cfg.SourceType, cfg.Index)

	conn := &connection{endpoint: endpoint, client: client}
	conn.updateHealth()
	return conn, nil
}

func (c *connection) updateHealth() {
	c.isHealthy = c.client.CheckHealth() == nil
}

func (s *Sink) healthLoop() {
	ticker := time.NewTicker(healthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			for _, conn := range s.connections {
				conn.updateHealth()
			}
		}
	}
}

// Store sends one run's events to the first healthy endpoint.
func (s *Sink) Store(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}

	splunkEvents := make([]*splunk.Event, len(events))
	for i, e := range events {
		splunkEvents[i] = &splunk.Event{
			Time:  splunk.EventTime{Time: e.Timestamp},
			Host:  e.Host,
			Event: e,
		}
	}

	for _, conn := range s.connections {
		if conn.isHealthy {
			return conn.client.LogEvents(splunkEvents)
		}
	}
	return fmt.Errorf("no healthy HEC connection available")
}

// Close stops health checking.
func (s *Sink) Close() error {
	close(s.done)
	return nil
}
