// Package sink defines where collected events go after scoring.
// Sinks are optional and best-effort: a sink failure is logged by the
// caller and never fails the request that produced the events.
package sink

import (
	"context"

	"github.com/rackwatch/rackwatch/pkg/models"
)

// Sink receives the canonical events of one collection run.
type Sink interface {
	// Store delivers one run's events.
	Store(ctx context.Context, events []models.Event) error

	// Close cleans up resources.
	Close() error
}

// Multi fans one run out to several sinks, returning the first error
// after attempting all of them.
type Multi []Sink

func (m Multi) Store(ctx context.Context, events []models.Event) error {
	var firstErr error
	for _, s := range m {
		if err := s.Store(ctx, events); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m Multi) Close() error {
	var firstErr error
	for _, s := range m {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
