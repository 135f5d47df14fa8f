// Package ingest detects new readings in the backing store.
//
// Two sources are provided: Poller re-reads the latest row on an interval and
// StreamListener follows the store's change feed. Both deliver readings in the
// order they observe them and never normalize units.
package ingest

import (
	"context"

	"weatherrelay/backend/services/weather-relay/internal/models"
)

const (
	ModePoll   = "poll"
	ModeStream = "stream"
)

// Source produces an unbounded sequence of raw readings on out.
//
// Run blocks until ctx is cancelled, in which case it returns nil, or until the
// source fails irrecoverably, in which case it returns the error and stops
// emitting. A Source is not restartable.
type Source interface {
	Name() string
	Run(ctx context.Context, out chan<- models.Reading) error
}

func emit(ctx context.Context, out chan<- models.Reading, reading models.Reading) bool {
	select {
	case out <- reading:
		return true
	case <-ctx.Done():
		return false
	}
}
