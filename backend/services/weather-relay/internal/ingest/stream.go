package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"weatherrelay/backend/services/weather-relay/internal/metrics"
	"weatherrelay/backend/services/weather-relay/internal/models"
)

const (
	defaultMaxConsecutiveErrors = 3
	defaultRetryDelay           = time.Second
)

// ErrStreamUnreadable is returned by StreamListener.Run when the feed keeps failing.
var ErrStreamUnreadable = errors.New("ingest: change stream unreadable")

// Feed is an ordered, append-only change feed with a persisted read position.
type Feed interface {
	// Checkpoint returns the position to resume after; the beginning when none is stored.
	Checkpoint(ctx context.Context) (string, error)
	SaveCheckpoint(ctx context.Context, id string) error
	// ReadBatch blocks until entries after the given position arrive or the
	// feed's block timeout elapses, in which case it returns an empty batch.
	ReadBatch(ctx context.Context, after string) ([]models.FeedEvent, error)
}

// StreamConfig tunes the listener. Zero values fall back to defaults.
type StreamConfig struct {
	MaxConsecutiveErrors int
	RetryDelay           time.Duration
}

// StreamListener emits the reading embedded in every insert event of a Feed.
type StreamListener struct {
	feed   Feed
	cfg    StreamConfig
	logger *zap.Logger
}

// NewStreamListener builds a listener over feed.
func NewStreamListener(feed Feed, cfg StreamConfig, logger *zap.Logger) *StreamListener {
	if cfg.MaxConsecutiveErrors <= 0 {
		cfg.MaxConsecutiveErrors = defaultMaxConsecutiveErrors
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	return &StreamListener{
		feed:   feed,
		cfg:    cfg,
		logger: logger.With(zap.String("source", ModeStream)),
	}
}

// Name implements Source.
func (l *StreamListener) Name() string {
	return ModeStream
}

// Run implements Source.
func (l *StreamListener) Run(ctx context.Context, out chan<- models.Reading) error {
	after, err := l.feed.Checkpoint(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("ingest: load checkpoint: %w", err)
	}
	l.logger.Info("change stream listener started", zap.String("after", after))

	failures := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		batch, err := l.feed.ReadBatch(ctx, after)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			failures++
			metrics.IngestErrors.WithLabelValues(ModeStream).Inc()
			l.logger.Error("change stream read failed", zap.Int("consecutive_failures", failures), zap.Error(err))
			if failures >= l.cfg.MaxConsecutiveErrors {
				return fmt.Errorf("%w after %d attempts: %w", ErrStreamUnreadable, failures, err)
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(l.cfg.RetryDelay):
			}
			continue
		}
		failures = 0

		position := after
		for _, event := range batch {
			switch {
			case event.Err != nil:
				l.logger.Warn("skipping undecodable change event", zap.String("event_id", event.ID), zap.Error(event.Err))
			case event.Op != models.OpInsert:
				l.logger.Debug("skipping non-insert change event", zap.String("event_id", event.ID), zap.String("op", event.Op))
			default:
				if !emit(ctx, out, event.Reading) {
					l.saveCheckpoint(position, after)
					return nil
				}
				metrics.ReadingsIngested.WithLabelValues(ModeStream).Inc()
			}
			position = event.ID
		}

		if position != after {
			l.saveCheckpoint(position, after)
			after = position
		}
	}
}

// saveCheckpoint persists position. Failures are logged; the in-memory position
// keeps advancing so a restart may replay part of the feed.
func (l *StreamListener) saveCheckpoint(position, previous string) {
	if position == previous {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.feed.SaveCheckpoint(ctx, position); err != nil {
		l.logger.Warn("failed to persist stream checkpoint", zap.String("position", position), zap.Error(err))
	}
}
