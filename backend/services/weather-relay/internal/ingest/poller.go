package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"weatherrelay/backend/services/weather-relay/internal/metrics"
	"weatherrelay/backend/services/weather-relay/internal/models"
)

const (
	defaultPollInterval    = 2 * time.Second
	defaultReadTimeout     = 5 * time.Second
	defaultBreakerFailures = 5
	defaultBreakerTimeout  = 30 * time.Second
)

// LatestReader returns the most recent reading, or nil when the store is empty.
type LatestReader interface {
	Latest(ctx context.Context) (*models.Reading, error)
}

// PollerConfig tunes the poller. Zero values fall back to defaults.
type PollerConfig struct {
	Interval        time.Duration
	ReadTimeout     time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// Poller reads the latest reading every interval and emits it when its
// timestamp differs from the last emitted one.
type Poller struct {
	reader  LatestReader
	cfg     PollerConfig
	breaker *gobreaker.CircuitBreaker[*models.Reading]
	logger  *zap.Logger

	lastTimestamp string
	hasLast       bool
}

// NewPoller builds a poller over reader.
func NewPoller(reader LatestReader, cfg PollerConfig, logger *zap.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultPollInterval
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = defaultBreakerFailures
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = defaultBreakerTimeout
	}

	logger = logger.With(zap.String("source", ModePoll))
	p := &Poller{reader: reader, cfg: cfg, logger: logger}
	p.breaker = gobreaker.NewCircuitBreaker[*models.Reading](gobreaker.Settings{
		Name:        "store-latest-reading",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("store circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return p
}

// Name implements Source.
func (p *Poller) Name() string {
	return ModePoll
}

// Run implements Source. The first read happens immediately.
func (p *Poller) Run(ctx context.Context, out chan<- models.Reading) error {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.logger.Info("poller started", zap.Duration("interval", p.cfg.Interval))
	for {
		if !p.tick(ctx, out) {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// tick performs one read. It returns false once ctx is done.
func (p *Poller) tick(ctx context.Context, out chan<- models.Reading) bool {
	readCtx, cancel := context.WithTimeout(ctx, p.cfg.ReadTimeout)
	defer cancel()

	reading, err := p.breaker.Execute(func() (*models.Reading, error) {
		return p.reader.Latest(readCtx)
	})
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		metrics.IngestErrors.WithLabelValues(ModePoll).Inc()
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			p.logger.Debug("store circuit open, skipping tick")
		} else {
			p.logger.Error("polling error", zap.Error(err))
		}
		return true
	}
	if reading == nil {
		return true
	}

	p.logger.Debug("fetched latest timestamp",
		zap.String("timestamp", reading.Timestamp),
		zap.String("last_timestamp", p.lastTimestamp),
	)
	if p.hasLast && reading.Timestamp == p.lastTimestamp {
		return true
	}

	if !emit(ctx, out, *reading) {
		return false
	}
	p.lastTimestamp = reading.Timestamp
	p.hasLast = true
	metrics.ReadingsIngested.WithLabelValues(ModePoll).Inc()
	return true
}
