package dispatch

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"weatherrelay/backend/services/weather-relay/internal/metrics"
	"weatherrelay/backend/services/weather-relay/internal/models"
	"weatherrelay/backend/services/weather-relay/internal/registry"
)

// State reports what the dispatcher is doing.
type State int32

const (
	StateIdle State = iota
	StateBroadcasting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBroadcasting:
		return "broadcasting"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Targets yields the subscribers a broadcast is offered to.
type Targets interface {
	Snapshot() []registry.Subscriber
}

// Dispatcher fans normalized readings out to a snapshot of the registry.
// Dispatch must be called from a single goroutine.
type Dispatcher struct {
	targets       Targets
	logger        *zap.Logger
	state         atomic.Int32
	lastTimestamp string
	hasLast       bool
}

// NewDispatcher builds a dispatcher over targets.
func NewDispatcher(targets Targets, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		targets: targets,
		logger:  logger,
	}
}

// State returns the current state.
func (d *Dispatcher) State() State {
	return State(d.state.Load())
}

// Dispatch broadcasts reading unless its timestamp equals the last broadcast one.
// It reports whether a broadcast happened and how many subscribers accepted it.
func (d *Dispatcher) Dispatch(ctx context.Context, reading models.NormalizedReading) (bool, int, error) {
	if d.hasLast && reading.Timestamp == d.lastTimestamp {
		metrics.ReadingsSuppressed.Inc()
		d.logger.Debug("duplicate reading suppressed", zap.String("timestamp", reading.Timestamp))
		return false, 0, nil
	}

	payload, err := EncodeWeatherUpdate(reading)
	if err != nil {
		return false, 0, fmt.Errorf("dispatch: encode %s: %w", reading.Timestamp, err)
	}

	d.lastTimestamp = reading.Timestamp
	d.hasLast = true

	d.state.Store(int32(StateBroadcasting))
	defer d.state.Store(int32(StateIdle))

	started := time.Now()
	snapshot := d.targets.Snapshot()
	delivered := 0
	for _, sub := range snapshot {
		if ctx.Err() != nil {
			break
		}
		if err := sub.Send(payload); err != nil {
			metrics.Deliveries.WithLabelValues("error").Inc()
			d.logger.Warn("failed to deliver reading",
				zap.String("subscriber_id", sub.ID()),
				zap.String("timestamp", reading.Timestamp),
				zap.Error(err),
			)
			continue
		}
		metrics.Deliveries.WithLabelValues("ok").Inc()
		delivered++
	}

	metrics.Broadcasts.Inc()
	metrics.BroadcastDuration.Observe(time.Since(started).Seconds())
	d.logger.Info("broadcasted weather update",
		zap.String("timestamp", reading.Timestamp),
		zap.Int("subscribers", len(snapshot)),
		zap.Int("delivered", delivered),
	)
	return true, delivered, nil
}
