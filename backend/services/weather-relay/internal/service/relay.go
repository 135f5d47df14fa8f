package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"weatherrelay/backend/services/weather-relay/internal/ingest"
	"weatherrelay/backend/services/weather-relay/internal/models"
	"weatherrelay/backend/services/weather-relay/internal/normalize"
)

// Broadcaster receives normalized readings in emission order.
type Broadcaster interface {
	Dispatch(ctx context.Context, reading models.NormalizedReading) (bool, int, error)
}

// Relay moves readings from an ingestion source through the normalizer to the
// dispatcher. It does not know which source variant is active.
type Relay struct {
	source      ingest.Source
	broadcaster Broadcaster
	logger      *zap.Logger
}

// NewRelay returns relay instance.
func NewRelay(source ingest.Source, broadcaster Broadcaster, logger *zap.Logger) *Relay {
	return &Relay{
		source:      source,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// Run blocks until ctx is cancelled (returns nil) or the source fails.
func (r *Relay) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	readings := make(chan models.Reading)
	errCh := make(chan error, 1)
	go func() {
		errCh <- r.source.Run(ctx, readings)
	}()

	r.logger.Info("relay started", zap.String("source", r.source.Name()))
	for {
		select {
		case <-ctx.Done():
			<-errCh
			r.logger.Info("relay stopped", zap.String("source", r.source.Name()))
			return nil
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("relay: %s source: %w", r.source.Name(), err)
			}
			return nil
		case reading := <-readings:
			if _, _, err := r.broadcaster.Dispatch(ctx, normalize.Normalize(reading)); err != nil {
				r.logger.Error("failed to dispatch reading", zap.String("timestamp", reading.Timestamp), zap.Error(err))
			}
		}
	}
}
