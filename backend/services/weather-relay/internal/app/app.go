package app

import (
	"context"
	"database/sql"
	"errors"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	libredis "weatherrelay/backend/libs/redis"
	"weatherrelay/backend/services/weather-relay/internal/config"
	"weatherrelay/backend/services/weather-relay/internal/db"
	"weatherrelay/backend/services/weather-relay/internal/dispatch"
	httpserver "weatherrelay/backend/services/weather-relay/internal/http"
	"weatherrelay/backend/services/weather-relay/internal/http/handlers"
	"weatherrelay/backend/services/weather-relay/internal/ingest"
	redisstore "weatherrelay/backend/services/weather-relay/internal/redis"
	"weatherrelay/backend/services/weather-relay/internal/registry"
	"weatherrelay/backend/services/weather-relay/internal/repository"
	"weatherrelay/backend/services/weather-relay/internal/service"
	"weatherrelay/backend/services/weather-relay/internal/ws"
)

// App wires the weather relay.
type App struct {
	server      *httpserver.Server
	relay       *service.Relay
	registry    *registry.Registry
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New builds the application graph. ctx bounds the lifetime of live connections.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := db.NewPostgres(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	a := &App{db: sqlDB, logger: logger}

	readingRepo := repository.NewReadingRepository(sqlDB)

	source, err := a.newSource(ctx, cfg, readingRepo)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.registry = registry.New(logger)
	dispatcher := dispatch.NewDispatcher(a.registry, logger)
	a.relay = service.NewRelay(source, dispatcher, logger)

	wsServer := ws.NewServer(ctx, a.registry, ws.Options{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		WriteTimeout:   cfg.WriteTimeout(),
		PingInterval:   cfg.PingInterval(),
	}, logger)

	routes := httpserver.Routes{
		Weather: handlers.NewWeatherHandler(readingRepo, logger),
		Live:    wsServer.HandleWS,
		Health:  handlers.NewHealthHandler(),
		Metrics: promhttp.Handler(),
	}
	router := httpserver.NewRouter(routes, cfg.HTTP.AllowedOrigins)
	a.server = httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return a, nil
}

func (a *App) newSource(ctx context.Context, cfg *config.Config, repo *repository.ReadingRepository) (ingest.Source, error) {
	switch cfg.Ingest.Mode {
	case ingest.ModeStream:
		client, err := libredis.NewRedisClient(ctx, libredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		a.redisClient = client
		feed := redisstore.NewChangeFeed(client, redisstore.ChangeFeedOptions{
			Stream:        cfg.Stream.Key,
			CheckpointKey: cfg.Stream.CheckpointKey,
			Block:         cfg.StreamBlock(),
		})
		return ingest.NewStreamListener(feed, ingest.StreamConfig{
			MaxConsecutiveErrors: cfg.Ingest.MaxConsecutiveFails,
		}, a.logger), nil
	default:
		return ingest.NewPoller(repo, ingest.PollerConfig{
			Interval:    cfg.PollInterval(),
			ReadTimeout: cfg.PollReadTimeout(),
		}, a.logger), nil
	}
}

// Run serves HTTP and runs the relay until ctx is cancelled or the ingestion
// source fails. Subscribers are disconnected on the way out.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.server.Run(gctx)
	})
	g.Go(func() error {
		err := a.relay.Run(gctx)
		if err == nil && ctx.Err() == nil {
			return errors.New("app: relay stopped unexpectedly")
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		a.registry.Close()
		return nil
	})

	return g.Wait()
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
