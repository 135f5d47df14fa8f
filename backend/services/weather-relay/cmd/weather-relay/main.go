package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"weatherrelay/backend/libs/logging"
	"weatherrelay/backend/services/weather-relay/internal/app"
	"weatherrelay/backend/services/weather-relay/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger("weather-relay")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to init application", zap.Error(err))
	}
	defer application.Close()

	logger.Info("weather relay configured",
		zap.String("ingest_mode", cfg.Ingest.Mode),
		zap.String("addr", cfg.HTTPAddress()),
		zap.Strings("allowed_origins", cfg.HTTP.AllowedOrigins),
	)

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("application stopped with error", zap.Error(err))
		application.Close()
		os.Exit(1)
	}
}
