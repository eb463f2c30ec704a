package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"BrandPulse/internal/app"
	"BrandPulse/internal/config"
	"BrandPulse/internal/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.New("api", cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("application init failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := application.RunAPI(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
