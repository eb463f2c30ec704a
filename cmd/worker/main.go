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
	logger := logging.New("worker", cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("worker init failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := application.RunWorker(ctx); err != nil {
		logger.Error("worker stopped", "error", err)
		os.Exit(1)
	}
}
