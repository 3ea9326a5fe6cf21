package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fadedpez/wagerescrow/internal/app"
	"github.com/fadedpez/wagerescrow/internal/config"
	"github.com/fadedpez/wagerescrow/internal/logging"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Default.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	logging.SetDefaultLevel(logging.ParseLevel(cfg.LogLevel))
	logger := logging.Default.WithPrefix("WAGERD")

	// Wait for interrupt signal to gracefully shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wagerd, err := app.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to start: %v", err)
		os.Exit(1)
	}

	logger.Info("Running. Press CTRL-C to exit.")
	runErr := wagerd.Run(ctx)

	logger.Info("Shutting down...")
	if err := wagerd.Close(); err != nil {
		logger.Error("Error closing storage: %v", err)
	}
	if runErr != nil {
		logger.Error("%v", runErr)
		os.Exit(1)
	}
}
