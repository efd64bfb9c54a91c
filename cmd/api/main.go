package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"dronefeed/internal/cli"
	"dronefeed/internal/config"
	"dronefeed/internal/logging"
)

func main() {
	cfg, err := config.LoadConfig(os.Getenv("DRONEFEED_CONFIG"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		log.Fatalf("failed to init logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cli.Serve(ctx, *cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
