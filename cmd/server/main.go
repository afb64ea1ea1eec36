// Package main is the entry point for the liber API server.
//
// The main package stays minimal: load configuration, build a logger, hand
// both to internal/server and block until shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/chankruze/liber/internal/config"
	"github.com/chankruze/liber/internal/server"
)

func main() {
	// Values already in the environment win over .env entries.
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
