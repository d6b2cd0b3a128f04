// Package main is the entry point for the pantry HTTP server.
//
// main stays small: read configuration, build the logger, hand both to
// internal/server and block in Start. Everything else lives in internal/.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/sakif/pantry/internal/config"
	"github.com/sakif/pantry/internal/server"
)

func main() {
	// .env is read first, then the process environment. See internal/config
	// for the full list of variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Log levels from least to most severe: Debug → Info → Warn → Error.
	// LOG_LEVEL=debug also logs every page load.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	if cfg.JWTSecret == "" {
		logger.Warn("PANTRY_JWT_SECRET not set, mutating routes are open")
	}

	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM, then saves and closes storage.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
