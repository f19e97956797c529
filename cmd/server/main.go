// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/tomtom215/venuescout/internal/app"
	"github.com/tomtom215/venuescout/internal/config"
	"github.com/tomtom215/venuescout/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("source", cfg.Source.Kind).
		Msg("Starting venuescout")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := app.NewServer(ctx, cfg, version)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize server")
	}

	if err := srv.Run(ctx); err != nil {
		logging.Error().Err(err).Msg("Server exited with error")
		stop()
		return
	}
	logging.Info().Msg("Application stopped gracefully")
}
