// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomtom215/venuescout/internal/app"
	"github.com/tomtom215/venuescout/internal/logging"
)

func newServeCmd(opts *cliOptions) *cobra.Command {
	var (
		port   int
		source string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the discovery API server",
		Long: `Serve runs the HTTP API, the session WebSocket hub and the cache and
session janitors under one supervisor tree until SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if source != "" {
				cfg.Source.Kind = source
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv, err := app.NewServer(ctx, cfg, version)
			if err != nil {
				return err
			}
			logging.Info().
				Str("version", version).
				Str("addr", cfg.Server.Addr()).
				Msg("Starting venuescout")
			return srv.Run(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP port (overrides config)")
	cmd.Flags().StringVar(&source, "source", "", "venue source kind: catalog, http or badger")
	return cmd
}
