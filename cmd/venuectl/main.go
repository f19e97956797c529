// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

// Package main is the venuectl command line tool.
//
// venuectl runs the discovery server, seeds the BadgerDB venue catalog and
// ranks venues for a survey from the terminal. Configuration is loaded the
// same way as the server: defaults, then the YAML file (--config or
// CONFIG_PATH), then environment variables.
//
//	venuectl seed --store ./data/venues
//	venuectl rank --type bar --atmosphere elegant --music jazz --budget 150 --location Cityville
//	venuectl serve
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomtom215/venuescout/internal/config"
	"github.com/tomtom215/venuescout/internal/logging"
)

// version is set at build time via ldflags.
var version = "dev"

// cliOptions are the persistent flags shared by every subcommand.
type cliOptions struct {
	configPath string
	logLevel   string
}

// loadConfig loads the layered configuration and applies --log-level.
func (o *cliOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
		Output: os.Stderr,
	})
	return cfg, nil
}

// newRootCmd builds the command tree. Each call returns fresh flag state.
func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:   "venuectl",
		Short: "Preference-driven venue discovery",
		Long: `venuectl operates the venuescout discovery service.

The serve command runs the HTTP and WebSocket API. The seed command loads a
venue catalog into the BadgerDB store used by the badger source kind. The
rank command scores venues against survey answers without a server.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: $CONFIG_PATH or ./config.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newServeCmd(opts),
		newSeedCmd(opts),
		newRankCmd(opts),
		newVersionCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
