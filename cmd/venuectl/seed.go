// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/venuescout/internal/app"
	"github.com/tomtom215/venuescout/internal/logging"
	"github.com/tomtom215/venuescout/internal/store"
)

func newSeedCmd(opts *cliOptions) *cobra.Command {
	var (
		storePath   string
		catalogPath string
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a venue catalog into the BadgerDB store",
		Long: `Seed copies the catalog (the embedded sample, or --catalog) into the
BadgerDB store. A store that already holds venues is left untouched unless
--force is given, in which case its catalog is replaced.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if storePath != "" {
				cfg.Source.Store.Path = storePath
			}
			if catalogPath != "" {
				cfg.Source.CatalogPath = catalogPath
			}

			catalog, err := app.LoadCatalog(&cfg.Source)
			if err != nil {
				return err
			}

			logger := logging.WithComponent("seed")
			st, err := store.Open(store.Config{
				Path:     cfg.Source.Store.Path,
				InMemory: cfg.Source.Store.InMemory,
				PageSize: cfg.Source.PageSize,
			}, logger)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, st.Close()) }()

			n, err := st.Count()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if n > 0 && !force {
				fmt.Fprintf(out, "store %s already holds %d venues (use --force to replace)\n", cfg.Source.Store.Path, n)
				return nil
			}

			if err := st.SeedFromCatalog(cmd.Context(), catalog); err != nil {
				return err
			}
			fmt.Fprintf(out, "seeded %d venues into %s\n", catalog.Len(), cfg.Source.Store.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&storePath, "store", "", "BadgerDB directory (overrides source.store.path)")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog JSON file (default: embedded sample)")
	cmd.Flags().BoolVar(&force, "force", false, "replace the catalog of a non-empty store")
	return cmd
}
