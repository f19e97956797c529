// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/tomtom215/venuescout/internal/config"
	"github.com/tomtom215/venuescout/internal/source"
	"github.com/tomtom215/venuescout/internal/store"
)

// Sources is a configured source stack.
type Sources struct {
	// Source is the outermost layer; use it for every call.
	Source source.Source

	// Breaker is nil when the circuit breaker is disabled.
	Breaker *source.BreakerSource

	// Store is set for the badger kind.
	Store *store.BadgerSource
}

// Close releases the persistent store, if any.
func (s *Sources) Close() error {
	if s.Store != nil {
		return s.Store.Close()
	}
	return nil
}

// LoadCatalog returns the catalog at cfg.CatalogPath, or the embedded
// sample catalog when no path is set.
func LoadCatalog(cfg *config.SourceConfig) (*source.Catalog, error) {
	opts := []source.CatalogOption{source.WithPageSize(cfg.PageSize), source.WithLatency(cfg.Latency)}
	if cfg.CatalogPath == "" {
		return source.SampleCatalog(opts...), nil
	}
	data, err := os.ReadFile(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return source.LoadCatalog(data, opts...)
}

// OpenStore opens the badger catalog and seeds it when it is empty and
// SeedOnStart is set.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func OpenStore(ctx context.Context, cfg *config.SourceConfig, logger zerolog.Logger) (*store.BadgerSource, error) {
	st, err := store.Open(store.Config{
		Path:     cfg.Store.Path,
		InMemory: cfg.Store.InMemory,
		PageSize: cfg.PageSize,
	}, logger)
	if err != nil {
		return nil, err
	}
	if !cfg.Store.SeedOnStart {
		return st, nil
	}

	n, err := st.Count()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("count stored venues: %w", err), st.Close())
	}
	if n > 0 {
		return st, nil
	}
	catalog, err := LoadCatalog(cfg)
	if err != nil {
		return nil, errors.Join(err, st.Close())
	}
	if err := st.SeedFromCatalog(ctx, catalog); err != nil {
		return nil, errors.Join(err, st.Close())
	}
	logger.Info().Int("venues", catalog.Len()).Msg("Seeded empty venue store")
	return st, nil
}

// BuildSources creates the source stack for cfg.Source.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func BuildSources(ctx context.Context, cfg *config.SourceConfig, logger zerolog.Logger) (*Sources, error) {
	out := &Sources{}

	var base source.Source
	switch cfg.Kind {
	case config.SourceCatalog:
		catalog, err := LoadCatalog(cfg)
		if err != nil {
			return nil, err
		}
		base = catalog
	case config.SourceHTTP:
		base = source.NewHTTPSource(source.HTTPConfig{
			BaseURL:   cfg.HTTP.BaseURL,
			Timeout:   cfg.HTTP.Timeout,
			RateLimit: cfg.HTTP.RateLimit,
			RateBurst: cfg.HTTP.RateBurst,
			UserAgent: cfg.HTTP.UserAgent,
		})
	case config.SourceBadger:
		st, err := OpenStore(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		out.Store = st
		base = st
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}

	if cfg.Breaker.Enabled {
		out.Breaker = source.NewBreakerSource(base, source.BreakerConfig{
			Name:         "venue-source-" + cfg.Kind,
			MaxRequests:  cfg.Breaker.MaxRequests,
			Interval:     cfg.Breaker.Interval,
			Timeout:      cfg.Breaker.Timeout,
			MinRequests:  cfg.Breaker.MinRequests,
			FailureRatio: cfg.Breaker.FailureRatio,
		})
		base = out.Breaker
	}

	out.Source = source.NewInstrumented(cfg.Kind, base)
	logger.Info().
		Str("kind", cfg.Kind).
		Bool("breaker", cfg.Breaker.Enabled).
		Int("page_size", cfg.PageSize).
		Msg("Venue source ready")
	return out, nil
}
