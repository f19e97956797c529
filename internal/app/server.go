// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/tomtom215/venuescout/internal/api"
	"github.com/tomtom215/venuescout/internal/cache"
	"github.com/tomtom215/venuescout/internal/config"
	"github.com/tomtom215/venuescout/internal/feed"
	"github.com/tomtom215/venuescout/internal/logging"
	"github.com/tomtom215/venuescout/internal/scoring"
	"github.com/tomtom215/venuescout/internal/supervisor"
	"github.com/tomtom215/venuescout/internal/supervisor/services"
	ws "github.com/tomtom215/venuescout/internal/websocket"
)

// ScoringWeights maps the scoring section of the config.
func ScoringWeights(cfg config.ScoringConfig) scoring.Weights {
	return scoring.Weights{
		Type:       cfg.Type,
		Atmosphere: cfg.Atmosphere,
		Music:      cfg.Music,
		Budget:     cfg.Budget,
		Location:   cfg.Location,
	}
}

// Server is the assembled discovery server.
type Server struct {
	cfg      *config.Config
	sources  *Sources
	venues   *cache.VenueCache
	registry *feed.Registry
	hub      *ws.Hub
	tree     *supervisor.SupervisorTree
	handler  http.Handler
	logger   zerolog.Logger
}

// NewServer builds every component and registers the supervised services.
// Nothing runs until Run.
func NewServer(ctx context.Context, cfg *config.Config, version string) (*Server, error) {
	logger := logging.WithComponent("server")

	sources, err := BuildSources(ctx, &cfg.Source, logging.WithComponent("source"))
	if err != nil {
		return nil, fmt.Errorf("build venue source: %w", err)
	}

	engine, err := scoring.NewEngine(ScoringWeights(cfg.Scoring), logging.WithComponent("scoring"))
	if err != nil {
		return nil, errors.Join(err, sources.Close())
	}

	venues := cache.NewVenueCache(sources.Source, cache.Config{
		PageTTL:          cfg.Cache.PageTTL,
		DetailStaleAfter: cfg.Cache.DetailStaleAfter,
		DetailMaxAge:     cfg.Cache.DetailMaxAge,
		FetchTimeout:     cfg.Cache.FetchTimeout,
	}, cache.WithLogger(logging.WithComponent("cache")))

	registry := feed.NewRegistry(sources.Source, venues, engine, feed.RegistryConfig{
		MaxSessions:  cfg.Feed.MaxSessions,
		IdleTimeout:  cfg.Feed.IdleTimeout,
		FetchTimeout: cfg.Feed.FetchTimeout,
	}, logging.WithComponent("feed"))

	hub := ws.NewHub(cfg.Feed.SubscriberBuffer, logging.WithComponent("websocket"))

	deps := api.Deps{
		Config:   cfg,
		Registry: registry,
		Venues:   venues,
		Source:   sources.Source,
		Hub:      hub,
		Version:  version,
	}
	if sources.Breaker != nil {
		deps.Breaker = sources.Breaker
	}
	handler := api.NewRouter(api.NewHandler(deps), cfg).SetupChi()

	tree, err := supervisor.NewSupervisorTree(
		logging.NewSlogLogger(logging.WithComponent("supervisor")),
		supervisor.TreeConfigFrom(cfg.Supervisor),
	)
	if err != nil {
		return nil, errors.Join(err, sources.Close())
	}

	s := &Server{
		cfg:      cfg,
		sources:  sources,
		venues:   venues,
		registry: registry,
		hub:      hub,
		tree:     tree,
		handler:  handler,
		logger:   logger,
	}
	s.addServices()
	return s, nil
}

func (s *Server) addServices() {
	s.tree.AddMaintenanceService(services.NewJanitorService(
		"cache-janitor", s.cfg.Cache.SweepInterval, s.venues.Sweep, logging.WithComponent("supervisor"),
	))
	s.tree.AddMaintenanceService(services.NewJanitorService(
		"session-janitor", s.cfg.Feed.JanitorInterval, s.registry.EvictIdle, logging.WithComponent("supervisor"),
	))
	s.tree.AddMessagingService(s.hub)

	httpServer := &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.handler,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}
	s.tree.AddAPIService(services.NewHTTPServerService(httpServer, s.cfg.Server.ShutdownTimeout))
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is canceled, then closes every session and the
// source stack.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info().
		Str("addr", s.cfg.Server.Addr()).
		Str("source", s.cfg.Source.Kind).
		Msg("Starting supervisor tree")

	var runErr error
	if err := <-s.tree.ServeBackground(ctx); err != nil && !errors.Is(err, context.Canceled) {
		runErr = err
		s.logger.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := s.tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		s.logger.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	s.registry.CloseAll()
	s.venues.Wait()
	if err := s.sources.Close(); err != nil {
		s.logger.Error().Err(err).Msg("Error closing venue store")
	}
	s.logger.Info().Msg("Server stopped")
	return runErr
}
