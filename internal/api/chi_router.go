// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/venuescout/internal/config"
	"github.com/tomtom215/venuescout/internal/middleware"
)

// compressionLevel is the gzip level for JSON responses.
const compressionLevel = 5

// Router sets up HTTP routes using Chi router.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. A nil cfg uses the default middleware
// configuration.
func NewRouter(handler *Handler, cfg *config.Config) *Router {
	mw := NewChiMiddleware(nil)
	if cfg != nil {
		mw = NewChiMiddlewareFromSecurity(
			cfg.Security.CORSOrigins,
			cfg.Security.RateLimitReqs,
			cfg.Security.RateLimitWindow,
			cfg.Security.RateLimitDisabled,
		)
	}
	return &Router{handler: handler, chiMiddleware: mw}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Unmatched routes in subrouters inherit these, so set them first.
	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight

	// ========================
	// Health Endpoints
	// ========================
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// ========================
	// Discovery API
	// ========================
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)

		// WebSocket upgrades must not pass through the compressor
		r.With(router.chiMiddleware.RateLimitWebSocket()).Get("/sessions/{id}/ws", router.handler.SessionWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Compress(compressionLevel, "application/json"))

			r.With(router.chiMiddleware.RateLimitWrite()).Post("/sessions", router.handler.CreateSession)
			r.Get("/sessions/{id}", router.handler.GetSession)
			r.With(router.chiMiddleware.RateLimitWrite()).Delete("/sessions/{id}", router.handler.DeleteSession)
			r.Post("/sessions/{id}/refresh", router.handler.RefreshSession)
			r.Post("/sessions/{id}/more", router.handler.LoadMore)
			r.Post("/sessions/{id}/retry", router.handler.RetrySession)
			r.Get("/sessions/{id}/venues/{venueID}", router.handler.SessionVenue)

			r.Get("/venues", router.handler.ListVenues)
			r.Get("/venues/{id}", router.handler.GetVenue)
		})
	})

	// ========================
	// Prometheus Metrics
	// ========================
	r.Handle("/metrics", promhttp.Handler())

	return r
}
