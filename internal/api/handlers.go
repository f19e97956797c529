// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/venuescout/internal/cache"
	"github.com/tomtom215/venuescout/internal/config"
	"github.com/tomtom215/venuescout/internal/feed"
	"github.com/tomtom215/venuescout/internal/logging"
	"github.com/tomtom215/venuescout/internal/source"
	ws "github.com/tomtom215/venuescout/internal/websocket"
)

// BreakerState reports the circuit breaker state for readiness checks.
// *source.BreakerSource satisfies it.
type BreakerState interface {
	State() gobreaker.State
}

// Deps are the collaborators of the HTTP handlers. Breaker and Hub are
// optional.
type Deps struct {
	Config   *config.Config
	Registry *feed.Registry
	Venues   *cache.VenueCache
	Source   source.Source
	Hub      *ws.Hub
	Breaker  BreakerState
	Version  string
}

// Handler serves the discovery API.
type Handler struct {
	config    *config.Config
	registry  *feed.Registry
	venues    *cache.VenueCache
	src       source.Source
	wsHub     *ws.Hub
	breaker   BreakerState
	version   string
	startTime time.Time
}

// NewHandler creates a new API handler
//
//nolint:gocritic // hugeParam: constructed once at startup
func NewHandler(deps Deps) *Handler {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	return &Handler{
		config:    deps.Config,
		registry:  deps.Registry,
		venues:    deps.Venues,
		src:       deps.Source,
		wsHub:     deps.Hub,
		breaker:   deps.Breaker,
		version:   version,
		startTime: time.Now(),
	}
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins. Requests
// without an Origin come from native clients; the API uses no cookies, so
// they carry no ambient credentials and are accepted.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if h.config == nil {
		return true
	}

	for _, allowedOrigin := range h.config.Security.CORSOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
