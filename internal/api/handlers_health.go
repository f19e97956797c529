// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package api

import (
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/venuescout/internal/models"
)

// HealthStatus is the body of GET /api/v1/health.
type HealthStatus struct {
	Status         string  `json:"status"`
	Version        string  `json:"version"`
	SourceKind     string  `json:"sourceKind,omitempty"`
	BreakerState   string  `json:"breakerState,omitempty"`
	ActiveSessions int     `json:"activeSessions"`
	WSClients      int     `json:"wsClients"`
	CachedDetails  int     `json:"cachedDetails"`
	CachedPages    int     `json:"cachedPages"`
	PageHitRate    float64 `json:"pageHitRate"`
	Uptime         float64 `json:"uptime"`
}

// Health reports service status. An open breaker makes the service
// degraded, never down: sessions keep their items and can retry.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := HealthStatus{
		Status:  "healthy",
		Version: h.version,
		Uptime:  time.Since(h.startTime).Seconds(),
	}
	if h.config != nil {
		status.SourceKind = h.config.Source.Kind
	}
	if h.breaker != nil {
		state := h.breaker.State()
		status.BreakerState = state.String()
		if state == gobreaker.StateOpen {
			status.Status = "degraded"
		}
	}
	if h.registry != nil {
		status.ActiveSessions = h.registry.Len()
	}
	if h.wsHub != nil {
		status.WSClients = h.wsHub.GetClientCount()
	}
	if h.venues != nil {
		stats := h.venues.Stats()
		status.CachedDetails = stats.DetailEntries
		status.CachedPages = stats.PageEntries
		status.PageHitRate = stats.PageHitRate
	}

	respondJSON(w, http.StatusOK, success(status, start))
}

// HealthLive returns 200 while the process is alive.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	}, time.Now()))
}

// HealthReady returns 503 while the source breaker is open.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.breaker != nil && h.breaker.State() == gobreaker.StateOpen {
		w.Header().Set("Retry-After", retryAfterSeconds)
		respondError(w, http.StatusServiceUnavailable, models.ErrCodeServiceUnavailable, "Venue source circuit open", nil)
		return
	}
	respondJSON(w, http.StatusOK, success(map[string]interface{}{
		"ready": true,
	}, time.Now()))
}
