// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/venuescout/internal/feed"
	"github.com/tomtom215/venuescout/internal/logging"
	"github.com/tomtom215/venuescout/internal/models"
	"github.com/tomtom215/venuescout/internal/preference"
	ws "github.com/tomtom215/venuescout/internal/websocket"
)

// SessionView is a session snapshot plus the preferences ranking it.
type SessionView struct {
	feed.Snapshot
	Preferences preference.Vector `json:"preferences"`
}

func sessionView(c *feed.Controller, snap feed.Snapshot) SessionView {
	return SessionView{Snapshot: snap, Preferences: c.Preferences()}
}

// CreateSession opens a discovery session and loads its first page.
//
// The body is a survey submission; omitted fields keep the survey defaults.
// An empty body opens a session with no preferences. A survey with missing
// or unrecognised required facets is rejected unless ?partial=true, in
// which case those facets carry no preference.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := readBody(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, models.ErrCodeBadRequest, "Request body too large", nil)
			return
		}
		respondError(w, http.StatusBadRequest, models.ErrCodeBadRequest, "Failed to read request body", nil)
		return
	}

	prefs := preference.None()
	if len(bytes.TrimSpace(body)) > 0 {
		raw := preference.DefaultAnswers()
		if err := json.Unmarshal(body, &raw); err != nil {
			respondError(w, http.StatusBadRequest, models.ErrCodeBadRequest, "Invalid request body", nil)
			return
		}
		prefs, err = preference.Build(raw)
		var verr *preference.ValidationError
		if errors.As(err, &verr) && !getBoolParam(r, "partial") {
			respondAPIError(w, http.StatusBadRequest, verr.APIError(), nil)
			return
		}
	}

	ctl, err := h.registry.Create(prefs)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	ctx := logging.ContextWithSessionID(r.Context(), ctl.ID())
	snap, err := ctl.LoadInitial(ctx)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	logging.Ctx(ctx).Info().
		Str("status", string(snap.Status)).
		Int("items", len(snap.Items)).
		Bool("preferences", !prefs.IsEmpty()).
		Msg("Discovery session created")

	w.Header().Set("Location", "/api/v1/sessions/"+ctl.ID())
	respondJSON(w, http.StatusCreated, success(sessionView(ctl, snap), start))
}

// session resolves the {id} route parameter.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*feed.Controller, bool) {
	ctl, err := h.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, r, err)
		return nil, false
	}
	return ctl, true
}

// GetSession returns the current snapshot without fetching.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctl, ok := h.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, success(sessionView(ctl, ctl.Snapshot()), start))
}

// DeleteSession closes the session and any WebSocket streaming it.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.registry.Remove(id) {
		respondDomainError(w, r, feed.ErrSessionNotFound)
		return
	}
	if h.wsHub != nil {
		h.wsHub.CloseSession(id)
	}
	w.WriteHeader(http.StatusNoContent)
}

// RefreshSession reloads the feed from the first page.
func (h *Handler) RefreshSession(w http.ResponseWriter, r *http.Request) {
	h.sessionOp(w, r, (*feed.Controller).Refresh)
}

// LoadMore appends the next page. It is a no-op while a fetch is in flight
// or the feed is exhausted.
func (h *Handler) LoadMore(w http.ResponseWriter, r *http.Request) {
	h.sessionOp(w, r, (*feed.Controller).LoadMore)
}

// RetrySession repeats the fetch that failed.
func (h *Handler) RetrySession(w http.ResponseWriter, r *http.Request) {
	h.sessionOp(w, r, (*feed.Controller).Retry)
}

// sessionOp runs a feed operation and answers with the resulting snapshot.
// A failed fetch is reported inside the snapshot with status 200.
func (h *Handler) sessionOp(w http.ResponseWriter, r *http.Request, op func(*feed.Controller, context.Context) (feed.Snapshot, error)) {
	start := time.Now()
	ctl, ok := h.session(w, r)
	if !ok {
		return
	}
	ctx := logging.ContextWithSessionID(r.Context(), ctl.ID())
	snap, err := op(ctl, ctx)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, success(sessionView(ctl, snap), start))
}

// SessionVenue returns a venue detail through the session's cache.
func (h *Handler) SessionVenue(w http.ResponseWriter, r *http.Request) {
	ctl, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respondVenue(w, r, chi.URLParam(r, "venueID"), ctl.GetDetail)
}

// SessionWebSocket upgrades to a snapshot stream for the session. See the
// websocket package for the message protocol.
func (h *Handler) SessionWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		logging.Warn().Msg("WebSocket connection rejected: hub not initialized")
		respondError(w, http.StatusServiceUnavailable, models.ErrCodeServiceUnavailable, "WebSocket service unavailable", nil)
		return
	}
	ctl, ok := h.session(w, r)
	if !ok {
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("WebSocket upgrade error")
		return
	}

	client := ws.NewClient(h.wsHub, conn, ctl)
	if !client.Start() {
		logging.Debug().Str("session_id", ctl.ID()).Msg("WebSocket rejected during shutdown")
	}
}
