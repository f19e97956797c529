// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/venuescout/internal/feed"
	"github.com/tomtom215/venuescout/internal/logging"
	"github.com/tomtom215/venuescout/internal/models"
	"github.com/tomtom215/venuescout/internal/source"
)

// retryAfterSeconds is advertised on SOURCE_UNAVAILABLE responses.
const retryAfterSeconds = "5"

// respondDomainError maps feed, cache and source errors onto the envelope.
// A request whose client went away gets no body.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, context.Canceled) && r.Context().Err() != nil:
		logging.Ctx(r.Context()).Debug().Err(err).Msg("client went away")
	case errors.Is(err, feed.ErrSessionNotFound), errors.Is(err, feed.ErrSessionClosed):
		respondError(w, http.StatusNotFound, models.ErrCodeSessionNotFound, "Session not found", nil)
	case errors.Is(err, feed.ErrTooManySessions):
		respondError(w, http.StatusServiceUnavailable, models.ErrCodeTooManySessions, "Too many open sessions", err)
	case errors.Is(err, source.ErrNotFound):
		respondError(w, http.StatusNotFound, models.ErrCodeVenueNotFound, "Venue not found", nil)
	case errors.Is(err, source.ErrInvalidCursor):
		respondError(w, http.StatusBadRequest, models.ErrCodeInvalidCursor, "Invalid cursor", nil)
	case errors.Is(err, source.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		w.Header().Set("Retry-After", retryAfterSeconds)
		respondError(w, http.StatusServiceUnavailable, models.ErrCodeSourceUnavailable, "Venue source unavailable", err)
	default:
		respondError(w, http.StatusInternalServerError, models.ErrCodeInternal, "Internal server error", err)
	}
}
