// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

/*
Package source defines the Venue Source contract consumed by the discovery
feed, plus the adapters Venuescout ships:

  - Catalog: in-memory catalog seeded from the embedded sample data
  - HTTPSource: REST client for a remote venue service, rate limited
  - BreakerSource: circuit breaker decorator for any Source
  - Instrumented: Prometheus decorator for any Source

Every adapter reports failures as ErrUnavailable (transient, retryable),
ErrNotFound (unknown venue id) or ErrInvalidCursor, wrapped with context.
*/
package source

import (
	"context"
	"errors"

	"github.com/tomtom215/venuescout/internal/models"
	"github.com/tomtom215/venuescout/internal/preference"
)

var (
	// ErrUnavailable is a transient source failure. Callers retry explicitly.
	ErrUnavailable = errors.New("venue source unavailable")

	// ErrNotFound means the requested venue id does not exist.
	ErrNotFound = errors.New("venue not found")

	// ErrInvalidCursor means the cursor was not issued by this source.
	ErrInvalidCursor = errors.New("invalid cursor")
)

// ListResult is one page of venue summaries. NextCursor is empty when
// HasMore is false.
type ListResult struct {
	Items      []models.VenueSummary `json:"items"`
	NextCursor string                `json:"nextCursor,omitempty"`
	HasMore    bool                  `json:"hasMore"`
}

// Source provides paginated venue summaries and venue details. An empty
// cursor requests the first page. Implementations may use prefs as a
// retrieval hint but ranking is always done by the caller.
type Source interface {
	ListVenues(ctx context.Context, prefs preference.Vector, cursor string) (ListResult, error)
	GetVenueDetail(ctx context.Context, id string) (models.VenueDetail, error)
}

// Kind classifies an error for metrics and HTTP mapping.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrInvalidCursor):
		return "invalid_cursor"
	default:
		return "other"
	}
}
