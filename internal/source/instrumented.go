// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package source

import (
	"context"
	"time"

	"github.com/tomtom215/venuescout/internal/metrics"
	"github.com/tomtom215/venuescout/internal/models"
	"github.com/tomtom215/venuescout/internal/preference"
)

// Instrumented records latency and error kinds of every call to the wrapped
// source under the given label.
type Instrumented struct {
	next  Source
	label string
}

// NewInstrumented wraps next.
func NewInstrumented(label string, next Source) *Instrumented {
	return &Instrumented{next: next, label: label}
}

func (s *Instrumented) ListVenues(ctx context.Context, prefs preference.Vector, cursor string) (ListResult, error) {
	start := time.Now()
	res, err := s.next.ListVenues(ctx, prefs, cursor)
	metrics.RecordSourceCall(s.label, "list", time.Since(start), Kind(err), err)
	return res, err
}

func (s *Instrumented) GetVenueDetail(ctx context.Context, id string) (models.VenueDetail, error) {
	start := time.Now()
	d, err := s.next.GetVenueDetail(ctx, id)
	metrics.RecordSourceCall(s.label, "detail", time.Since(start), Kind(err), err)
	return d, err
}

var _ Source = (*Instrumented)(nil)
