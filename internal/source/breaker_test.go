// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package source

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/venuescout/internal/metrics"
	"github.com/tomtom215/venuescout/internal/models"
	"github.com/tomtom215/venuescout/internal/preference"
)

// flakySource fails every call with err while err is set.
type flakySource struct {
	calls atomic.Int32
	err   error
}

func (f *flakySource) ListVenues(_ context.Context, _ preference.Vector, _ string) (ListResult, error) {
	f.calls.Add(1)
	if f.err != nil {
		return ListResult{}, f.err
	}
	return ListResult{Items: []models.VenueSummary{{ID: "1", Name: "a"}}}, nil
}

func (f *flakySource) GetVenueDetail(_ context.Context, id string) (models.VenueDetail, error) {
	f.calls.Add(1)
	if f.err != nil {
		return models.VenueDetail{}, f.err
	}
	return models.VenueDetail{VenueSummary: models.VenueSummary{ID: id, Name: "a"}}, nil
}

func testBreakerConfig(name string) BreakerConfig {
	cfg := DefaultBreakerConfig()
	cfg.Name = name
	cfg.MinRequests = 3
	cfg.Timeout = time.Hour
	return cfg
}

func TestBreakerSource_PassThrough(t *testing.T) {
	t.Parallel()

	b := NewBreakerSource(&flakySource{}, testBreakerConfig("test-pass"))
	res, err := b.ListVenues(context.Background(), preference.None(), "")
	if err != nil || len(res.Items) != 1 {
		t.Fatalf("ListVenues = %+v, %v", res, err)
	}
	d, err := b.GetVenueDetail(context.Background(), "7")
	if err != nil || d.ID != "7" {
		t.Fatalf("GetVenueDetail = %+v, %v", d, err)
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerRequests.WithLabelValues("test-pass", "success")); got != 2 {
		t.Errorf("success count = %v, want 2", got)
	}
}

func TestBreakerSource_OpensAndRejects(t *testing.T) {
	t.Parallel()

	src := &flakySource{err: fmt.Errorf("%w: boom", ErrUnavailable)}
	b := NewBreakerSource(src, testBreakerConfig("test-open"))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := b.ListVenues(ctx, preference.None(), ""); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("call %d: error = %v", i, err)
		}
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("State() = %v, want open", b.State())
	}

	_, err := b.GetVenueDetail(ctx, "1")
	if !errors.Is(err, ErrUnavailable) || !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("rejected call error = %v", err)
	}
	if src.calls.Load() != 3 {
		t.Errorf("source calls = %d, want 3 (open circuit must not call through)", src.calls.Load())
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("test-open")); got != 2 {
		t.Errorf("state gauge = %v, want 2", got)
	}
}

func TestBreakerSource_NotFoundIsNotAFailure(t *testing.T) {
	t.Parallel()

	src := &flakySource{err: fmt.Errorf("venue %q: %w", "9", ErrNotFound)}
	b := NewBreakerSource(src, testBreakerConfig("test-notfound"))

	for i := 0; i < 10; i++ {
		if _, err := b.GetVenueDetail(context.Background(), "9"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("call %d: error = %v, want ErrNotFound", i, err)
		}
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("State() = %v, want closed", b.State())
	}
}

func TestInstrumented(t *testing.T) {
	t.Parallel()

	s := NewInstrumented("test-instrumented", &flakySource{err: ErrNotFound})
	_, _ = s.GetVenueDetail(context.Background(), "1")

	got := testutil.ToFloat64(metrics.SourceRequestErrors.WithLabelValues("test-instrumented", "detail", "not_found"))
	if got != 1 {
		t.Errorf("not_found errors = %v, want 1", got)
	}
}
