// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/venuescout/internal/logging"
	"github.com/tomtom215/venuescout/internal/metrics"
	"github.com/tomtom215/venuescout/internal/models"
	"github.com/tomtom215/venuescout/internal/preference"
)

// BreakerConfig tunes the circuit breaker around a source.
type BreakerConfig struct {
	Name         string
	MaxRequests  uint32        // probes allowed while half-open
	Interval     time.Duration // closed-state count reset period
	Timeout      time.Duration // open duration before half-open
	MinRequests  uint32        // requests before the ratio is considered
	FailureRatio float64
}

// DefaultBreakerConfig returns the breaker defaults: 3 half-open probes, a
// 1 minute window, 2 minutes open, tripping at 60% failures over at least
// 10 requests.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:         "venue-source",
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      2 * time.Minute,
		MinRequests:  10,
		FailureRatio: 0.6,
	}
}

// BreakerSource wraps a Source with a circuit breaker. Rejections surface as
// ErrUnavailable. ErrNotFound and ErrInvalidCursor are valid answers and never count as
// failures.
type BreakerSource struct {
	next Source
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

// NewBreakerSource wraps next.
func NewBreakerSource(next Source, cfg BreakerConfig) *BreakerSource {
	if cfg.Name == "" {
		cfg.Name = DefaultBreakerConfig().Name
	}
	name := cfg.Name

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			trip := ratio >= cfg.FailureRatio
			if trip {
				logging.Warn().
					Str("breaker", name).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", ratio*100).
					Msg("opening circuit")
			}
			return trip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isCallerError(err)
		},
	})

	return &BreakerSource{next: next, cb: cb, name: name}
}

// State returns the breaker's current state.
func (b *BreakerSource) State() gobreaker.State {
	return b.cb.State()
}

// ListVenues calls the wrapped source through the breaker.
func (b *BreakerSource) ListVenues(ctx context.Context, prefs preference.Vector, cursor string) (ListResult, error) {
	res, err := b.execute(func() (any, error) {
		return b.next.ListVenues(ctx, prefs, cursor)
	})
	if err != nil {
		return ListResult{}, err
	}
	return castResult[ListResult](res)
}

// GetVenueDetail calls the wrapped source through the breaker.
func (b *BreakerSource) GetVenueDetail(ctx context.Context, id string) (models.VenueDetail, error) {
	res, err := b.execute(func() (any, error) {
		return b.next.GetVenueDetail(ctx, id)
	})
	if err != nil {
		return models.VenueDetail{}, err
	}
	return castResult[models.VenueDetail](res)
}

func (b *BreakerSource) execute(fn func() (any, error)) (any, error) {
	res, err := b.cb.Execute(fn)
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
		return res, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		return nil, fmt.Errorf("%w: circuit %s: %w", ErrUnavailable, b.name, err)
	case isCallerError(err):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
		return nil, err
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(b.cb.Counts().ConsecutiveFailures))
		return nil, err
	}
}

// isCallerError reports answers that reflect the request, not the health of
// the source.
func isCallerError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidCursor)
}

func castResult[T any](res any) (T, error) {
	typed, ok := res.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", res)
	}
	return typed, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

var _ Source = (*BreakerSource)(nil)
