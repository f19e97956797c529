// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

// Package scoring ranks venue candidates against a preference vector.
//
// Each facet contributes its weight times a fit in [0,1]. A facet the user
// left empty contributes its full weight, so missing preferences never
// penalize a venue. The result is a total order over the candidates: score
// descending, then rating descending, then distance ascending, then id
// ascending.
package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/venuescout/internal/metrics"
	"github.com/tomtom215/venuescout/internal/models"
	"github.com/tomtom215/venuescout/internal/preference"
)

// scores are rounded to this precision so float summation order cannot
// change a tie-break.
const scorePrecision = 1e9

// Engine scores candidates with a fixed set of weights. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	weights Weights
	logger  zerolog.Logger
}

// NewEngine creates an engine. It fails when the weights do not sum to 1.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(weights Weights, logger zerolog.Logger) (*Engine, error) {
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring weights: %w", err)
	}
	return &Engine{
		weights: weights,
		logger:  logger.With().Str("component", "scoring").Logger(),
	}, nil
}

// MustNewEngine is NewEngine for weights known to be valid.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func MustNewEngine(weights Weights, logger zerolog.Logger) *Engine {
	e, err := NewEngine(weights, logger)
	if err != nil {
		panic(err)
	}
	return e
}

// Weights returns the engine's facet weights.
func (e *Engine) Weights() Weights {
	return e.weights
}

// Score ranks candidates against prefs. The input slice is not modified and
// the result has the same length.
func (e *Engine) Score(prefs preference.Vector, candidates []models.VenueSummary) []models.ScoredVenue {
	start := time.Now()

	scored := make([]models.ScoredVenue, len(candidates))
	distances := make(map[string]float64, len(candidates))
	for i := range candidates {
		scored[i] = e.scoreOne(prefs, candidates[i])
		distances[candidates[i].ID] = models.DistanceMiles(candidates[i].DistanceText)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := &scored[i], &scored[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Venue.Rating != b.Venue.Rating {
			return a.Venue.Rating > b.Venue.Rating
		}
		da, db := distances[a.Venue.ID], distances[b.Venue.ID]
		if da != db {
			return da < db
		}
		return a.Venue.ID < b.Venue.ID
	})

	metrics.RecordScoring(time.Since(start), len(candidates))
	if e.logger.GetLevel() <= zerolog.DebugLevel && len(scored) > 0 {
		e.logger.Debug().
			Int("candidates", len(scored)).
			Str("top_id", scored[0].Venue.ID).
			Float64("top_score", scored[0].Score).
			Msg("ranked candidates")
	}
	return scored
}

//nolint:gocritic // hugeParam: the summary is stored in the result
func (e *Engine) scoreOne(prefs preference.Vector, v models.VenueSummary) models.ScoredVenue {
	var matched []string
	total := 0.0

	// Only facets the user actually stated are reported as matched.
	add := func(facet string, stated bool, weight, fit float64) {
		total += weight * fit
		if stated && fit >= 1 {
			matched = append(matched, facet)
		}
	}

	add(FacetType, prefs.VenueType != "", e.weights.Type, enumFit(string(prefs.VenueType), string(v.Type)))
	add(FacetAtmosphere, prefs.Atmosphere != "", e.weights.Atmosphere, enumFit(string(prefs.Atmosphere), string(v.Atmosphere)))
	add(FacetMusic, prefs.Music != "", e.weights.Music, enumFit(string(prefs.Music), string(v.Music)))
	add(FacetBudget, prefs.Budget > 0, e.weights.Budget, BudgetFit(prefs.Budget, v.PriceTier))
	add(FacetLocation, prefs.Location != "", e.weights.Location, locationFit(prefs.Location, &v))

	sort.Strings(matched)
	if matched == nil {
		matched = []string{}
	}
	return models.ScoredVenue{
		Venue:             v,
		Score:             clampScore(total),
		MatchedDimensions: matched,
	}
}

// enumFit is 1 when there is no preference or the values match.
func enumFit(pref, venue string) float64 {
	if pref == "" || pref == venue {
		return 1
	}
	return 0
}

// BudgetFit is 1 when the tier midpoint is within budget and decays linearly
// to 0 at twice the budget. A zero budget (no preference) or a venue without
// a published tier fits fully.
func BudgetFit(budget float64, tier models.PriceTier) float64 {
	if !tier.Valid() || budget <= 0 {
		return 1
	}
	mid := tier.Midpoint()
	switch {
	case mid <= budget:
		return 1
	case mid >= 2*budget:
		return 0
	default:
		return (2*budget - mid) / budget
	}
}

func locationFit(loc string, v *models.VenueSummary) float64 {
	if loc == "" {
		return 1
	}
	needle := strings.ToLower(loc)
	for _, hay := range []string{v.Address, v.ShortDescription, v.Name} {
		if strings.Contains(strings.ToLower(hay), needle) {
			return 1
		}
	}
	return 0
}

func clampScore(s float64) float64 {
	s = math.Round(s*scorePrecision) / scorePrecision
	return math.Max(0, math.Min(1, s))
}
