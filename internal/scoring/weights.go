// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package scoring

import (
	"fmt"
	"math"
)

// Facet names reported in ScoredVenue.MatchedDimensions.
const (
	FacetType       = "type"
	FacetAtmosphere = "atmosphere"
	FacetMusic      = "music"
	FacetBudget     = "budget"
	FacetLocation   = "location"
)

// Weights is the contribution of each facet to the final score. The five
// weights must sum to 1.
type Weights struct {
	Type       float64 `koanf:"type" json:"type"`
	Atmosphere float64 `koanf:"atmosphere" json:"atmosphere"`
	Music      float64 `koanf:"music" json:"music"`
	Budget     float64 `koanf:"budget" json:"budget"`
	Location   float64 `koanf:"location" json:"location"`
}

// DefaultWeights returns the standard facet weights.
func DefaultWeights() Weights {
	return Weights{
		Type:       0.30,
		Atmosphere: 0.25,
		Music:      0.15,
		Budget:     0.15,
		Location:   0.15,
	}
}

const weightTolerance = 1e-9

func (w Weights) sum() float64 {
	return w.Type + w.Atmosphere + w.Music + w.Budget + w.Location
}

// Validate rejects negative weights and weights that do not sum to 1.
func (w Weights) Validate() error {
	for name, v := range w.ToMap() {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("weight %s must be non-negative, got %v", name, v)
		}
	}
	if s := w.sum(); math.Abs(s-1) > weightTolerance {
		return fmt.Errorf("weights must sum to 1.0, got %v", s)
	}
	return nil
}

// ToMap returns the weights keyed by facet name.
func (w Weights) ToMap() map[string]float64 {
	return map[string]float64{
		FacetType:       w.Type,
		FacetAtmosphere: w.Atmosphere,
		FacetMusic:      w.Music,
		FacetBudget:     w.Budget,
		FacetLocation:   w.Location,
	}
}
