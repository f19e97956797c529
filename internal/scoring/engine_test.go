// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package scoring

import (
	"context"
	"io"
	"math"
	"reflect"
	"testing"

	"github.com/tomtom215/venuescout/internal/logging"
	"github.com/tomtom215/venuescout/internal/models"
	"github.com/tomtom215/venuescout/internal/preference"
	"github.com/tomtom215/venuescout/internal/source"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultWeights(), logging.NewTestLogger(io.Discard))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func sampleSummaries(t *testing.T) []models.VenueSummary {
	t.Helper()
	var out []models.VenueSummary
	c := source.SampleCatalog()
	cursor := ""
	for {
		res, err := c.ListVenues(context.Background(), preference.None(), cursor)
		if err != nil {
			t.Fatalf("ListVenues: %v", err)
		}
		out = append(out, res.Items...)
		if !res.HasMore {
			return out
		}
		cursor = res.NextCursor
	}
}

func ids(scored []models.ScoredVenue) []string {
	out := make([]string, len(scored))
	for i := range scored {
		out[i] = scored[i].Venue.ID
	}
	return out
}

func TestWeights(t *testing.T) {
	t.Parallel()

	if err := DefaultWeights().Validate(); err != nil {
		t.Fatalf("default weights invalid: %v", err)
	}

	bad := DefaultWeights()
	bad.Type = 0.5
	if err := bad.Validate(); err == nil {
		t.Error("weights summing to 1.2 should be rejected")
	}
	if _, err := NewEngine(bad, logging.NewTestLogger(io.Discard)); err == nil {
		t.Error("NewEngine should reject invalid weights")
	}

	neg := Weights{Type: 1.15, Atmosphere: -0.15}
	if err := neg.Validate(); err == nil {
		t.Error("negative weight should be rejected")
	}
}

func TestBudgetFit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		budget float64
		tier   models.PriceTier
		want   float64
	}{
		{"midpoint under budget", 50, models.PriceModerate, 1},
		{"midpoint equals budget", 75, models.PriceUpscale, 1},
		{"halfway to double", 50, models.PriceUpscale, 0.5},
		{"at double budget", 75, models.PriceLuxury, 0},
		{"beyond double budget", 10, models.PriceLuxury, 0},
		{"no price published", 10, models.PriceUnknown, 1},
		{"no budget preference", 0, models.PriceLuxury, 1},
	}

	for _, tt := range tests {
		if got := BudgetFit(tt.budget, tt.tier); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("%s: BudgetFit(%v, %v) = %v, want %v", tt.name, tt.budget, tt.tier, got, tt.want)
		}
	}
}

func TestScore_FacetContributions(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	venue := models.VenueSummary{
		ID: "x", Name: "Test Hall", Type: models.VenueTypeBar, Atmosphere: models.AtmosphereCozy,
		Music: models.MusicRock, PriceTier: models.PriceUpscale, Rating: 4,
		ShortDescription: "Right in the Mission district", DistanceText: "1 mi",
	}

	tests := []struct {
		name        string
		prefs       preference.Vector
		wantScore   float64
		wantMatched []string
	}{
		{
			name:        "everything matches",
			prefs:       preference.Vector{VenueType: models.VenueTypeBar, Atmosphere: models.AtmosphereCozy, Music: models.MusicRock, Budget: 100, Location: "mission"},
			wantScore:   1,
			wantMatched: []string{"atmosphere", "budget", "location", "music", "type"},
		},
		{
			name:        "type mismatch loses 0.30",
			prefs:       preference.Vector{VenueType: models.VenueTypeCafe, Atmosphere: models.AtmosphereCozy, Music: models.MusicRock, Budget: 100, Location: "mission"},
			wantScore:   0.70,
			wantMatched: []string{"atmosphere", "budget", "location", "music"},
		},
		{
			name:        "partial budget fit",
			prefs:       preference.Vector{Budget: 50},
			wantScore:   0.85 + 0.15*0.5,
			wantMatched: []string{},
		},
		{
			name:        "location miss",
			prefs:       preference.Vector{Location: "Brooklyn"},
			wantScore:   0.85,
			wantMatched: []string{},
		},
		{
			name:        "nothing matches",
			prefs:       preference.Vector{VenueType: models.VenueTypeCafe, Atmosphere: models.AtmosphereElegant, Music: models.MusicJazz, Budget: 10, Location: "Brooklyn"},
			wantScore:   0,
			wantMatched: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := e.Score(tt.prefs, []models.VenueSummary{venue})
			if len(got) != 1 {
				t.Fatalf("len = %d", len(got))
			}
			if math.Abs(got[0].Score-tt.wantScore) > 1e-9 {
				t.Errorf("Score = %v, want %v", got[0].Score, tt.wantScore)
			}
			if !reflect.DeepEqual(got[0].MatchedDimensions, tt.wantMatched) {
				t.Errorf("MatchedDimensions = %v, want %v", got[0].MatchedDimensions, tt.wantMatched)
			}
		})
	}
}

func TestScore_NoPreferenceBaseline(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	prefs := preference.None()

	for _, v := range sampleSummaries(t) {
		got := e.Score(prefs, []models.VenueSummary{v})
		if got[0].Score != 1 {
			t.Errorf("venue %s: baseline score = %v, want 1", v.ID, got[0].Score)
		}
	}

	odd := models.VenueSummary{ID: "z", Name: "Unknown", DistanceText: "far away"}
	if got := e.Score(prefs, []models.VenueSummary{odd}); got[0].Score != 1 {
		t.Errorf("venue without facets: baseline = %v, want 1", got[0].Score)
	}
}

func TestScore_NoPreferenceOrdersByRatingThenDistance(t *testing.T) {
	t.Parallel()

	got := ids(newTestEngine(t).Score(preference.None(), sampleSummaries(t)))
	// ratings 4.8, 4.7, 4.6, 4.5, 4.4, 4.3, 4.2, 4.1
	want := []string{"2", "4", "7", "1", "5", "8", "3", "6"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestScore_TieBreaks(t *testing.T) {
	t.Parallel()

	candidates := []models.VenueSummary{
		{ID: "d", Name: "d", Rating: 4.0, DistanceText: "unknown"},
		{ID: "c", Name: "c", Rating: 4.0, DistanceText: "0.5 mi"},
		{ID: "b", Name: "b", Rating: 4.0, DistanceText: "0.5 mi"},
		{ID: "a", Name: "a", Rating: 4.5, DistanceText: "3 mi"},
		{ID: "e", Name: "e", Rating: 4.0, DistanceText: "800 m"},
	}

	got := ids(newTestEngine(t).Score(preference.None(), candidates))
	// rating first, then distance (800 m < 0.5 mi), then id, unknown distance last
	want := []string{"a", "e", "b", "c", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestScore_DeterministicAndPure(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	input := sampleSummaries(t)
	snapshot := append([]models.VenueSummary(nil), input...)
	prefs := preference.Vector{Atmosphere: models.AtmosphereCozy, Budget: 40}

	first := e.Score(prefs, input)
	for i := 0; i < 20; i++ {
		again := e.Score(prefs, input)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs", i)
		}
	}
	if !reflect.DeepEqual(input, snapshot) {
		t.Error("Score mutated its input")
	}
	if len(first) != len(input) {
		t.Errorf("len = %d, want %d", len(first), len(input))
	}

	// reversed input must give the same order
	reversed := make([]models.VenueSummary, len(input))
	for i := range input {
		reversed[len(input)-1-i] = input[i]
	}
	if !reflect.DeepEqual(ids(first), ids(e.Score(prefs, reversed))) {
		t.Error("order depends on input order")
	}
}

func TestScore_Empty(t *testing.T) {
	t.Parallel()

	if got := newTestEngine(t).Score(preference.None(), nil); len(got) != 0 {
		t.Errorf("Score(nil) = %v", got)
	}
}

func TestScore_SpeakeasyOutranksUrbanCoffee(t *testing.T) {
	t.Parallel()

	prefs, err := preference.Build(preference.RawAnswers{
		VenueType:  "bar",
		Atmosphere: "elegant",
		Music:      "jazz",
		Budget:     150,
		GroupSize:  2,
	})
	// location is left empty on purpose; the vector is still usable
	if err == nil {
		t.Fatal("expected a validation error for the empty location")
	}

	ranked := newTestEngine(t).Score(prefs, sampleSummaries(t))
	pos := map[string]int{}
	for i := range ranked {
		pos[ranked[i].Venue.Name] = i
	}

	if pos["The Speakeasy"] >= pos["Urban Coffee"] {
		t.Errorf("The Speakeasy at %d, Urban Coffee at %d", pos["The Speakeasy"], pos["Urban Coffee"])
	}
	if ranked[0].Venue.Name != "The Speakeasy" || ranked[0].Score != 1 {
		t.Errorf("top = %s (%v), want The Speakeasy (1)", ranked[0].Venue.Name, ranked[0].Score)
	}
}
