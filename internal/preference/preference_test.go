// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package preference

import (
	"errors"
	"testing"

	"github.com/tomtom215/venuescout/internal/models"
)

func completeAnswers() RawAnswers {
	a := DefaultAnswers()
	a.VenueType = "Bar"
	a.Atmosphere = "Elegant"
	a.Music = "Jazz"
	a.Budget = 150
	a.Location = " Downtown "
	a.AdditionalNotes = "anniversary"
	return a
}

func TestBuild_Complete(t *testing.T) {
	t.Parallel()

	v, err := Build(completeAnswers())
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}

	want := Vector{
		VenueType:  models.VenueTypeBar,
		Atmosphere: models.AtmosphereElegant,
		Music:      models.MusicJazz,
		Budget:     150,
		GroupSize:  DefaultGroupSize,
		Location:   "Downtown",
		Notes:      "anniversary",
	}
	if v != want {
		t.Errorf("Build() = %+v, want %+v", v, want)
	}
}

func TestBuild_MusicNoneMeansNoPreference(t *testing.T) {
	t.Parallel()

	a := completeAnswers()
	a.Music = models.MusicNoPreference
	v, err := Build(a)
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}
	if v.Music != "" {
		t.Errorf("Music = %q, want no preference", v.Music)
	}
}

func TestBuild_ClampsNumericFacets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		budget     float64
		groupSize  int
		wantBudget float64
		wantGroup  int
	}{
		{"zero values", 0, 0, MinBudget, MinGroupSize},
		{"negative values", -20, -3, MinBudget, MinGroupSize},
		{"fraction below one", 0.5, 1, MinBudget, 1},
		{"in range", 75, 6, 75, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a := completeAnswers()
			a.Budget = tt.budget
			a.GroupSize = tt.groupSize

			v, err := Build(a)
			if err != nil {
				t.Fatalf("clamping must not produce an error, got %v", err)
			}
			if v.Budget != tt.wantBudget || v.GroupSize != tt.wantGroup {
				t.Errorf("got budget=%v group=%d, want %v/%d", v.Budget, v.GroupSize, tt.wantBudget, tt.wantGroup)
			}
		})
	}
}

func TestBuild_MissingFacets(t *testing.T) {
	t.Parallel()

	a := completeAnswers()
	a.VenueType = ""
	a.Atmosphere = "gloomy"
	a.Location = "   "

	v, err := Build(a)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Build() error = %v, want ErrValidation", err)
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}
	wantFields := []string{"venueType", "atmosphere", "location"}
	if len(verr.Fields) != len(wantFields) {
		t.Fatalf("Fields = %v, want %v", verr.Fields, wantFields)
	}
	for i := range wantFields {
		if verr.Fields[i] != wantFields[i] {
			t.Errorf("Fields[%d] = %q, want %q", i, verr.Fields[i], wantFields[i])
		}
	}
	if verr.APIError().Code != "VALIDATION_ERROR" {
		t.Errorf("APIError().Code = %q", verr.APIError().Code)
	}

	// The recovered vector is still usable.
	if v.VenueType != "" || v.Atmosphere != "" || v.Location != "" {
		t.Errorf("invalid facets should be no preference, got %+v", v)
	}
	if v.Music != models.MusicJazz {
		t.Errorf("valid facet lost: Music = %q", v.Music)
	}
}

func TestBuild_Pure(t *testing.T) {
	t.Parallel()

	a := completeAnswers()
	v1, _ := Build(a)
	v2, _ := Build(a)
	if v1 != v2 {
		t.Errorf("Build() not deterministic: %+v vs %+v", v1, v2)
	}
	if a.Location != " Downtown " {
		t.Errorf("Build() mutated its input: %q", a.Location)
	}
}

func TestNone(t *testing.T) {
	t.Parallel()

	v := None()
	if !v.IsEmpty() {
		t.Errorf("None().IsEmpty() = false for %+v", v)
	}
	if v.Budget != 0 || v.GroupSize != MinGroupSize {
		t.Errorf("None() = %+v, want no budget and minimum group size", v)
	}

	built, _ := Build(completeAnswers())
	if built.IsEmpty() {
		t.Error("a completed survey must not be empty")
	}
}

func TestVectorKey(t *testing.T) {
	t.Parallel()

	a, _ := Build(completeAnswers())
	b := a
	b.GroupSize = 12
	b.Notes = "different notes"
	if a.Key() != b.Key() {
		t.Errorf("informational fields changed the key: %q vs %q", a.Key(), b.Key())
	}

	c := a
	c.Budget = 20
	if a.Key() == c.Key() {
		t.Error("budget change should change the key")
	}
}
