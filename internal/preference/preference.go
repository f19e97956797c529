// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

// Package preference turns raw survey answers into the immutable preference
// vector that drives a discovery session.
package preference

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tomtom215/venuescout/internal/models"
	"github.com/tomtom215/venuescout/internal/validation"
)

// Survey defaults and bounds.
const (
	DefaultBudget    = 50
	DefaultGroupSize = 2
	MinBudget        = 1
	MinGroupSize     = 1
)

// ErrValidation marks a survey with missing or unrecognised required facets.
var ErrValidation = errors.New("preference validation failed")

// RawAnswers is the survey submission as entered by the user.
type RawAnswers struct {
	VenueType       string  `json:"venueType" validate:"required,venuetype"`
	Atmosphere      string  `json:"atmosphere" validate:"required,atmosphere"`
	Music           string  `json:"music" validate:"required,music"`
	Budget          float64 `json:"budget"`
	GroupSize       int     `json:"groupSize"`
	Location        string  `json:"location" validate:"required"`
	FoodRequired    bool    `json:"foodRequired"`
	AdditionalNotes string  `json:"additionalNotes" validate:"max=1000"`
}

// DefaultAnswers returns the survey's initial state. Decode a submission on
// top of it so omitted numeric fields keep their defaults.
func DefaultAnswers() RawAnswers {
	return RawAnswers{
		Music:     models.MusicNoPreference,
		Budget:    DefaultBudget,
		GroupSize: DefaultGroupSize,
	}
}

// Vector is a normalized preference set. Empty facets carry no preference;
// for Budget that is zero, which Build never produces. GroupSize,
// FoodRequired and Notes are informational and never scored.
type Vector struct {
	VenueType    models.VenueType  `json:"venueType,omitempty"`
	Atmosphere   models.Atmosphere `json:"atmosphere,omitempty"`
	Music        models.Music      `json:"music,omitempty"`
	Budget       float64           `json:"budget"`
	GroupSize    int               `json:"groupSize"`
	Location     string            `json:"location,omitempty"`
	FoodRequired bool              `json:"foodRequired"`
	Notes        string            `json:"notes,omitempty"`
}

// None returns the vector used when discovery opens without a survey. Every
// scored facet is empty, so ranking falls back to rating and distance.
func None() Vector {
	return Vector{GroupSize: MinGroupSize}
}

// IsEmpty reports whether no scored facet carries a preference.
func (v Vector) IsEmpty() bool {
	return v.VenueType == "" && v.Atmosphere == "" && v.Music == "" && v.Budget == 0 && v.Location == ""
}

// Key renders the scored facets as a stable string for cache keys.
// Informational fields are excluded because they never change a ranking.
func (v Vector) Key() string {
	return strings.Join([]string{
		string(v.VenueType),
		string(v.Atmosphere),
		string(v.Music),
		strconv.FormatFloat(v.Budget, 'f', -1, 64),
		strings.ToLower(v.Location),
	}, "|")
}

// ValidationError lists the required facets that were missing or invalid.
// Those facets are set to no preference in the vector returned alongside it.
type ValidationError struct {
	Fields []string
	cause  *validation.RequestValidationError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, e.cause.Error())
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// APIError renders the failure in the VALIDATION_ERROR envelope.
func (e *ValidationError) APIError() *models.APIError {
	return e.cause.ToAPIError()
}

// Build normalizes a survey submission. It always returns a usable vector;
// when required facets are missing or unrecognised it also returns a
// *ValidationError and those facets become no preference. Budget and group
// size below their minimum are clamped, never rejected.
func Build(raw RawAnswers) (Vector, error) {
	v := Vector{
		Budget:       raw.Budget,
		GroupSize:    raw.GroupSize,
		Location:     strings.TrimSpace(raw.Location),
		FoodRequired: raw.FoodRequired,
		Notes:        strings.TrimSpace(raw.AdditionalNotes),
	}
	if v.Budget < MinBudget {
		v.Budget = MinBudget
	}
	if v.GroupSize < MinGroupSize {
		v.GroupSize = MinGroupSize
	}

	// Parse errors are reported by ValidateStruct below; here they only
	// leave the facet empty.
	v.VenueType, _ = models.ParseVenueType(raw.VenueType)
	v.Atmosphere, _ = models.ParseAtmosphere(raw.Atmosphere)
	v.Music, _ = models.ParseMusic(raw.Music)

	raw.Location = v.Location
	if verr := validation.ValidateStruct(&raw); verr != nil {
		return v, &ValidationError{Fields: verr.Fields(), cause: verr}
	}
	return v, nil
}
