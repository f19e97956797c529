// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package models

import (
	"fmt"
	"strings"
)

// VenueType is the closed set of venue categories. The zero value means the
// facet is not stated (venue side) or carries no preference (survey side).
type VenueType string

// Venue types offered by the survey.
const (
	VenueTypeCafe       VenueType = "cafe"
	VenueTypeRestaurant VenueType = "restaurant"
	VenueTypeBar        VenueType = "bar"
	VenueTypeClub       VenueType = "club"
	VenueTypeLounge     VenueType = "lounge"
	VenueTypePub        VenueType = "pub"
)

// Atmosphere is the closed set of venue atmospheres.
type Atmosphere string

// Atmospheres offered by the survey.
const (
	AtmosphereCasual    Atmosphere = "casual"
	AtmosphereElegant   Atmosphere = "elegant"
	AtmosphereRomantic  Atmosphere = "romantic"
	AtmosphereEnergetic Atmosphere = "energetic"
	AtmosphereCozy      Atmosphere = "cozy"
	AtmosphereTrendy    Atmosphere = "trendy"
)

// Music is the closed set of music styles. The survey's "none" answer maps to
// the zero value.
type Music string

// Music styles offered by the survey.
const (
	MusicLive      Music = "live"
	MusicDJ        Music = "dj"
	MusicAcoustic  Music = "acoustic"
	MusicJazz      Music = "jazz"
	MusicRock      Music = "rock"
	MusicPop       Music = "pop"
	MusicClassical Music = "classical"
)

// MusicNoPreference is the survey answer that stands for "no preference".
const MusicNoPreference = "none"

var (
	venueTypes  = []VenueType{VenueTypeCafe, VenueTypeRestaurant, VenueTypeBar, VenueTypeClub, VenueTypeLounge, VenueTypePub}
	atmospheres = []Atmosphere{AtmosphereCasual, AtmosphereElegant, AtmosphereRomantic, AtmosphereEnergetic, AtmosphereCozy, AtmosphereTrendy}
	musicStyles = []Music{MusicLive, MusicDJ, MusicAcoustic, MusicJazz, MusicRock, MusicPop, MusicClassical}
)

// VenueTypes returns all venue types in survey order.
func VenueTypes() []VenueType { return append([]VenueType(nil), venueTypes...) }

// Atmospheres returns all atmospheres in survey order.
func Atmospheres() []Atmosphere { return append([]Atmosphere(nil), atmospheres...) }

// MusicStyles returns all music styles in survey order.
func MusicStyles() []Music { return append([]Music(nil), musicStyles...) }

// normalizeFacet lowercases, trims and folds the accented letters that appear
// in display labels ("Café").
func normalizeFacet(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("é", "e", "è", "e", "ê", "e").Replace(s)
}

// ParseVenueType maps a label or value to a VenueType. An empty input yields
// the zero value with no error.
func ParseVenueType(s string) (VenueType, error) {
	n := normalizeFacet(s)
	if n == "" {
		return "", nil
	}
	for _, v := range venueTypes {
		if string(v) == n {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown venue type %q", s)
}

// ParseAtmosphere maps a label or value to an Atmosphere.
func ParseAtmosphere(s string) (Atmosphere, error) {
	n := normalizeFacet(s)
	if n == "" {
		return "", nil
	}
	for _, a := range atmospheres {
		if string(a) == n {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown atmosphere %q", s)
}

// ParseMusic maps a label or value to a Music style. Both "" and "none"
// yield the zero value.
func ParseMusic(s string) (Music, error) {
	n := normalizeFacet(s)
	if n == "" || n == MusicNoPreference || n == "no preference" {
		return "", nil
	}
	for _, m := range musicStyles {
		if string(m) == n {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown music style %q", s)
}

// PriceTier is an ordinal price band from 1 ($) to 4 ($$$$). Zero means the
// venue did not publish a price.
type PriceTier int

// Price tiers.
const (
	PriceUnknown PriceTier = iota
	PriceBudget
	PriceModerate
	PriceUpscale
	PriceLuxury
)

// per-person spend midpoints, indexed by tier
var priceMidpoints = [...]float64{0, 15, 35, 75, 150}

// Midpoint returns the per-person spend midpoint used for budget fit.
func (p PriceTier) Midpoint() float64 {
	if !p.Valid() {
		return 0
	}
	return priceMidpoints[p]
}

// Valid reports whether p is one of the four published tiers.
func (p PriceTier) Valid() bool {
	return p >= PriceBudget && p <= PriceLuxury
}

// String renders the tier as dollar signs.
func (p PriceTier) String() string {
	if !p.Valid() {
		return ""
	}
	return strings.Repeat("$", int(p))
}

// ParsePriceTier parses "$".."$$$$". An empty string is PriceUnknown.
func ParsePriceTier(s string) (PriceTier, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return PriceUnknown, nil
	}
	if strings.Trim(s, "$") != "" || len(s) > int(PriceLuxury) {
		return PriceUnknown, fmt.Errorf("invalid price tier %q", s)
	}
	return PriceTier(len(s)), nil
}

// MarshalText encodes the tier as dollar signs.
func (p PriceTier) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a dollar-sign tier.
func (p *PriceTier) UnmarshalText(b []byte) error {
	t, err := ParsePriceTier(string(b))
	if err != nil {
		return err
	}
	*p = t
	return nil
}
