// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package models

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// VenueSummary is the list-level record of a venue as returned by a venue
// source. Type, Atmosphere and Music may be empty when the source does not
// state them.
type VenueSummary struct {
	ID               string     `json:"id" validate:"required"`
	Name             string     `json:"name" validate:"required"`
	Type             VenueType  `json:"type,omitempty"`
	Atmosphere       Atmosphere `json:"atmosphere,omitempty"`
	Music            Music      `json:"music,omitempty"`
	PriceTier        PriceTier  `json:"priceTier"`
	Rating           float64    `json:"rating" validate:"gte=0,lte=5"`
	DistanceText     string     `json:"distanceText"`
	ShortDescription string     `json:"shortDescription"`
	ThumbnailRef     string     `json:"thumbnailRef,omitempty"`
	Address          string     `json:"address,omitempty"`
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Review is a single user review on a venue detail page.
type Review struct {
	Author string  `json:"author"`
	Rating float64 `json:"rating"`
	Date   string  `json:"date"`
	Text   string  `json:"text"`
}

// VenueDetail is the full record of a venue. It embeds the summary so any
// detail can stand in for its list entry.
type VenueDetail struct {
	VenueSummary
	Description  string      `json:"description,omitempty"`
	Gallery      []string    `json:"gallery"`
	Coordinates  Coordinates `json:"coordinates"`
	ContactPhone string      `json:"contactPhone"`
	Website      string      `json:"website"`
	HoursByDay   []string    `json:"hoursByDay"`
	Amenities    []string    `json:"amenities"`
	Reviews      []Review    `json:"reviews"`
}

// Clone returns a deep copy, so cached records can be handed out without
// sharing slices.
func (d *VenueDetail) Clone() VenueDetail {
	out := *d
	out.Gallery = append([]string{}, d.Gallery...)
	out.HoursByDay = append([]string{}, d.HoursByDay...)
	out.Amenities = append([]string{}, d.Amenities...)
	out.Reviews = append([]Review{}, d.Reviews...)
	return out
}

// Summary returns the list-level view of the detail.
func (d *VenueDetail) Summary() VenueSummary {
	return d.VenueSummary
}

// NormalizeAmenities returns the amenities as a sorted set with blanks removed.
func NormalizeAmenities(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, a := range in {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// DistanceMiles converts a display distance such as "0.3 mi", "1.2 km" or
// "800 m" to miles. Text that cannot be parsed yields +Inf so it sorts after
// every known distance.
func DistanceMiles(text string) float64 {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(text)))
	if len(fields) == 0 {
		return math.Inf(1)
	}

	num, unit := fields[0], ""
	if len(fields) > 1 {
		unit = fields[1]
	} else {
		// "0.3mi" style
		i := strings.IndexFunc(num, func(r rune) bool { return (r < '0' || r > '9') && r != '.' })
		if i > 0 {
			num, unit = num[:i], num[i:]
		}
	}

	v, err := strconv.ParseFloat(num, 64)
	if err != nil || v < 0 || math.IsNaN(v) {
		return math.Inf(1)
	}

	switch unit {
	case "", "mi", "mile", "miles":
		return v
	case "km", "kilometer", "kilometers", "kilometre", "kilometres":
		return v * 0.621371
	case "m", "meter", "meters", "metre", "metres":
		return v * 0.000621371
	case "ft", "feet":
		return v / 5280
	default:
		return math.Inf(1)
	}
}

// RenderStars renders a 0..5 rating as five glyphs of full, half and empty
// stars, e.g. 4.5 -> "★★★★½".
func RenderStars(rating float64) string {
	if rating < 0 || math.IsNaN(rating) {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	full := int(math.Floor(rating))
	half := rating-float64(full) >= 0.5

	var b strings.Builder
	b.WriteString(strings.Repeat("★", full))
	slots := full
	if half {
		b.WriteString("½")
		slots++
	}
	b.WriteString(strings.Repeat("☆", 5-slots))
	return b.String()
}
