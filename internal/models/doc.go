// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

/*
Package models defines the venue records and feed types shared by every layer
of Venuescout.

Key Components:

  - VenueSummary / VenueDetail: list-level and full venue records
  - VenueType, Atmosphere, Music, PriceTier: closed facet enums
  - ScoredVenue / FeedPage / FeedStatus: the discovery feed contract
  - APIResponse: the HTTP response envelope

Facet enums use the zero value for "not stated" on venues and "no preference"
on the survey side. Parse functions accept display labels ("Café", "$$$") as
well as canonical values.

DistanceMiles and RenderStars are display helpers: the first orders venues by
their textual distance, the second renders a rating as star glyphs.
*/
package models
