// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package models

// ScoredVenue is a summary annotated with its preference score.
type ScoredVenue struct {
	Venue             VenueSummary `json:"venue"`
	Score             float64      `json:"score"`
	MatchedDimensions []string     `json:"matchedDimensions"`
}

// FeedPage is one ranked page of the discovery feed. Cursor is the cursor that
// produced the page; NextCursor is empty when HasMore is false.
type FeedPage struct {
	Items      []ScoredVenue `json:"items"`
	Cursor     string        `json:"cursor"`
	NextCursor string        `json:"nextCursor,omitempty"`
	HasMore    bool          `json:"hasMore"`
}

// FeedStatus is the lifecycle state of a discovery session.
type FeedStatus string

// Feed states.
const (
	FeedIdle           FeedStatus = "idle"
	FeedLoadingInitial FeedStatus = "loading_initial"
	FeedRefreshing     FeedStatus = "refreshing"
	FeedLoadingMore    FeedStatus = "loading_more"
	FeedExhausted      FeedStatus = "exhausted"
	FeedFailed         FeedStatus = "failed"
)

// Loading reports whether a list fetch is in flight in this state.
func (s FeedStatus) Loading() bool {
	return s == FeedLoadingInitial || s == FeedRefreshing || s == FeedLoadingMore
}
