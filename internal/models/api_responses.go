// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package models

import (
	"time"
)

// APIResponse is the envelope every HTTP endpoint answers with, including
// the router's own 404/405/429 responses.
//
// Status field values:
//   - "success": Data holds the payload (a session snapshot, a venue, a list)
//   - "error": Error holds the code and message; Data is null
//
// A failed list fetch inside a session is not an error response: the
// snapshot comes back with status "success" and the session's own status
// set to "failed". Error responses are reserved for requests that could not
// be served at all.
//
// Example session snapshot:
//
//	{
//	  "status": "success",
//	  "data": {"sessionId": "6f1c...", "status": "idle", "items": [...], "hasMore": true},
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z", "query_time_ms": 12}
//	}
//
// Example error:
//
//	{
//	  "status": "error",
//	  "data": null,
//	  "error": {
//	    "code": "VALIDATION_ERROR",
//	    "message": "venueType must be one of: cafe, restaurant, bar, club, lounge, pub",
//	    "details": {"field": "venueType", "tag": "venuetype", "value": "spaceship"}
//	  },
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response timing and cache information.
//
// QueryTimeMS is the handler time including any source fetch. Cached is set
// on venue detail responses served from the detail cache, fresh or stale.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError is a machine-readable error code plus a human message. Clients
// branch on Code; Message is for display and may change. Details carries
// the failing field (or a "fields" list) for VALIDATION_ERROR and is
// omitted otherwise.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Machine-readable error codes.
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeInvalidCursor      = "INVALID_CURSOR"
	ErrCodeSessionNotFound    = "SESSION_NOT_FOUND"
	ErrCodeTooManySessions    = "TOO_MANY_SESSIONS"
	ErrCodeVenueNotFound      = "VENUE_NOT_FOUND"
	ErrCodeSourceUnavailable  = "SOURCE_UNAVAILABLE"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeInternal           = "INTERNAL_ERROR"
)
