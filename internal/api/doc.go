// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

/*
Package api is the HTTP and WebSocket front of the discovery feed.

It is a thin transport: every endpoint maps onto a feed.Controller operation
or a VenueCache lookup and answers with the models.APIResponse envelope.

# Endpoints

Sessions (one per opened discovery view):

	POST   /api/v1/sessions                    survey answers -> session, first page loaded
	GET    /api/v1/sessions/{id}               current snapshot
	DELETE /api/v1/sessions/{id}               discard the session
	POST   /api/v1/sessions/{id}/refresh       reload from the first page
	POST   /api/v1/sessions/{id}/more          load the next page
	POST   /api/v1/sessions/{id}/retry         repeat the failed fetch
	GET    /api/v1/sessions/{id}/venues/{vid}  venue detail through the session
	GET    /api/v1/sessions/{id}/ws            snapshot stream (WebSocket)

Venues (the Venue Source contract, so one server can feed another):

	GET /api/v1/venues?cursor=&type=&atmosphere=&music=&budget=&location=
	GET /api/v1/venues/{id}

Operations:

	GET /api/v1/health, /api/v1/health/live, /api/v1/health/ready
	GET /metrics

# Errors

Source and session failures map onto stable codes:

	VENUE_NOT_FOUND      404  the venue id does not exist
	SESSION_NOT_FOUND    404  unknown, evicted or deleted session
	INVALID_CURSOR       400  cursor not issued by the source
	VALIDATION_ERROR     400  survey or query parameters rejected
	SOURCE_UNAVAILABLE   503  transient, retry later (Retry-After set)
	TOO_MANY_SESSIONS    503  session registry full

A failed list fetch is not an HTTP error: the session moves to "failed",
keeps its items, and the snapshot carries lastError and errorKind.
*/
package api
