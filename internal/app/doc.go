// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

// Package app wires configuration into running components. It is shared by
// cmd/server and cmd/venuectl.
//
// Source stack, outermost first:
//
//	Instrumented (metrics) -> BreakerSource (optional) -> catalog | http | badger
//
// The server owns one source stack, one VenueCache, one scoring engine, the
// session registry and the WebSocket hub, all run under the supervisor tree.
package app
