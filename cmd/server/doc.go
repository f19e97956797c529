// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

// Command server runs the venue discovery API.
//
// # Startup
//
//  1. Configuration: defaults, then config.yaml, then environment (koanf)
//  2. Logging: zerolog, level and format from LOG_LEVEL / LOG_FORMAT
//  3. Venue source: catalog, http or badger, behind the circuit breaker
//  4. Venue cache, scoring engine, session registry, WebSocket hub
//  5. Supervisor tree: janitors, hub, HTTP server
//
// # Configuration
//
//	VENUE_SOURCE=catalog|http|badger
//	VENUE_SOURCE_URL=http://peer:8080/api/v1   # http kind
//	VENUE_STORE_PATH=/data/venues              # badger kind
//	HTTP_PORT=8080
//	CACHE_PAGE_TTL=60s
//	CACHE_DETAIL_STALE_AFTER=5m
//
// See internal/config for the full list.
//
// # Signals
//
// SIGINT and SIGTERM cancel the root context. In-flight requests drain
// within SHUTDOWN_TIMEOUT; WebSocket clients receive 1001 Going Away.
package main
