// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

/*
Package middleware provides the HTTP middleware Venuescout adds on top of the
chi ecosystem.

Key Components:

  - RequestID: X-Request-ID propagation into the logging context
  - AccessLog: one structured zerolog line per request
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled
    by chi route pattern so path parameters do not explode cardinality

All three are func(http.Handler) http.Handler and plug straight into r.Use:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(middleware.PrometheusMetrics)

The response writer wrapper comes from chi and keeps http.Hijacker, so the
WebSocket upgrade on /sessions/{id}/ws passes through unchanged.
*/
package middleware
