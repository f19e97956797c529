// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

/*
Package metrics exposes Venuescout's Prometheus instrumentation.

Metrics are registered on the default registry through promauto and served at
/metrics:

	curl http://localhost:8080/metrics

Families:
  - venuescout_cache_*: page and detail cache efficiency, background refresh failures
  - venuescout_source_*: venue source latency and error kinds
  - circuit_breaker_*: breaker state around the remote venue source
  - venuescout_feed_*: session state transitions, stale response discards
  - venuescout_scoring_*: ranking latency and candidate counts
  - api_* / websocket_*: HTTP and WebSocket front
*/
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venuescout_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "page", "detail"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venuescout_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheStaleServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venuescout_cache_stale_served_total",
			Help: "Total number of stale entries served while revalidating",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "venuescout_cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venuescout_cache_evictions_total",
			Help: "Total number of cache evictions (expiry or invalidation)",
		},
		[]string{"cache_type"},
	)

	CacheRefreshFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venuescout_cache_refresh_failures_total",
			Help: "Background refreshes that failed and left the stale value in place",
		},
		[]string{"cache_type"},
	)

	CacheSourceFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venuescout_cache_source_fetches_total",
			Help: "Fetches issued to the venue source after coalescing",
		},
		[]string{"cache_type", "mode"}, // mode: "cold", "refresh"
	)

	// Venue Source Metrics
	SourceRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "venuescout_source_request_duration_seconds",
			Help:    "Duration of venue source calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source", "operation"}, // operation: "list", "detail"
	)

	SourceRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venuescout_source_errors_total",
			Help: "Total number of failed venue source calls",
		},
		[]string{"source", "operation", "kind"}, // kind: "unavailable", "not_found", "other"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Feed Metrics
	FeedTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venuescout_feed_transitions_total",
			Help: "Discovery session state transitions",
		},
		[]string{"from", "to"},
	)

	FeedStaleDiscarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "venuescout_feed_stale_discarded_total",
			Help: "List responses dropped because a newer request superseded them",
		},
	)

	FeedActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "venuescout_feed_active_sessions",
			Help: "Current number of open discovery sessions",
		},
	)

	// Scoring Metrics
	ScoringDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "venuescout_scoring_duration_seconds",
			Help:    "Time spent ranking one candidate page",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		},
	)

	ScoringCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "venuescout_scoring_candidates",
			Help:    "Number of candidates per ranking call",
			Buckets: prometheus.LinearBuckets(0, 10, 10),
		},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)
)

// RecordCacheLookup records a hit or miss on the named cache.
func RecordCacheLookup(cacheType string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cacheType).Inc()
		return
	}
	CacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordSourceCall records one venue source call. kind is ignored when err is nil.
func RecordSourceCall(source, operation string, duration time.Duration, kind string, err error) {
	SourceRequestDuration.WithLabelValues(source, operation).Observe(duration.Seconds())
	if err != nil {
		SourceRequestErrors.WithLabelValues(source, operation, kind).Inc()
	}
}

// RecordFeedTransition records a session state change.
func RecordFeedTransition(from, to string) {
	FeedTransitions.WithLabelValues(from, to).Inc()
}

// RecordScoring records one ranking call.
func RecordScoring(duration time.Duration, candidates int) {
	ScoringDuration.Observe(duration.Seconds())
	ScoringCandidates.Observe(float64(candidates))
}

// TrackActiveRequest increments or decrements the in-flight request gauge.
func TrackActiveRequest(start bool) {
	if start {
		APIActiveRequests.Inc()
		return
	}
	APIActiveRequests.Dec()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
