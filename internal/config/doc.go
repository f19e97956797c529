// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

/*
Package config loads Venuescout configuration with Koanf v2.

# Configuration Sources

Layered, later sources override earlier ones:
  - Defaults (Default)
  - YAML file: CONFIG_PATH, else config.yaml or /etc/venuescout/config.yaml
  - Environment variables (explicit mapping, unknown names ignored)

# Configuration Structure

  - ServerConfig: HTTP listener and timeouts
  - SourceConfig: venue source kind (catalog, http, badger), breaker, store
  - CacheConfig: page TTL, detail stale threshold, sweep interval
  - FeedConfig: session limits and idle eviction
  - ScoringConfig: facet weights (must sum to 1)
  - SecurityConfig: CORS origins and rate limiting
  - LoggingConfig: zerolog level and format
  - SupervisorConfig: suture restart policy

# Environment Variables

Examples:
  - HTTP_PORT: listen port (default: 8080)
  - VENUE_SOURCE: catalog, http or badger (default: catalog)
  - VENUE_SOURCE_URL: base URL of a remote venue service
  - CACHE_PAGE_TTL: ranked page lifetime (default: 60s)
  - CACHE_DETAIL_STALE_AFTER: detail revalidation threshold (default: 5m)
  - CORS_ORIGINS: comma-separated origins
  - LOG_LEVEL / LOG_FORMAT

# Example config.yaml

	server:
	  port: 8080
	source:
	  kind: badger
	  store:
	    path: /data/venues
	cache:
	  detail_stale_after: 10m
	scoring:
	  type: 0.4
	  atmosphere: 0.2
	  music: 0.1
	  budget: 0.15
	  location: 0.15
*/
package config
