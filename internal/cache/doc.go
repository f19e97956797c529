// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

/*
Package cache provides the in-memory caches behind the discovery feed.

# Overview

Two layers:
  - Cache[V]: a generic TTL cache with lazy expiry and a periodic Sweep
  - VenueCache: ranked summary pages (TTL) plus venue details served
    stale-while-revalidate

# Freshness

Summary pages are keyed by the preference vector and cursor and live for
Config.PageTTL (60s by default). A refresh of the feed drops all pages.

Details are fresh for Config.DetailStaleAfter (5m by default). After that a
lookup returns the cached detail immediately and starts at most one background
refresh for the id. A failed refresh keeps the stale value and is counted in
venuescout_cache_refresh_failures_total. Config.DetailMaxAge, when set, is
the age after which a detail is dropped instead of served.

# Coalescing

Concurrent misses for the same id share one source fetch through
golang.org/x/sync/singleflight. The shared fetch runs under its own
timeout, so a caller giving up does not cancel it for the others.

# Usage Example

	vc := cache.NewVenueCache(src, cache.DefaultConfig(), cache.WithLogger(logger))

	detail, err := vc.GetDetail(ctx, "2")
	if errors.Is(err, cache.ErrFetchFailed) {
	    // no cached value and the source failed
	}

# Thread Safety

All types in this package are safe for concurrent use.
*/
package cache
