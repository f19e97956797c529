// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package config

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	return errors.Join(
		c.validateServer(),
		c.validateSource(),
		c.validateCache(),
		c.validateFeed(),
		c.validateScoring(),
		c.validateSecurity(),
		c.validateLogging(),
	)
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Server.Environment {
	case "development", "production", "test":
		return nil
	default:
		return fmt.Errorf("ENVIRONMENT must be development, production or test, got %q", c.Server.Environment)
	}
}

func (c *Config) validateSource() error {
	if c.Source.PageSize < 1 {
		return fmt.Errorf("VENUE_PAGE_SIZE must be at least 1, got %d", c.Source.PageSize)
	}

	switch c.Source.Kind {
	case SourceCatalog:
	case SourceHTTP:
		if c.Source.HTTP.BaseURL == "" {
			return fmt.Errorf("VENUE_SOURCE_URL is required when VENUE_SOURCE=%s", SourceHTTP)
		}
		u, err := url.Parse(c.Source.HTTP.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("VENUE_SOURCE_URL must be an absolute http(s) URL, got %q", c.Source.HTTP.BaseURL)
		}
		if c.Source.HTTP.RateLimit < 0 {
			return fmt.Errorf("VENUE_SOURCE_RATE_LIMIT must not be negative")
		}
	case SourceBadger:
		if !c.Source.Store.InMemory && c.Source.Store.Path == "" {
			return fmt.Errorf("VENUE_STORE_PATH is required when VENUE_SOURCE=%s", SourceBadger)
		}
	default:
		return fmt.Errorf("VENUE_SOURCE must be one of %s, %s, %s; got %q", SourceCatalog, SourceHTTP, SourceBadger, c.Source.Kind)
	}

	if b := c.Source.Breaker; b.Enabled && (b.FailureRatio <= 0 || b.FailureRatio > 1) {
		return fmt.Errorf("BREAKER_FAILURE_RATIO must be in (0, 1], got %v", b.FailureRatio)
	}
	return nil
}

func (c *Config) validateCache() error {
	cc := c.Cache
	if cc.PageTTL <= 0 || cc.DetailStaleAfter <= 0 {
		return fmt.Errorf("CACHE_PAGE_TTL and CACHE_DETAIL_STALE_AFTER must be positive")
	}
	if cc.DetailMaxAge < 0 {
		return fmt.Errorf("CACHE_DETAIL_MAX_AGE must not be negative")
	}
	if cc.DetailMaxAge > 0 && cc.DetailMaxAge <= cc.DetailStaleAfter {
		return fmt.Errorf("CACHE_DETAIL_MAX_AGE (%s) must exceed CACHE_DETAIL_STALE_AFTER (%s)", cc.DetailMaxAge, cc.DetailStaleAfter)
	}
	return nil
}

func (c *Config) validateFeed() error {
	if c.Feed.MaxSessions < 0 {
		return fmt.Errorf("FEED_MAX_SESSIONS must not be negative")
	}
	if c.Feed.IdleTimeout <= 0 {
		return fmt.Errorf("FEED_IDLE_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateScoring() error {
	w := c.Scoring
	weights := []float64{w.Type, w.Atmosphere, w.Music, w.Budget, w.Location}
	sum := 0.0
	for _, v := range weights {
		if v < 0 {
			return fmt.Errorf("scoring weights must not be negative")
		}
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("scoring weights must sum to 1, got %v", sum)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 || c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive unless DISABLE_RATE_LIMIT=true")
	}
	if c.IsProduction() {
		for _, o := range c.Security.CORSOrigins {
			if strings.TrimSpace(o) == "*" {
				return fmt.Errorf("CORS_ORIGINS must not contain * in production")
			}
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be trace, debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}
