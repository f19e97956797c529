// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Source     SourceConfig     `koanf:"source"`
	Cache      CacheConfig      `koanf:"cache"`
	Feed       FeedConfig       `koanf:"feed"`
	Scoring    ScoringConfig    `koanf:"scoring"`
	Security   SecurityConfig   `koanf:"security"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Source kinds.
const (
	SourceCatalog = "catalog" // embedded or file catalog in memory
	SourceHTTP    = "http"    // remote venue service
	SourceBadger  = "badger"  // persisted catalog
)

// SourceConfig selects and tunes the venue source.
type SourceConfig struct {
	Kind     string `koanf:"kind"`
	PageSize int    `koanf:"page_size"`

	// CatalogPath loads the catalog from a JSON file instead of the
	// embedded sample data. Used by the catalog and badger kinds.
	CatalogPath string        `koanf:"catalog_path"`
	Latency     time.Duration `koanf:"latency"`

	HTTP    HTTPSourceConfig `koanf:"http"`
	Breaker BreakerConfig    `koanf:"breaker"`
	Store   StoreConfig      `koanf:"store"`
}

// HTTPSourceConfig configures the remote venue service client.
type HTTPSourceConfig struct {
	BaseURL   string        `koanf:"base_url"`
	Timeout   time.Duration `koanf:"timeout"`
	RateLimit float64       `koanf:"rate_limit"`
	RateBurst int           `koanf:"rate_burst"`
	UserAgent string        `koanf:"user_agent"`
}

// BreakerConfig configures the circuit breaker around the source.
type BreakerConfig struct {
	Enabled      bool          `koanf:"enabled"`
	MaxRequests  uint32        `koanf:"max_requests"`
	Interval     time.Duration `koanf:"interval"`
	Timeout      time.Duration `koanf:"timeout"`
	MinRequests  uint32        `koanf:"min_requests"`
	FailureRatio float64       `koanf:"failure_ratio"`
}

// StoreConfig configures the BadgerDB catalog.
type StoreConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`

	// SeedOnStart seeds an empty store from the catalog at startup.
	SeedOnStart bool `koanf:"seed_on_start"`
}

// CacheConfig holds the venue cache freshness windows.
type CacheConfig struct {
	PageTTL          time.Duration `koanf:"page_ttl"`
	DetailStaleAfter time.Duration `koanf:"detail_stale_after"`
	DetailMaxAge     time.Duration `koanf:"detail_max_age"`
	FetchTimeout     time.Duration `koanf:"fetch_timeout"`
	SweepInterval    time.Duration `koanf:"sweep_interval"`
}

// FeedConfig limits discovery sessions.
type FeedConfig struct {
	MaxSessions      int           `koanf:"max_sessions"`
	IdleTimeout      time.Duration `koanf:"idle_timeout"`
	FetchTimeout     time.Duration `koanf:"fetch_timeout"`
	JanitorInterval  time.Duration `koanf:"janitor_interval"`
	SubscriberBuffer int           `koanf:"subscriber_buffer"`
}

// ScoringConfig holds the facet weights. They must sum to 1.
type ScoringConfig struct {
	Type       float64 `koanf:"type"`
	Atmosphere float64 `koanf:"atmosphere"`
	Music      float64 `koanf:"music"`
	Budget     float64 `koanf:"budget"`
	Location   float64 `koanf:"location"`
}

// SecurityConfig holds CORS and rate limiting settings
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SupervisorConfig tunes the suture supervisor tree.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
