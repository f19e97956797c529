// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/venuescout/config.yaml",
	"/etc/venuescout/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Default returns the built-in configuration. File and environment values
// are layered on top of it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Source: SourceConfig{
			Kind:     SourceCatalog,
			PageSize: 4,
			HTTP: HTTPSourceConfig{
				Timeout:   10 * time.Second,
				RateLimit: 20,
				RateBurst: 5,
				UserAgent: "venuescout",
			},
			Breaker: BreakerConfig{
				Enabled:      true,
				MaxRequests:  3,
				Interval:     time.Minute,
				Timeout:      2 * time.Minute,
				MinRequests:  10,
				FailureRatio: 0.6,
			},
			Store: StoreConfig{
				Path:        "/data/venues",
				SeedOnStart: true,
			},
		},
		Cache: CacheConfig{
			PageTTL:          60 * time.Second,
			DetailStaleAfter: 5 * time.Minute,
			DetailMaxAge:     0,
			FetchTimeout:     30 * time.Second,
			SweepInterval:    time.Minute,
		},
		Feed: FeedConfig{
			MaxSessions:      1000,
			IdleTimeout:      30 * time.Minute,
			FetchTimeout:     30 * time.Second,
			JanitorInterval:  time.Minute,
			SubscriberBuffer: 16,
		},
		Scoring: ScoringConfig{
			Type:       0.30,
			Atmosphere: 0.25,
			Music:      0.15,
			Budget:     0.15,
			Location:   0.15,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// Load loads configuration with layered sources:
//  1. Defaults: Default()
//  2. Config File: optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment Variables: mapped names in envMappings
//
// Precedence is ENV > File > Defaults. The result is validated.
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile is Load with an explicit config file path. An empty path skips
// the file layer.
func LoadFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first config file found, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		var parts []string
		for _, p := range strings.Split(strVal, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	// Server
	"http_host":          "server.host",
	"http_port":          "server.port",
	"http_read_timeout":  "server.read_timeout",
	"http_write_timeout": "server.write_timeout",
	"shutdown_timeout":   "server.shutdown_timeout",
	"environment":        "server.environment",

	// Venue source
	"venue_source":            "source.kind",
	"venue_page_size":         "source.page_size",
	"venue_catalog_path":      "source.catalog_path",
	"venue_source_latency":    "source.latency",
	"venue_source_url":        "source.http.base_url",
	"venue_source_timeout":    "source.http.timeout",
	"venue_source_rate_limit": "source.http.rate_limit",
	"venue_source_rate_burst": "source.http.rate_burst",
	"breaker_enabled":         "source.breaker.enabled",
	"breaker_timeout":         "source.breaker.timeout",
	"breaker_failure_ratio":   "source.breaker.failure_ratio",
	"venue_store_path":        "source.store.path",
	"venue_store_in_memory":   "source.store.in_memory",
	"venue_store_seed":        "source.store.seed_on_start",

	// Cache
	"cache_page_ttl":           "cache.page_ttl",
	"cache_detail_stale_after": "cache.detail_stale_after",
	"cache_detail_max_age":     "cache.detail_max_age",
	"cache_fetch_timeout":      "cache.fetch_timeout",
	"cache_sweep_interval":     "cache.sweep_interval",

	// Feed
	"feed_max_sessions":     "feed.max_sessions",
	"feed_idle_timeout":     "feed.idle_timeout",
	"feed_fetch_timeout":    "feed.fetch_timeout",
	"feed_janitor_interval": "feed.janitor_interval",

	// Scoring
	"scoring_weight_type":       "scoring.type",
	"scoring_weight_atmosphere": "scoring.atmosphere",
	"scoring_weight_music":      "scoring.music",
	"scoring_weight_budget":     "scoring.budget",
	"scoring_weight_location":   "scoring.location",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Supervisor
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - VENUE_SOURCE_URL -> source.http.base_url
//   - CACHE_DETAIL_STALE_AFTER -> cache.detail_stale_after
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
