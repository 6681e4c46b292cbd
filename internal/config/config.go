// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package config defines Reelrank's configuration structure and loads it
// from layered sources: built-in defaults, an optional YAML file, and
// environment variables (highest priority).
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Reelrank server.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Store      StoreConfig      `koanf:"store"`
	Cache      CacheConfig      `koanf:"cache"`
	RateLimit  RateLimitConfig  `koanf:"rate_limit"`
	Recommend  RecommendConfig  `koanf:"recommend"`
	Letterboxd LetterboxdConfig `koanf:"letterboxd"`
	Populate   PopulateConfig   `koanf:"populate"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the listen address. Empty binds all interfaces.
	Host string `koanf:"host"`

	// Port is the listen port.
	Port int `koanf:"port"`

	// ReadTimeout bounds reading the request including the body.
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout bounds writing the response.
	// Must exceed the recommendation deadline or responses get cut off.
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// GlobalRateLimit is a coarse per-IP cap applied at the router,
	// in requests per minute. Protects all endpoints, not just
	// recommendations. 0 disables it.
	GlobalRateLimit int `koanf:"global_rate_limit"`

	// CORSAllowedOrigins lists origins allowed by the CORS middleware.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format: json or console.
	Format string `koanf:"format"`

	// Caller includes caller file:line in log output.
	Caller bool `koanf:"caller"`
}

// StoreConfig holds rating store settings.
type StoreConfig struct {
	// Backend selects the store implementation: badger or memory.
	Backend string `koanf:"backend"`

	// Path is the Badger data directory. Ignored by the memory backend.
	Path string `koanf:"path"`

	// InMemory runs Badger without persistence. Intended for tests and
	// ephemeral deployments.
	InMemory bool `koanf:"in_memory"`

	// GCInterval is how often Badger value-log garbage collection runs.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// CacheConfig holds dataset cache settings.
type CacheConfig struct {
	// Expiry is how long a cached per-user dataset stays fresh.
	Expiry time.Duration `koanf:"expiry"`
}

// RateLimitConfig holds admission control settings for the
// recommendation endpoint.
type RateLimitConfig struct {
	// MaxRequests is the number of requests allowed per window per client.
	MaxRequests int `koanf:"max_requests"`

	// Window is the sliding window length.
	Window time.Duration `koanf:"window"`
}

// RecommendConfig holds recommendation engine settings.
type RecommendConfig struct {
	// TopN is the number of recommendations returned.
	TopN int `koanf:"top_n"`

	// Timeout is the hard deadline for a recommendation computation.
	// Past it the static fallback list is served.
	Timeout time.Duration `koanf:"timeout"`

	// MinRatingPairs is the minimum number of (user, film) ratings the
	// dataset must contain before any recommendation is attempted.
	MinRatingPairs int `koanf:"min_rating_pairs"`

	// MinClusterUsers is the minimum number of distinct users required
	// for the clustering path. Below it the popularity path is used.
	MinClusterUsers int `koanf:"min_cluster_users"`

	// Seed fixes the random source for reproducible clustering.
	Seed int64 `koanf:"seed"`
}

// LetterboxdConfig holds settings for the Letterboxd scraping client.
type LetterboxdConfig struct {
	// BaseURL is the Letterboxd site root.
	BaseURL string `koanf:"base_url"`

	// UserAgent sent with every request.
	UserAgent string `koanf:"user_agent"`

	// RequestTimeout bounds a single page fetch.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// MaxPages caps pagination when fetching a user's rated films.
	MaxPages int `koanf:"max_pages"`

	// RequestsPerSecond throttles page fetches to stay polite.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// PopulateConfig holds the seed usernames for bulk onboarding.
type PopulateConfig struct {
	// Usernames onboarded by POST /populate when the request body
	// supplies none.
	Usernames []string `koanf:"usernames"`
}

// Validate checks the configuration for values that would break the
// service at runtime.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Store.Backend != "badger" && c.Store.Backend != "memory" {
		return fmt.Errorf("store.backend must be badger or memory, got %q", c.Store.Backend)
	}
	if c.Store.Backend == "badger" && !c.Store.InMemory && c.Store.Path == "" {
		return fmt.Errorf("store.path is required for the persistent badger backend")
	}
	if c.Cache.Expiry <= 0 {
		return fmt.Errorf("cache.expiry must be positive, got %v", c.Cache.Expiry)
	}
	if c.RateLimit.MaxRequests < 1 {
		return fmt.Errorf("rate_limit.max_requests must be at least 1, got %d", c.RateLimit.MaxRequests)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive, got %v", c.RateLimit.Window)
	}
	if c.Recommend.TopN < 1 {
		return fmt.Errorf("recommend.top_n must be at least 1, got %d", c.Recommend.TopN)
	}
	if c.Recommend.Timeout <= 0 || c.Recommend.Timeout > 25*time.Second {
		return fmt.Errorf("recommend.timeout must be in (0s, 25s], got %v", c.Recommend.Timeout)
	}
	if c.Recommend.Timeout >= c.Server.WriteTimeout {
		return fmt.Errorf("recommend.timeout (%v) must be below server.write_timeout (%v)",
			c.Recommend.Timeout, c.Server.WriteTimeout)
	}
	if c.Letterboxd.BaseURL == "" {
		return fmt.Errorf("letterboxd.base_url must not be empty")
	}
	if c.Letterboxd.MaxPages < 1 {
		return fmt.Errorf("letterboxd.max_pages must be at least 1, got %d", c.Letterboxd.MaxPages)
	}
	if c.Letterboxd.RequestsPerSecond <= 0 {
		return fmt.Errorf("letterboxd.requests_per_second must be positive, got %v",
			c.Letterboxd.RequestsPerSecond)
	}
	return nil
}

// defaultConfig returns the built-in defaults. Every field here can be
// overridden by the config file or environment variables.
func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:               "",
			Port:               8080,
			ReadTimeout:        10 * time.Second,
			WriteTimeout:       30 * time.Second,
			ShutdownTimeout:    15 * time.Second,
			GlobalRateLimit:    120,
			CORSAllowedOrigins: []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Store: StoreConfig{
			Backend:    "badger",
			Path:       "/data/reelrank",
			InMemory:   false,
			GCInterval: 10 * time.Minute,
		},
		Cache: CacheConfig{
			Expiry: 300 * time.Second,
		},
		RateLimit: RateLimitConfig{
			MaxRequests: 10,
			Window:      60 * time.Second,
		},
		Recommend: RecommendConfig{
			TopN:            5,
			Timeout:         5 * time.Second,
			MinRatingPairs:  10,
			MinClusterUsers: 4,
			Seed:            42,
		},
		Letterboxd: LetterboxdConfig{
			BaseURL:           "https://letterboxd.com",
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			RequestTimeout:    10 * time.Second,
			MaxPages:          20,
			RequestsPerSecond: 2,
		},
		Populate: PopulateConfig{
			Usernames: nil,
		},
	}
}
