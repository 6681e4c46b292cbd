// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default configuration should validate, got: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"unknown backend", func(c *Config) { c.Store.Backend = "postgres" }},
		{"badger without path", func(c *Config) {
			c.Store.Backend = "badger"
			c.Store.InMemory = false
			c.Store.Path = ""
		}},
		{"zero cache expiry", func(c *Config) { c.Cache.Expiry = 0 }},
		{"zero max requests", func(c *Config) { c.RateLimit.MaxRequests = 0 }},
		{"negative window", func(c *Config) { c.RateLimit.Window = -time.Second }},
		{"zero top n", func(c *Config) { c.Recommend.TopN = 0 }},
		{"timeout over cap", func(c *Config) { c.Recommend.Timeout = 30 * time.Second }},
		{"timeout above write timeout", func(c *Config) {
			c.Recommend.Timeout = 20 * time.Second
			c.Server.WriteTimeout = 10 * time.Second
		}},
		{"empty base url", func(c *Config) { c.Letterboxd.BaseURL = "" }},
		{"zero max pages", func(c *Config) { c.Letterboxd.MaxPages = 0 }},
		{"zero scrape rate", func(c *Config) { c.Letterboxd.RequestsPerSecond = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"REELRANK_SERVER_PORT", "server.port"},
		{"REELRANK_LOGGING_LEVEL", "logging.level"},
		{"REELRANK_STORE_IN_MEMORY", "store.in_memory"},
		{"REELRANK_RATE_LIMIT_MAX_REQUESTS", "rate_limit.max_requests"},
		{"REELRANK_RATE_LIMIT_WINDOW", "rate_limit.window"},
		{"REELRANK_RECOMMEND_TOP_N", "recommend.top_n"},
		{"REELRANK_LETTERBOXD_BASE_URL", "letterboxd.base_url"},
		{"REELRANK_CACHE_EXPIRY", "cache.expiry"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := envTransformFunc(tt.input); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadLayersFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9090
store:
  backend: memory
recommend:
  top_n: 8
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("REELRANK_RECOMMEND_TOP_N", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("file should override default port, got %d", cfg.Server.Port)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("file should override backend, got %q", cfg.Store.Backend)
	}
	if cfg.Recommend.TopN != 3 {
		t.Errorf("env should override file top_n, got %d", cfg.Recommend.TopN)
	}
	// Untouched values keep their defaults.
	if cfg.RateLimit.MaxRequests != 10 {
		t.Errorf("default max_requests expected, got %d", cfg.RateLimit.MaxRequests)
	}
	if cfg.Cache.Expiry != 300*time.Second {
		t.Errorf("default cache expiry expected, got %v", cfg.Cache.Expiry)
	}
}
