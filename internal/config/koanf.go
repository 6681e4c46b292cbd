// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar names an explicit config file location.
const ConfigPathEnvVar = "REELRANK_CONFIG"

// envPrefix namespaces Reelrank's environment variables.
const envPrefix = "REELRANK_"

// DefaultConfigPaths are searched in order for a config file when
// REELRANK_CONFIG is not set.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config/config.yaml",
	"/etc/reelrank/config.yaml",
}

// Load builds the configuration from layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
//
// Environment variables map to config paths by stripping the REELRANK_
// prefix and replacing underscores after the section name with dots:
//
//	REELRANK_SERVER_PORT        -> server.port
//	REELRANK_RECOMMEND_TIMEOUT  -> recommend.timeout
//	REELRANK_RATE_LIMIT_WINDOW  -> rate_limit.window
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
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

// findConfigFile returns the first config file that exists, or "".
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

// sectionPrefixes are the top-level config sections. An env var's first
// matching section determines where the key splits into a dotted path.
var sectionPrefixes = []string{
	"rate_limit", // must precede shorter matches
	"server",
	"logging",
	"store",
	"cache",
	"recommend",
	"letterboxd",
	"populate",
}

// envTransformFunc maps environment variable names to koanf config paths.
//
//	REELRANK_SERVER_PORT       -> server.port
//	REELRANK_STORE_IN_MEMORY   -> store.in_memory
//	REELRANK_RATE_LIMIT_WINDOW -> rate_limit.window
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	for _, section := range sectionPrefixes {
		if strings.HasPrefix(key, section+"_") {
			return section + "." + strings.TrimPrefix(key, section+"_")
		}
	}
	return key
}
