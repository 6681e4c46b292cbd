// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package main is the entry point for the Reelrank server.
//
// Reelrank serves film recommendations computed from Letterboxd ratings.
// Unknown users are onboarded on first request by scraping their public
// Letterboxd profile; recommendations come from clustering users by
// taste, degrading to popularity ranking and finally a static list when
// data or time runs short.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered load from defaults, config.yaml, and
//     environment variables (Koanf v2)
//  2. Rating store: BadgerDB (persistent or in-memory) or a plain
//     in-process map
//  3. Letterboxd client: rate-limited scraper behind a circuit breaker
//  4. Recommendation engine and deadline executor
//  5. HTTP server: chi router with the REST API and Prometheus metrics
//  6. Supervisor tree: suture restarts the HTTP server and the store
//     GC service if they fail
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (REELRANK_SERVER_PORT, REELRANK_STORE_BACKEND, ...)
//   - Config file (config.yaml, or the path in REELRANK_CONFIG)
//   - Built-in defaults
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete
//   - Closes the rating store
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/reelrank/internal/api"
	"github.com/tomtom215/reelrank/internal/cache"
	"github.com/tomtom215/reelrank/internal/config"
	"github.com/tomtom215/reelrank/internal/letterboxd"
	"github.com/tomtom215/reelrank/internal/logging"
	"github.com/tomtom215/reelrank/internal/onboard"
	"github.com/tomtom215/reelrank/internal/ratelimit"
	"github.com/tomtom215/reelrank/internal/recommend"
	"github.com/tomtom215/reelrank/internal/store"
	"github.com/tomtom215/reelrank/internal/supervisor"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("store_backend", cfg.Store.Backend).
		Str("letterboxd_base_url", cfg.Letterboxd.BaseURL).
		Int("port", cfg.Server.Port).
		Msg("Starting Reelrank")

	ratingStore, err := newStore(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open rating store")
	}
	defer func() {
		if err := ratingStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing rating store")
		}
	}()

	engine, err := recommend.NewEngine(engineConfig(cfg))
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid recommendation configuration")
	}

	// The scraper sits behind a circuit breaker so a broken or
	// throttling Letterboxd does not stall every onboarding request.
	scraper := letterboxd.NewBreakerClient(letterboxd.NewClient(letterboxd.Config{
		BaseURL:           cfg.Letterboxd.BaseURL,
		UserAgent:         cfg.Letterboxd.UserAgent,
		RequestTimeout:    cfg.Letterboxd.RequestTimeout,
		MaxPages:          cfg.Letterboxd.MaxPages,
		RequestsPerSecond: cfg.Letterboxd.RequestsPerSecond,
	}))

	server := api.NewServer(
		cfg,
		ratingStore,
		cache.New(cfg.Cache.Expiry),
		ratelimit.New(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window),
		recommend.NewExecutor(engine),
		onboard.New(ratingStore, scraper),
	)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Bridge zerolog to slog for sutureslog compatibility
	tree := supervisor.NewTree(slog.New(logging.NewSlogHandler()))
	tree.Add(supervisor.NewHTTPServerService(httpServer, cfg.Server.ShutdownTimeout))
	if gc, ok := ratingStore.(supervisor.GarbageCollector); ok {
		tree.Add(supervisor.NewStoreGCService(gc, cfg.Store.GCInterval))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := tree.ServeBackground(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logging.Info().Str("addr", httpServer.Addr).Msg("Reelrank started")

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Shutting down")
		cancel()
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor exited with error")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Fatal().Err(err).Msg("Supervisor tree failed")
		}
	}

	logging.Info().Msg("Shutdown complete")
}

// newStore opens the rating store selected by the configuration.
func newStore(cfg *config.Config) (store.RatingStore, error) {
	switch cfg.Store.Backend {
	case "badger":
		return store.NewBadgerStore(cfg.Store.Path, cfg.Store.InMemory)
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// engineConfig maps the file/env configuration onto the engine's
// tuning knobs, keeping the internal defaults for the rest.
func engineConfig(cfg *config.Config) recommend.Config {
	ec := recommend.DefaultConfig()
	ec.TopN = cfg.Recommend.TopN
	ec.Timeout = cfg.Recommend.Timeout
	ec.MinRatingPairs = cfg.Recommend.MinRatingPairs
	ec.MinClusterUsers = cfg.Recommend.MinClusterUsers
	ec.Seed = cfg.Recommend.Seed
	return ec
}
