// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package metrics defines Reelrank's Prometheus collectors. All metrics
// register on the default registry via promauto and are exposed at
// /metrics by the API router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts API requests by endpoint and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelrank_http_requests_total",
			Help: "Total HTTP requests by endpoint and status code.",
		},
		[]string{"endpoint", "status"},
	)

	// HTTPRequestDuration observes request latency per endpoint.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelrank_http_request_duration_seconds",
			Help:    "HTTP request latency by endpoint.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// RecommendDuration observes engine computation time per result mode.
	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelrank_recommend_duration_seconds",
			Help:    "Recommendation computation time by result mode.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		},
		[]string{"mode"},
	)

	// CacheHits counts dataset cache hits.
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelrank_dataset_cache_hits_total",
			Help: "Dataset cache hits.",
		},
	)

	// CacheMisses counts dataset cache misses, including lazy expiries.
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelrank_dataset_cache_misses_total",
			Help: "Dataset cache misses.",
		},
	)

	// RateLimitRejections counts requests rejected by admission control.
	RateLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelrank_rate_limit_rejections_total",
			Help: "Requests rejected by the sliding-window rate limiter.",
		},
	)

	// FallbacksServed counts deadline expiries answered with the static list.
	FallbacksServed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelrank_fallbacks_served_total",
			Help: "Recommendation requests answered with the static fallback list.",
		},
	)

	// OnboardAttempts counts onboarding runs by outcome
	// (onboarded, not_found, no_ratings, error).
	OnboardAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelrank_onboard_attempts_total",
			Help: "User onboarding attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// ScrapeRequests counts Letterboxd page fetches by outcome.
	ScrapeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelrank_scrape_requests_total",
			Help: "Letterboxd page fetches by outcome (success, failure, rejected).",
		},
		[]string{"outcome"},
	)

	// CircuitBreakerState exposes the scraper breaker state
	// (0 closed, 1 half-open, 2 open).
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reelrank_circuit_breaker_state",
			Help: "Circuit breaker state: 0 closed, 1 half-open, 2 open.",
		},
		[]string{"name"},
	)

	// CircuitBreakerTransitions counts breaker state changes.
	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelrank_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions.",
		},
		[]string{"name", "from", "to"},
	)
)
