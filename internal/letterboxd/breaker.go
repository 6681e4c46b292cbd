// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package letterboxd

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/reelrank/internal/logging"
	"github.com/tomtom215/reelrank/internal/metrics"
)

// breakerName labels the scraper breaker in logs and metrics.
const breakerName = "letterboxd"

// BreakerClient wraps a Source with a circuit breaker so a flaky or
// blocking letterboxd.com cannot tie up onboarding workers. A missing
// user is a successful answer, not a failure, so lookups of bad
// usernames never trip the breaker.
//
// The breaker uses real time for its interval and timeout; tests should
// exercise the wrapped Source directly.
type BreakerClient struct {
	source Source
	cb     *gobreaker.CircuitBreaker[any]
}

// NewBreakerClient wraps source with breaker protection.
// The circuit opens after a 60% failure rate across at least 10
// requests, and probes recovery after 2 minutes.
func NewBreakerClient(source Source) *BreakerClient {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			if failureRatio >= 0.6 {
				logging.Warn().Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening letterboxd circuit")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("from", stateToString(from)).Str("to", stateToString(to)).
				Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(
				name, stateToString(from), stateToString(to)).Inc()
		},
	})

	return &BreakerClient{source: source, cb: cb}
}

// VerifyUser reports whether the username exists on Letterboxd.
func (b *BreakerClient) VerifyUser(ctx context.Context, username string) (bool, error) {
	result, err := b.execute(func() (any, error) {
		return b.source.VerifyUser(ctx, username)
	})
	if err != nil {
		return false, err
	}
	return castResult[bool](result)
}

// FetchFilms returns every film on the user's paginated film pages.
func (b *BreakerClient) FetchFilms(ctx context.Context, username string) ([]Film, error) {
	result, err := b.execute(func() (any, error) {
		return b.source.FetchFilms(ctx, username)
	})
	if err != nil {
		return nil, err
	}
	return castResult[[]Film](result)
}

// execute runs fn through the breaker and classifies the outcome.
func (b *BreakerClient) execute(fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.ScrapeRequests.WithLabelValues("rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Scrape rejected")
		}
		return nil, err
	}
	return result, nil
}

// castResult converts the breaker's untyped result back to T.
func castResult[T any](result any) (T, error) {
	typed, ok := result.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("unexpected result type %T from circuit breaker", result)
	}
	return typed, nil
}

func stateToString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
