// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package onboard brings unknown users into the rating store by
// verifying them on Letterboxd and scraping their film pages.
package onboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelrank/internal/letterboxd"
	"github.com/tomtom215/reelrank/internal/logging"
	"github.com/tomtom215/reelrank/internal/metrics"
	"github.com/tomtom215/reelrank/internal/store"
)

// Sentinel errors for terminal onboarding outcomes.
var (
	// ErrUserNotFound indicates the username does not exist on
	// Letterboxd. Terminal: retrying cannot help.
	ErrUserNotFound = errors.New("user not found on letterboxd")

	// ErrNoRatings indicates the user exists but has no rated films,
	// so no recommendation basis can be built. Also terminal.
	ErrNoRatings = errors.New("user has no rated films")
)

// Summary reports what one onboarding run inserted.
type Summary struct {
	Films   int
	Ratings int
}

// Orchestrator drives the onboarding flow: verify the user exists,
// scrape their film pages, and persist users, films, and ratings.
type Orchestrator struct {
	store  store.RatingStore
	source letterboxd.Source
	logger zerolog.Logger
}

// New creates an orchestrator over the given store and scrape source.
func New(st store.RatingStore, source letterboxd.Source) *Orchestrator {
	return &Orchestrator{
		store:  st,
		source: source,
		logger: logging.With().Str("component", "onboard").Logger(),
	}
}

// EnsureUser makes sure username has ratings in the store, onboarding
// them if necessary. The retry budget is exactly one: a lookup miss
// triggers one onboarding run followed by one re-lookup, and a second
// miss is terminal. The budget is enforced by the loop bound, not by
// recursion, so no request can onboard twice.
func (o *Orchestrator) EnsureUser(ctx context.Context, username string) error {
	for attempt := 0; ; attempt++ {
		known, err := o.hasRatings(ctx, username)
		if err != nil {
			return err
		}
		if known {
			return nil
		}
		if attempt >= 1 {
			o.logger.Warn().Str("user", username).
				Msg("User still absent after onboarding, giving up")
			return ErrUserNotFound
		}

		if _, err := o.Onboard(ctx, username); err != nil {
			return err
		}
	}
}

// hasRatings reports whether username exists in the store with at least
// one rating. A user record without ratings does not count: there is
// nothing to recommend from, so onboarding should run again.
func (o *Orchestrator) hasRatings(ctx context.Context, username string) (bool, error) {
	exists, err := o.store.UserExists(ctx, username)
	if err != nil {
		return false, fmt.Errorf("lookup user %q: %w", username, err)
	}
	if !exists {
		return false, nil
	}

	ratings, err := o.store.GetUserRatings(ctx, username)
	if err != nil {
		return false, fmt.Errorf("load ratings for %q: %w", username, err)
	}
	return len(ratings) > 0, nil
}

// Onboard verifies username on Letterboxd, scrapes their films, and
// persists everything. Unrated films become film records without a
// rating. Returns ErrUserNotFound for nonexistent usernames and
// ErrNoRatings for users whose pages hold no rated films.
func (o *Orchestrator) Onboard(ctx context.Context, username string) (Summary, error) {
	var summary Summary

	exists, err := o.source.VerifyUser(ctx, username)
	if err != nil {
		metrics.OnboardAttempts.WithLabelValues("error").Inc()
		return summary, fmt.Errorf("verify user %q: %w", username, err)
	}
	if !exists {
		metrics.OnboardAttempts.WithLabelValues("not_found").Inc()
		return summary, fmt.Errorf("%w: %q", ErrUserNotFound, username)
	}

	films, err := o.source.FetchFilms(ctx, username)
	if err != nil {
		metrics.OnboardAttempts.WithLabelValues("error").Inc()
		return summary, fmt.Errorf("fetch films for %q: %w", username, err)
	}

	userID, err := o.store.AddUser(ctx, username)
	if err != nil {
		metrics.OnboardAttempts.WithLabelValues("error").Inc()
		return summary, fmt.Errorf("insert user %q: %w", username, err)
	}

	for _, film := range films {
		filmID, err := o.store.AddFilm(ctx, film.Title)
		if err != nil {
			metrics.OnboardAttempts.WithLabelValues("error").Inc()
			return summary, fmt.Errorf("insert film %q: %w", film.Title, err)
		}
		summary.Films++

		if !film.Rated {
			continue
		}
		if err := o.store.AddRating(ctx, userID, filmID, film.Score); err != nil {
			metrics.OnboardAttempts.WithLabelValues("error").Inc()
			return summary, fmt.Errorf("insert rating for %q: %w", film.Title, err)
		}
		summary.Ratings++
	}

	o.logger.Info().Str("user", username).
		Int("films", summary.Films).Int("ratings", summary.Ratings).
		Msg("User onboarded")

	if summary.Ratings == 0 {
		metrics.OnboardAttempts.WithLabelValues("no_ratings").Inc()
		return summary, fmt.Errorf("%w: %q", ErrNoRatings, username)
	}
	metrics.OnboardAttempts.WithLabelValues("onboarded").Inc()
	return summary, nil
}
