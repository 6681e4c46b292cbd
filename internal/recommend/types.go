// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package recommend computes film recommendations for a target user by
// clustering users with similar rating histories.
//
// The engine degrades gracefully under pressure: populations too small to
// cluster fall back to popularity scoring, and the Executor substitutes a
// static fallback list when a computation misses its deadline.
package recommend

import (
	"errors"
	"time"
)

// Sentinel errors returned by the engine.
var (
	// ErrInsufficientData indicates the dataset holds too few rating
	// pairs for any meaningful recommendation.
	ErrInsufficientData = errors.New("insufficient rating data for recommendations")

	// ErrUnknownUser indicates the target user has no row in the dataset.
	ErrUnknownUser = errors.New("target user absent from dataset")
)

// Rating is one (user, film, score) observation.
type Rating struct {
	User  string
	Title string
	Score float64
}

// Dataset is an immutable snapshot of all known ratings, loaded once per
// request (or served from cache) and never mutated by the engine.
type Dataset struct {
	Ratings  []Rating
	LoadedAt time.Time
}

// Users returns the number of distinct users in the dataset.
func (d *Dataset) Users() int {
	seen := make(map[string]struct{})
	for _, r := range d.Ratings {
		seen[r.User] = struct{}{}
	}
	return len(seen)
}

// Films returns the number of distinct films in the dataset.
func (d *Dataset) Films() int {
	seen := make(map[string]struct{})
	for _, r := range d.Ratings {
		seen[r.Title] = struct{}{}
	}
	return len(seen)
}

// Mode identifies which path produced a result.
type Mode string

const (
	// ModeClustered is the full clustering pipeline.
	ModeClustered Mode = "clustered"

	// ModePopularity is the popularity path, used for populations too
	// small to cluster or when the deadline cuts clustering short.
	ModePopularity Mode = "popularity"

	// ModeFallback is the static degraded list served on deadline expiry.
	ModeFallback Mode = "fallback"
)

// Recommendation is one recommended film with its consensus score.
type Recommendation struct {
	Title string
	Score float64
}

// Result carries the recommendations plus the dataset statistics the API
// reports alongside them.
type Result struct {
	Recommendations []Recommendation
	Mode            Mode

	TotalUsers  int
	TotalFilms  int
	UnseenFilms int

	Elapsed time.Duration
}
