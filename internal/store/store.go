// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package store persists users, films, and ratings.
//
// Two implementations are provided: BadgerStore for durable deployments and
// MemoryStore for tests and ephemeral use. Both guarantee that inserting an
// already-known user or film returns the existing record's ID instead of
// failing, so concurrent onboarding of the same user converges.
package store

import (
	"context"
	"errors"
)

// Sentinel errors returned by RatingStore implementations.
var (
	// ErrUserNotFound indicates the username has no record in the store.
	ErrUserNotFound = errors.New("user not found in store")

	// ErrFilmNotFound indicates the film ID has no record in the store.
	ErrFilmNotFound = errors.New("film not found in store")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("store is closed")
)

// Rating is a single (user, film, score) triple.
type Rating struct {
	Username string  `json:"username"`
	Title    string  `json:"title"`
	Score    float64 `json:"score"`
}

// UserRating is one film rated by a known user.
type UserRating struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// Stats summarizes store contents.
type Stats struct {
	Users   int `json:"users"`
	Films   int `json:"films"`
	Ratings int `json:"ratings"`
}

// RatingStore is the persistence contract for the recommendation service.
//
// AddUser and AddFilm are idempotent: inserting an existing username or
// title returns the ID of the existing record. AddRating upserts, so
// re-scraping a user refreshes scores in place.
type RatingStore interface {
	// UserExists reports whether a user record exists for username.
	UserExists(ctx context.Context, username string) (bool, error)

	// GetUserRatings returns all films rated by username.
	// Returns ErrUserNotFound when the user has no record.
	GetUserRatings(ctx context.Context, username string) ([]UserRating, error)

	// GetAllRatings returns every rating triple in the store.
	GetAllRatings(ctx context.Context) ([]Rating, error)

	// AddUser inserts a user record and returns its ID.
	AddUser(ctx context.Context, username string) (uint64, error)

	// AddFilm inserts a film record and returns its ID.
	AddFilm(ctx context.Context, title string) (uint64, error)

	// AddRating upserts the score a user gave a film.
	AddRating(ctx context.Context, userID, filmID uint64, score float64) error

	// Stats returns record counts, doubling as a health probe.
	Stats(ctx context.Context) (Stats, error)

	// Close releases underlying resources.
	Close() error
}
