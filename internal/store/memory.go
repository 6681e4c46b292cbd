// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package store

import (
	"context"
	"sync"
)

// MemoryStore implements RatingStore with in-process maps. Contents are
// lost on restart. Used by tests and ephemeral deployments.
type MemoryStore struct {
	mu sync.RWMutex

	usersByName map[string]uint64
	usersByID   map[uint64]string
	filmsByName map[string]uint64
	filmsByID   map[uint64]string

	// ratings maps userID -> filmID -> score.
	ratings map[uint64]map[uint64]float64

	nextUserID uint64
	nextFilmID uint64
	closed     bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		usersByName: make(map[string]uint64),
		usersByID:   make(map[uint64]string),
		filmsByName: make(map[string]uint64),
		filmsByID:   make(map[uint64]string),
		ratings:     make(map[uint64]map[uint64]float64),
	}
}

// UserExists reports whether a user record exists for username.
func (s *MemoryStore) UserExists(ctx context.Context, username string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, ErrClosed
	}
	_, ok := s.usersByName[username]
	return ok, nil
}

// GetUserRatings returns all films rated by username.
func (s *MemoryStore) GetUserRatings(ctx context.Context, username string) ([]UserRating, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	userID, ok := s.usersByName[username]
	if !ok {
		return nil, ErrUserNotFound
	}

	var out []UserRating
	for filmID, score := range s.ratings[userID] {
		out = append(out, UserRating{Title: s.filmsByID[filmID], Score: score})
	}
	return out, nil
}

// GetAllRatings returns every rating triple in the store.
func (s *MemoryStore) GetAllRatings(ctx context.Context) ([]Rating, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	var out []Rating
	for userID, films := range s.ratings {
		username := s.usersByID[userID]
		for filmID, score := range films {
			out = append(out, Rating{
				Username: username,
				Title:    s.filmsByID[filmID],
				Score:    score,
			})
		}
	}
	return out, nil
}

// AddUser inserts a user record and returns its ID. Idempotent by username.
func (s *MemoryStore) AddUser(ctx context.Context, username string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	if id, ok := s.usersByName[username]; ok {
		return id, nil
	}
	s.nextUserID++
	s.usersByName[username] = s.nextUserID
	s.usersByID[s.nextUserID] = username
	return s.nextUserID, nil
}

// AddFilm inserts a film record and returns its ID. Idempotent by title.
func (s *MemoryStore) AddFilm(ctx context.Context, title string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	if id, ok := s.filmsByName[title]; ok {
		return id, nil
	}
	s.nextFilmID++
	s.filmsByName[title] = s.nextFilmID
	s.filmsByID[s.nextFilmID] = title
	return s.nextFilmID, nil
}

// AddRating upserts the score a user gave a film.
func (s *MemoryStore) AddRating(ctx context.Context, userID, filmID uint64, score float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if _, ok := s.usersByID[userID]; !ok {
		return ErrUserNotFound
	}
	if _, ok := s.filmsByID[filmID]; !ok {
		return ErrFilmNotFound
	}

	if s.ratings[userID] == nil {
		s.ratings[userID] = make(map[uint64]float64)
	}
	s.ratings[userID][filmID] = score
	return nil
}

// Stats returns record counts.
func (s *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Stats{}, ErrClosed
	}

	stats := Stats{
		Users: len(s.usersByName),
		Films: len(s.filmsByName),
	}
	for _, films := range s.ratings {
		stats.Ratings += len(films)
	}
	return stats, nil
}

// Close marks the store closed. Further calls return ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
