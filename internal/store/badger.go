// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/reelrank/internal/logging"
)

// Key prefixes for BadgerDB storage.
const (
	userNameKeyPrefix  = "user:name:"
	userIDKeyPrefix    = "user:id:"
	filmTitleKeyPrefix = "film:title:"
	filmIDKeyPrefix    = "film:id:"
	ratingKeyPrefix    = "rating:"
	userSeqKey         = "seq:user"
	filmSeqKey         = "seq:film"
)

// conflictRetries bounds retry of transactions aborted by concurrent
// writes to the same keys (typically two workers onboarding the same
// user at once).
const conflictRetries = 5

// userRecord is the stored form of a user.
type userRecord struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}

// filmRecord is the stored form of a film.
type filmRecord struct {
	ID    uint64 `json:"id"`
	Title string `json:"title"`
}

// ratingRecord is the stored form of a rating.
type ratingRecord struct {
	UserID uint64  `json:"user_id"`
	FilmID uint64  `json:"film_id"`
	Score  float64 `json:"score"`
}

// BadgerStore implements RatingStore on BadgerDB. Records live in flat
// key-ordered collections with secondary ID-to-name keys so that rating
// triples can be joined back to usernames and titles in a single scan.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a Badger-backed store at path.
// With inMemory set, nothing touches disk; intended for tests.
func NewBadgerStore(path string, inMemory bool) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).
		WithInMemory(inMemory).
		WithLogger(nil)
	if inMemory {
		opts.Dir = ""
		opts.ValueDir = ""
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}

	logging.Debug().Str("path", path).Bool("in_memory", inMemory).Msg("Rating store opened")
	return &BadgerStore{db: db}, nil
}

// UserExists reports whether a user record exists for username.
func (s *BadgerStore) UserExists(ctx context.Context, username string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	exists := false
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(userNameKeyPrefix + username))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("check user %q: %w", username, err)
	}
	return exists, nil
}

// GetUserRatings returns all films rated by username.
func (s *BadgerStore) GetUserRatings(ctx context.Context, username string) ([]UserRating, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var ratings []UserRating
	err := s.db.View(func(txn *badger.Txn) error {
		user, err := getUserByName(txn, username)
		if err != nil {
			return err
		}

		titles, err := loadFilmTitles(txn)
		if err != nil {
			return err
		}

		prefix := []byte(ratingKeyPrefix + formatID(user.ID) + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec ratingRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode rating: %w", err)
			}
			title, ok := titles[rec.FilmID]
			if !ok {
				return fmt.Errorf("rating references film %d: %w", rec.FilmID, ErrFilmNotFound)
			}
			ratings = append(ratings, UserRating{Title: title, Score: rec.Score})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ratings, nil
}

// GetAllRatings returns every rating triple in the store.
func (s *BadgerStore) GetAllRatings(ctx context.Context) ([]Rating, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var all []Rating
	err := s.db.View(func(txn *badger.Txn) error {
		usernames, err := loadUsernames(txn)
		if err != nil {
			return err
		}
		titles, err := loadFilmTitles(txn)
		if err != nil {
			return err
		}

		prefix := []byte(ratingKeyPrefix)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec ratingRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode rating: %w", err)
			}
			username, ok := usernames[rec.UserID]
			if !ok {
				return fmt.Errorf("rating references user %d: %w", rec.UserID, ErrUserNotFound)
			}
			title, ok := titles[rec.FilmID]
			if !ok {
				return fmt.Errorf("rating references film %d: %w", rec.FilmID, ErrFilmNotFound)
			}
			all = append(all, Rating{Username: username, Title: title, Score: rec.Score})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// AddUser inserts a user record and returns its ID. Inserting an existing
// username returns the existing ID. Transactions aborted by a concurrent
// insert of the same username are retried and converge on whichever
// record won.
func (s *BadgerStore) AddUser(ctx context.Context, username string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var id uint64
	err := s.updateWithRetry(func(txn *badger.Txn) error {
		existing, err := getUserByName(txn, username)
		if err == nil {
			id = existing.ID
			return nil
		}
		if !errors.Is(err, ErrUserNotFound) {
			return err
		}

		id, err = nextSeq(txn, userSeqKey)
		if err != nil {
			return err
		}

		data, err := json.Marshal(userRecord{ID: id, Username: username})
		if err != nil {
			return fmt.Errorf("marshal user: %w", err)
		}
		if err := txn.Set([]byte(userNameKeyPrefix+username), data); err != nil {
			return err
		}
		return txn.Set([]byte(userIDKeyPrefix+formatID(id)), []byte(username))
	})
	if err != nil {
		return 0, fmt.Errorf("add user %q: %w", username, err)
	}
	return id, nil
}

// AddFilm inserts a film record and returns its ID. Inserting an existing
// title returns the existing ID.
func (s *BadgerStore) AddFilm(ctx context.Context, title string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var id uint64
	err := s.updateWithRetry(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(filmTitleKeyPrefix + title))
		if err == nil {
			var rec filmRecord
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode film: %w", err)
			}
			id = rec.ID
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		id, err = nextSeq(txn, filmSeqKey)
		if err != nil {
			return err
		}

		data, err := json.Marshal(filmRecord{ID: id, Title: title})
		if err != nil {
			return fmt.Errorf("marshal film: %w", err)
		}
		if err := txn.Set([]byte(filmTitleKeyPrefix+title), data); err != nil {
			return err
		}
		return txn.Set([]byte(filmIDKeyPrefix+formatID(id)), []byte(title))
	})
	if err != nil {
		return 0, fmt.Errorf("add film %q: %w", title, err)
	}
	return id, nil
}

// AddRating upserts the score a user gave a film.
func (s *BadgerStore) AddRating(ctx context.Context, userID, filmID uint64, score float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(ratingRecord{UserID: userID, FilmID: filmID, Score: score})
	if err != nil {
		return fmt.Errorf("marshal rating: %w", err)
	}

	key := []byte(ratingKeyPrefix + formatID(userID) + ":" + formatID(filmID))
	err = s.updateWithRetry(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("add rating user=%d film=%d: %w", userID, filmID, err)
	}
	return nil
}

// Stats returns record counts, doubling as a health probe.
func (s *BadgerStore) Stats(ctx context.Context) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}

	var stats Stats
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		if stats.Users, err = countPrefix(txn, userNameKeyPrefix); err != nil {
			return err
		}
		if stats.Films, err = countPrefix(txn, filmTitleKeyPrefix); err != nil {
			return err
		}
		stats.Ratings, err = countPrefix(txn, ratingKeyPrefix)
		return err
	})
	if err != nil {
		return Stats{}, fmt.Errorf("store stats: %w", err)
	}
	return stats, nil
}

// RunGC triggers one round of Badger value-log garbage collection.
// Returns badger.ErrNoRewrite when there was nothing to collect.
func (s *BadgerStore) RunGC() error {
	return s.db.RunValueLogGC(0.5)
}

// Close releases the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// updateWithRetry runs fn inside a read-write transaction, retrying on
// serialization conflicts.
func (s *BadgerStore) updateWithRetry(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		logging.Debug().Int("attempt", attempt+1).Msg("Store transaction conflict, retrying")
	}
	return err
}

// getUserByName fetches a user record inside a transaction.
func getUserByName(txn *badger.Txn, username string) (userRecord, error) {
	var rec userRecord
	item, err := txn.Get([]byte(userNameKeyPrefix + username))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return rec, ErrUserNotFound
	}
	if err != nil {
		return rec, err
	}
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	}); err != nil {
		return rec, fmt.Errorf("decode user: %w", err)
	}
	return rec, nil
}

// loadUsernames builds an ID-to-username map from the secondary keys.
func loadUsernames(txn *badger.Txn) (map[uint64]string, error) {
	return loadIDNameMap(txn, userIDKeyPrefix)
}

// loadFilmTitles builds an ID-to-title map from the secondary keys.
func loadFilmTitles(txn *badger.Txn) (map[uint64]string, error) {
	return loadIDNameMap(txn, filmIDKeyPrefix)
}

func loadIDNameMap(txn *badger.Txn, keyPrefix string) (map[uint64]string, error) {
	out := make(map[uint64]string)
	prefix := []byte(keyPrefix)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		id, err := parseID(strings.TrimPrefix(string(item.Key()), keyPrefix))
		if err != nil {
			return nil, err
		}
		if err := item.Value(func(val []byte) error {
			out[id] = string(val)
			return nil
		}); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// countPrefix counts keys under a prefix without fetching values.
func countPrefix(txn *badger.Txn, keyPrefix string) (int, error) {
	prefix := []byte(keyPrefix)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	n := 0
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		n++
	}
	return n, nil
}

// nextSeq increments and returns the counter stored at key.
// Runs inside the caller's transaction so ID issuance commits atomically
// with the record that consumes the ID.
func nextSeq(txn *badger.Txn, key string) (uint64, error) {
	var current uint64
	item, err := txn.Get([]byte(key))
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		current = 0
	case err != nil:
		return 0, err
	default:
		if err := item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("corrupt sequence value for %s", key)
			}
			current = binary.BigEndian.Uint64(val)
			return nil
		}); err != nil {
			return 0, err
		}
	}

	next := current + 1
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, next)
	if err := txn.Set([]byte(key), buf); err != nil {
		return 0, err
	}
	return next, nil
}

// formatID renders an ID as fixed-width hex so keys sort correctly.
func formatID(id uint64) string {
	return fmt.Sprintf("%016x", id)
}

// parseID reverses formatID.
func parseID(s string) (uint64, error) {
	var id uint64
	if _, err := fmt.Sscanf(s, "%016x", &id); err != nil {
		return 0, fmt.Errorf("parse record ID %q: %w", s, err)
	}
	return id, nil
}
