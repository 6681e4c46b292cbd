// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package cache holds per-user dataset snapshots so repeated
// recommendation requests skip the store scan.
//
// Expiry is lazy: entries are checked on read and dropped when stale.
// There is no background eviction, so an abandoned username's entry
// lingers until its key is read again. Acceptable for the small per-user
// population this service handles.
package cache

import (
	"sync"
	"time"

	"github.com/tomtom215/reelrank/internal/recommend"
)

// DatasetCache is a concurrency-safe map of username to dataset snapshot.
type DatasetCache struct {
	mu      sync.Mutex
	entries map[string]entry
	expiry  time.Duration

	// now is replaceable in tests.
	now func() time.Time
}

type entry struct {
	dataset  *recommend.Dataset
	cachedAt time.Time
}

// New creates a cache whose entries stay fresh for expiry.
func New(expiry time.Duration) *DatasetCache {
	return &DatasetCache{
		entries: make(map[string]entry),
		expiry:  expiry,
		now:     time.Now,
	}
}

// Get returns the cached dataset for username. A stale entry is removed
// and reported as a miss.
func (c *DatasetCache) Get(username string) (*recommend.Dataset, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[username]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.cachedAt) >= c.expiry {
		delete(c.entries, username)
		return nil, false
	}
	return e.dataset, true
}

// Put stores a dataset for username, resetting its expiry.
func (c *DatasetCache) Put(username string, ds *recommend.Dataset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[username] = entry{dataset: ds, cachedAt: c.now()}
}

// Invalidate drops the entry for username, if any.
func (c *DatasetCache) Invalidate(username string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, username)
}

// Len returns the number of entries currently held, stale or not.
func (c *DatasetCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
