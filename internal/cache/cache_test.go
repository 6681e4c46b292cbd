// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package cache

import (
	"testing"
	"time"

	"github.com/tomtom215/reelrank/internal/recommend"
)

// fakeClock drives cache time deterministically.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(expiry time.Duration) (*DatasetCache, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := New(expiry)
	c.now = clock.Now
	return c, clock
}

func sampleDataset() *recommend.Dataset {
	return &recommend.Dataset{
		Ratings: []recommend.Rating{{User: "amy", Title: "Alien", Score: 4.5}},
	}
}

func TestGetMissOnEmptyCache(t *testing.T) {
	c, _ := newTestCache(300 * time.Second)
	if _, ok := c.Get("amy"); ok {
		t.Error("empty cache should miss")
	}
}

func TestPutThenGetHits(t *testing.T) {
	c, _ := newTestCache(300 * time.Second)
	ds := sampleDataset()
	c.Put("amy", ds)

	got, ok := c.Get("amy")
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if got != ds {
		t.Error("expected the same dataset pointer back")
	}
}

func TestEntryExpiresLazily(t *testing.T) {
	c, clock := newTestCache(300 * time.Second)
	c.Put("amy", sampleDataset())

	// One second before the boundary: still fresh.
	clock.Advance(299 * time.Second)
	if _, ok := c.Get("amy"); !ok {
		t.Error("entry should be fresh at 299s")
	}

	// At exactly the expiry age the entry is stale.
	clock.Advance(time.Second)
	if _, ok := c.Get("amy"); ok {
		t.Error("entry should be stale at 300s")
	}

	// The stale read removed it.
	if c.Len() != 0 {
		t.Errorf("stale entry should be dropped on read, have %d entries", c.Len())
	}
}

func TestPutResetsExpiry(t *testing.T) {
	c, clock := newTestCache(300 * time.Second)
	c.Put("amy", sampleDataset())

	clock.Advance(200 * time.Second)
	c.Put("amy", sampleDataset())

	clock.Advance(200 * time.Second)
	if _, ok := c.Get("amy"); !ok {
		t.Error("re-Put should reset the entry's age")
	}
}

func TestInvalidate(t *testing.T) {
	c, _ := newTestCache(300 * time.Second)
	c.Put("amy", sampleDataset())
	c.Invalidate("amy")

	if _, ok := c.Get("amy"); ok {
		t.Error("invalidated entry should miss")
	}
}

func TestEntriesAreIndependent(t *testing.T) {
	c, clock := newTestCache(300 * time.Second)
	c.Put("amy", sampleDataset())
	clock.Advance(150 * time.Second)
	c.Put("zoe", sampleDataset())
	clock.Advance(200 * time.Second)

	if _, ok := c.Get("amy"); ok {
		t.Error("amy's entry should be stale")
	}
	if _, ok := c.Get("zoe"); !ok {
		t.Error("zoe's entry should still be fresh")
	}
}
