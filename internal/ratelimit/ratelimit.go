// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package ratelimit admits or rejects recommendation requests per client
// using an exact sliding window over request timestamps.
package ratelimit

import (
	"sync"
	"time"
)

// SlidingWindow tracks request instants per client key and admits a
// request only while fewer than max instants fall inside the window.
//
// Semantics per admission attempt: prune instants older than the window,
// compare the remainder against the limit, and record the instant only
// when the request is admitted. A rejected request does not consume
// budget, so a client hammering the endpoint still recovers exactly one
// slot as each old instant ages out.
type SlidingWindow struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	clients map[string][]time.Time

	// now is replaceable in tests.
	now func() time.Time
}

// New creates a limiter admitting max requests per window per client.
func New(max int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		max:     max,
		window:  window,
		clients: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow reports whether a request from client is admitted now.
func (l *SlidingWindow) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.clients[client][:0]
	for _, t := range l.clients[client] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.max {
		l.clients[client] = kept
		return false
	}

	l.clients[client] = append(kept, now)
	return true
}

// Pending returns how many instants currently count against client.
func (l *SlidingWindow) Pending(client string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	n := 0
	for _, t := range l.clients[client] {
		if t.After(cutoff) {
			n++
		}
	}
	return n
}
