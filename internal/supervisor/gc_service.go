// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package supervisor

import (
	"context"
	"time"

	"github.com/tomtom215/reelrank/internal/logging"
)

// GarbageCollector is the store maintenance hook this service drives.
// Implemented by store.BadgerStore.
type GarbageCollector interface {
	RunGC() error
}

// StoreGCService periodically runs value-log garbage collection on the
// rating store so deleted and rewritten records reclaim disk space.
type StoreGCService struct {
	gc       GarbageCollector
	interval time.Duration
}

// NewStoreGCService wraps gc as a supervised maintenance service.
func NewStoreGCService(gc GarbageCollector, interval time.Duration) *StoreGCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &StoreGCService{gc: gc, interval: interval}
}

// Serve implements suture.Service.
func (s *StoreGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// Badger reports ErrNoRewrite when nothing needed
			// collecting; that is routine, not a failure.
			if err := s.gc.RunGC(); err != nil {
				logging.Debug().Err(err).Msg("Store GC pass finished")
			}
		}
	}
}

// String identifies the service in suture logs.
func (s *StoreGCService) String() string {
	return "store-gc"
}
