// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package supervisor runs Reelrank's long-lived services under a suture
// supervision tree so a crashed service restarts instead of taking the
// process down.
package supervisor

import (
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// NewTree builds the root supervisor with suture events routed through
// the given slog logger (bridged to zerolog by the caller).
func NewTree(logger *slog.Logger) *suture.Supervisor {
	// MustHook has a pointer receiver; take the handler's address.
	handler := &sutureslog.Handler{Logger: logger}

	return suture.New("reelrank", suture.Spec{
		EventHook:        handler.MustHook(),
		FailureDecay:     30,
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
	})
}
