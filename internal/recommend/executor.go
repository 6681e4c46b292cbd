// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelrank/internal/logging"
)

// Executor bounds engine runs with a hard deadline. A run that misses it
// is abandoned, not interrupted: the engine goroutine notices the expired
// context at its next stage boundary and winds down on its own while the
// caller already has the static fallback list.
type Executor struct {
	engine *Engine
	logger zerolog.Logger
}

// NewExecutor wraps engine with deadline enforcement. The deadline comes
// from the engine's Timeout setting.
func NewExecutor(engine *Engine) *Executor {
	return &Executor{
		engine: engine,
		logger: logging.With().Str("component", "executor").Logger(),
	}
}

// Run computes recommendations for user within the configured deadline.
// On expiry it returns the static fallback result (Mode ModeFallback)
// with a nil error; engine errors pass through unchanged.
func (x *Executor) Run(ctx context.Context, ds *Dataset, user string) (*Result, error) {
	start := time.Now()
	runCtx, cancel := context.WithTimeout(ctx, x.engine.cfg.Timeout)
	defer cancel()

	type outcome struct {
		res *Result
		err error
	}
	// Buffered so the abandoned goroutine can deliver and exit.
	ch := make(chan outcome, 1)
	go func() {
		res, err := x.engine.Recommend(runCtx, ds, user)
		ch <- outcome{res: res, err: err}
	}()

	select {
	case out := <-ch:
		return out.res, out.err
	case <-runCtx.Done():
		x.logger.Warn().
			Str("user", user).
			Dur("deadline", x.engine.cfg.Timeout).
			Msg("Recommendation deadline expired, serving fallback list")
		fb := FallbackResult(x.engine.cfg.TopN)
		fb.TotalUsers = ds.Users()
		fb.TotalFilms = ds.Films()
		fb.Elapsed = time.Since(start)
		return fb, nil
	}
}
