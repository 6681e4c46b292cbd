// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

import (
	"fmt"
	"time"
)

// Config tunes the recommendation engine.
type Config struct {
	// TopN is the number of recommendations to return.
	TopN int

	// Timeout is the hard deadline for one computation. The Executor
	// serves the static fallback list once it passes.
	Timeout time.Duration

	// MinRatingPairs is the minimum dataset size (total ratings) before
	// any recommendation is attempted.
	MinRatingPairs int

	// MinClusterUsers is the minimum distinct-user count for the
	// clustering path. Smaller populations use popularity scoring.
	MinClusterUsers int

	// MaxComponents caps the PCA projection rank.
	MaxComponents int

	// MaxClusters caps the candidate cluster counts tried during
	// silhouette-based selection.
	MaxClusters int

	// ScoreBoost is the per-rating weight in the consensus score
	// mean * (1 + ScoreBoost*count).
	ScoreBoost float64

	// Seed fixes the random source so identical datasets cluster
	// identically.
	Seed int64

	// SelectionRestarts is the k-means restart count while scanning
	// candidate cluster counts.
	SelectionRestarts int

	// FinalRestarts is the k-means restart count for the final fit at
	// the chosen cluster count.
	FinalRestarts int

	// MaxIterations bounds a single k-means run.
	MaxIterations int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		TopN:              5,
		Timeout:           5 * time.Second,
		MinRatingPairs:    10,
		MinClusterUsers:   4,
		MaxComponents:     10,
		MaxClusters:       10,
		ScoreBoost:        0.1,
		Seed:              42,
		SelectionRestarts: 3,
		FinalRestarts:     10,
		MaxIterations:     100,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.TopN < 1 {
		return fmt.Errorf("top n must be at least 1, got %d", c.TopN)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.MinRatingPairs < 1 {
		return fmt.Errorf("min rating pairs must be at least 1, got %d", c.MinRatingPairs)
	}
	if c.MinClusterUsers < 4 {
		return fmt.Errorf("min cluster users must be at least 4, got %d", c.MinClusterUsers)
	}
	if c.MaxComponents < 1 {
		return fmt.Errorf("max components must be at least 1, got %d", c.MaxComponents)
	}
	if c.MaxClusters < 2 {
		return fmt.Errorf("max clusters must be at least 2, got %d", c.MaxClusters)
	}
	if c.ScoreBoost < 0 {
		return fmt.Errorf("score boost must be non-negative, got %v", c.ScoreBoost)
	}
	if c.SelectionRestarts < 1 || c.FinalRestarts < 1 {
		return fmt.Errorf("restart counts must be at least 1")
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("max iterations must be at least 1, got %d", c.MaxIterations)
	}
	return nil
}
