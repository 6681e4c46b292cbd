// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelrank/internal/logging"
)

// Engine computes recommendations from a rating dataset. It holds no
// mutable state between calls; every Recommend call works on the snapshot
// it is given, so concurrent calls need no locking.
type Engine struct {
	cfg    Config
	logger zerolog.Logger
}

// NewEngine validates cfg and returns a ready engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	return &Engine{
		cfg:    cfg,
		logger: logging.With().Str("component", "recommend").Logger(),
	}, nil
}

// Recommend produces up to TopN unseen films for user.
//
// The pipeline degrades in stages rather than failing: populations too
// small to cluster use popularity scoring directly, and a deadline that
// expires mid-clustering abandons the fit and finishes on the popularity
// path. Only a dataset below MinRatingPairs or an absent target user is
// an error.
func (e *Engine) Recommend(ctx context.Context, ds *Dataset, user string) (*Result, error) {
	start := time.Now()

	if len(ds.Ratings) < e.cfg.MinRatingPairs {
		return nil, fmt.Errorf("%w: %d rating pairs, need %d",
			ErrInsufficientData, len(ds.Ratings), e.cfg.MinRatingPairs)
	}

	m := buildRatingMatrix(ds)
	targetRow, ok := m.userIdx[user]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownUser, user)
	}

	seen := m.seenBy(user)
	result := &Result{
		TotalUsers:  len(m.users),
		TotalFilms:  len(m.films),
		UnseenFilms: len(m.films) - len(seen),
	}

	var recs []Recommendation
	switch {
	case len(m.users) < e.cfg.MinClusterUsers:
		e.logger.Debug().Int("users", len(m.users)).
			Msg("Population below clustering threshold, using popularity path")
		recs = e.scoreByPopulation(m, allRows(len(m.users)), seen)
		result.Mode = ModePopularity

	default:
		members, clustered := e.clusterMembers(ctx, m, targetRow)
		if !clustered {
			// Deadline expired mid-clustering; popularity is cheap
			// enough to still finish.
			members = allRows(len(m.users))
			result.Mode = ModePopularity
		} else {
			result.Mode = ModeClustered
		}
		recs = e.scoreByPopulation(m, members, seen)
	}

	recs = e.fillWithPopular(m, recs, seen)
	if len(recs) > e.cfg.TopN {
		recs = recs[:e.cfg.TopN]
	}

	result.Recommendations = recs
	result.Elapsed = time.Since(start)

	e.logger.Debug().
		Str("user", user).
		Str("mode", string(result.Mode)).
		Int("recommendations", len(recs)).
		Dur("elapsed", result.Elapsed).
		Msg("Recommendation computed")
	return result, nil
}

// clusterMembers runs the clustering pipeline and returns the rows
// sharing the target's cluster. The boolean is false when the deadline
// expired before a usable clustering was produced.
func (e *Engine) clusterMembers(ctx context.Context, m *ratingMatrix, targetRow int) ([]int, bool) {
	if contextDone(ctx) {
		return nil, false
	}

	std := m.standardized()
	if contextDone(ctx) {
		return nil, false
	}

	embedding := projectPCA(std, e.cfg.MaxComponents)
	if contextDone(ctx) {
		return nil, false
	}

	rng := rand.New(rand.NewSource(e.cfg.Seed))

	// Scan candidate cluster counts, keeping the silhouette winner.
	// Ties keep the first (smallest) k.
	kMax := e.cfg.MaxClusters
	if len(m.users) < kMax {
		kMax = len(m.users)
	}

	bestK := 0
	bestScore := -2.0
	for k := 2; k <= kMax; k++ {
		if contextDone(ctx) {
			return nil, false
		}
		labels := kMeans(embedding, k, e.cfg.MaxIterations, e.cfg.SelectionRestarts, rng)
		if score := silhouetteScore(embedding, labels); score > bestScore {
			bestScore = score
			bestK = k
		}
	}
	if bestK == 0 {
		return nil, false
	}
	if contextDone(ctx) {
		return nil, false
	}

	// Refit at the chosen count with more restarts.
	labels := kMeans(embedding, bestK, e.cfg.MaxIterations, e.cfg.FinalRestarts, rng)

	var members []int
	for i, l := range labels {
		if l == labels[targetRow] {
			members = append(members, i)
		}
	}

	// A near-empty cluster carries no consensus; widen to everyone.
	if len(members) < 2 {
		e.logger.Debug().Int("cluster_size", len(members)).Int("k", bestK).
			Msg("Target cluster too small, widening to all users")
		members = allRows(len(m.users))
	}

	e.logger.Debug().Int("k", bestK).Float64("silhouette", bestScore).
		Int("members", len(members)).Msg("Clustering complete")
	return members, true
}

// scoreByPopulation scores every film the target has not seen against
// the given evaluation population. The consensus score rewards both a
// high mean and broad coverage: mean * (1 + boost*count). Films nobody
// in the population rated are skipped.
func (e *Engine) scoreByPopulation(m *ratingMatrix, members []int, seen map[int]struct{}) []Recommendation {
	var recs []Recommendation
	for j := range m.films {
		if _, ok := seen[j]; ok {
			continue
		}

		var sum float64
		count := 0
		for _, i := range members {
			if v := m.rows[i][j]; v != 0 {
				sum += v
				count++
			}
		}
		if count == 0 {
			continue
		}

		mean := sum / float64(count)
		recs = append(recs, Recommendation{
			Title: m.films[j],
			Score: mean * (1 + e.cfg.ScoreBoost*float64(count)),
		})
	}
	sortRecommendations(recs)
	return recs
}

// fillWithPopular tops recs up to TopN with globally popular unseen
// films not already recommended.
func (e *Engine) fillWithPopular(m *ratingMatrix, recs []Recommendation, seen map[int]struct{}) []Recommendation {
	if len(recs) >= e.cfg.TopN {
		return recs
	}

	chosen := make(map[string]struct{}, len(recs))
	for _, r := range recs {
		chosen[r.Title] = struct{}{}
	}

	global := e.scoreByPopulation(m, allRows(len(m.users)), seen)
	for _, g := range global {
		if len(recs) >= e.cfg.TopN {
			break
		}
		if _, ok := chosen[g.Title]; ok {
			continue
		}
		recs = append(recs, g)
	}
	return recs
}

// sortRecommendations orders by score descending, then title ascending,
// so equal scores always list in the same order.
func sortRecommendations(recs []Recommendation) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].Title < recs[j].Title
	})
}

// allRows returns [0, n) as row indices.
func allRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}

// contextDone reports whether ctx has been cancelled or timed out.
func contextDone(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
