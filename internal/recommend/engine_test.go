// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Timeout = 10 * time.Second
	return cfg
}

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func dataset(ratings ...Rating) *Dataset {
	return &Dataset{Ratings: ratings, LoadedAt: time.Now()}
}

// twoGroupDataset builds six users in two sharply separated taste groups.
func twoGroupDataset() *Dataset {
	return dataset(
		Rating{"u1", "Alien", 5}, Rating{"u1", "Blade Runner", 5},
		Rating{"u2", "Alien", 5}, Rating{"u2", "Blade Runner", 4.5}, Rating{"u2", "Children of Men", 5},
		Rating{"u3", "Alien", 4.5}, Rating{"u3", "Blade Runner", 5}, Rating{"u3", "Children of Men", 5},
		Rating{"v1", "Notting Hill", 5}, Rating{"v1", "Love Actually", 5},
		Rating{"v2", "Notting Hill", 5}, Rating{"v2", "Love Actually", 4.5}, Rating{"v2", "About Time", 5},
		Rating{"v3", "Notting Hill", 4.5}, Rating{"v3", "Love Actually", 5}, Rating{"v3", "About Time", 5},
	)
}

func TestRecommendInsufficientData(t *testing.T) {
	e := newTestEngine(t, testConfig())
	ds := dataset(
		Rating{"a", "Alien", 5},
		Rating{"b", "Alien", 4},
	)

	_, err := e.Recommend(context.Background(), ds, "a")
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestRecommendUnknownUser(t *testing.T) {
	e := newTestEngine(t, testConfig())

	_, err := e.Recommend(context.Background(), twoGroupDataset(), "stranger")
	if !errors.Is(err, ErrUnknownUser) {
		t.Errorf("expected ErrUnknownUser, got %v", err)
	}
}

func TestRecommendSmallPopulationClosedForm(t *testing.T) {
	// Three users stay below the clustering threshold, so scores must
	// equal mean * (1 + 0.1*count) over the whole population exactly.
	cfg := testConfig()
	e := newTestEngine(t, cfg)

	ds := dataset(
		Rating{"a", "f1", 4}, Rating{"a", "f2", 3}, Rating{"a", "f3", 5},
		Rating{"b", "f1", 2}, Rating{"b", "f2", 4}, Rating{"b", "f4", 3},
		Rating{"c", "f1", 5}, Rating{"c", "f3", 4}, Rating{"c", "f4", 5},
		Rating{"c", "f5", 2},
	)

	res, err := e.Recommend(context.Background(), ds, "a")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.Mode != ModePopularity {
		t.Fatalf("mode = %q, want %q", res.Mode, ModePopularity)
	}

	// Unseen by a: f4 (rated 3 and 5 -> mean 4, count 2 -> 4.8),
	// f5 (rated 2 -> 2 * 1.1 = 2.2).
	want := map[string]float64{
		"f4": 4 * 1.2,
		"f5": 2 * 1.1,
	}
	if len(res.Recommendations) != len(want) {
		t.Fatalf("got %d recommendations, want %d: %+v",
			len(res.Recommendations), len(want), res.Recommendations)
	}
	for _, rec := range res.Recommendations {
		expected, ok := want[rec.Title]
		if !ok {
			t.Errorf("unexpected recommendation %q", rec.Title)
			continue
		}
		if math.Abs(rec.Score-expected) > 1e-9 {
			t.Errorf("score for %q = %v, want %v", rec.Title, rec.Score, expected)
		}
	}
	if res.Recommendations[0].Title != "f4" {
		t.Errorf("highest score should sort first, got %q", res.Recommendations[0].Title)
	}
}

func TestRecommendSingleRaterBoost(t *testing.T) {
	// A film rated 3.0 by exactly one other user scores 3.3.
	e := newTestEngine(t, testConfig())

	ds := dataset(
		Rating{"a", "f1", 4}, Rating{"a", "f2", 3}, Rating{"a", "f3", 5},
		Rating{"a", "f4", 2}, Rating{"a", "f5", 1},
		Rating{"b", "f1", 4}, Rating{"b", "f2", 3}, Rating{"b", "f3", 5},
		Rating{"b", "f4", 2}, Rating{"b", "solo", 3},
	)

	res, err := e.Recommend(context.Background(), ds, "a")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(res.Recommendations) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(res.Recommendations))
	}
	rec := res.Recommendations[0]
	if rec.Title != "solo" || math.Abs(rec.Score-3.3) > 1e-9 {
		t.Errorf("got %+v, want {solo 3.3}", rec)
	}
}

func TestRecommendNeverReturnsSeenFilms(t *testing.T) {
	e := newTestEngine(t, testConfig())
	ds := twoGroupDataset()

	for _, user := range []string{"u1", "u2", "v1", "v3"} {
		res, err := e.Recommend(context.Background(), ds, user)
		if err != nil {
			t.Fatalf("Recommend(%s): %v", user, err)
		}

		rated := make(map[string]struct{})
		for _, r := range ds.Ratings {
			if r.User == user {
				rated[r.Title] = struct{}{}
			}
		}
		for _, rec := range res.Recommendations {
			if _, ok := rated[rec.Title]; ok {
				t.Errorf("user %s recommended already-rated film %q", user, rec.Title)
			}
		}
	}
}

func TestRecommendClusteredPrefersOwnGroup(t *testing.T) {
	e := newTestEngine(t, testConfig())

	res, err := e.Recommend(context.Background(), twoGroupDataset(), "u1")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.Mode != ModeClustered {
		t.Fatalf("mode = %q, want %q", res.Mode, ModeClustered)
	}
	if len(res.Recommendations) == 0 {
		t.Fatal("expected recommendations")
	}
	// u1's cluster rated Children of Men 5.0 twice; it must beat the
	// other group's films, which only arrive via the popularity fill.
	if res.Recommendations[0].Title != "Children of Men" {
		t.Errorf("top recommendation = %q, want Children of Men (got %+v)",
			res.Recommendations[0].Title, res.Recommendations)
	}
}

func TestRecommendDeterministic(t *testing.T) {
	e := newTestEngine(t, testConfig())
	ds := twoGroupDataset()

	first, err := e.Recommend(context.Background(), ds, "u1")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	second, err := e.Recommend(context.Background(), ds, "u1")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if len(first.Recommendations) != len(second.Recommendations) {
		t.Fatalf("run lengths differ: %d vs %d",
			len(first.Recommendations), len(second.Recommendations))
	}
	for i := range first.Recommendations {
		if first.Recommendations[i] != second.Recommendations[i] {
			t.Errorf("run diverged at %d: %+v vs %+v",
				i, first.Recommendations[i], second.Recommendations[i])
		}
	}
}

func TestRecommendEqualScoresSortByTitle(t *testing.T) {
	e := newTestEngine(t, testConfig())

	// zebra and apple get identical scores; apple must come first.
	ds := dataset(
		Rating{"a", "f1", 4}, Rating{"a", "f2", 3}, Rating{"a", "f3", 5},
		Rating{"a", "f4", 2}, Rating{"a", "f5", 1},
		Rating{"b", "f1", 4}, Rating{"b", "f2", 3}, Rating{"b", "f3", 5},
		Rating{"b", "zebra", 4}, Rating{"b", "apple", 4},
	)

	res, err := e.Recommend(context.Background(), ds, "a")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(res.Recommendations) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(res.Recommendations))
	}
	if res.Recommendations[0].Title != "apple" || res.Recommendations[1].Title != "zebra" {
		t.Errorf("equal scores should sort by title: %+v", res.Recommendations)
	}
}

func TestRecommendTruncatesToTopN(t *testing.T) {
	cfg := testConfig()
	cfg.TopN = 2
	e := newTestEngine(t, cfg)

	res, err := e.Recommend(context.Background(), twoGroupDataset(), "u1")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(res.Recommendations) > 2 {
		t.Errorf("got %d recommendations, want at most 2", len(res.Recommendations))
	}
}

func TestRecommendMetadataCounts(t *testing.T) {
	e := newTestEngine(t, testConfig())

	res, err := e.Recommend(context.Background(), twoGroupDataset(), "u1")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.TotalUsers != 6 {
		t.Errorf("TotalUsers = %d, want 6", res.TotalUsers)
	}
	if res.TotalFilms != 6 {
		t.Errorf("TotalFilms = %d, want 6", res.TotalFilms)
	}
	// u1 rated 2 of the 6 films.
	if res.UnseenFilms != 4 {
		t.Errorf("UnseenFilms = %d, want 4", res.UnseenFilms)
	}
}

func TestRecommendExpiredContextDegradesToPopularity(t *testing.T) {
	e := newTestEngine(t, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := e.Recommend(ctx, twoGroupDataset(), "u1")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.Mode != ModePopularity {
		t.Errorf("mode = %q, want %q after expired context", res.Mode, ModePopularity)
	}
	if len(res.Recommendations) == 0 {
		t.Error("popularity degradation should still produce recommendations")
	}
}
