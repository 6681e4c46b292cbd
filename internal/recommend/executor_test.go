// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestExecutorPassesThroughResult(t *testing.T) {
	e := newTestEngine(t, testConfig())
	x := NewExecutor(e)

	res, err := x.Run(context.Background(), twoGroupDataset(), "u1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Mode == ModeFallback {
		t.Error("healthy run should not be served the fallback list")
	}
	if len(res.Recommendations) == 0 {
		t.Error("expected recommendations")
	}
}

func TestExecutorPassesThroughErrors(t *testing.T) {
	e := newTestEngine(t, testConfig())
	x := NewExecutor(e)

	_, err := x.Run(context.Background(), dataset(Rating{"a", "f1", 3}), "a")
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestExecutorServesFallbackOnDeadline(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = time.Nanosecond
	e := newTestEngine(t, cfg)
	x := NewExecutor(e)

	// Large enough that even the degraded popularity path cannot finish
	// inside a nanosecond deadline.
	var ratings []Rating
	for u := 0; u < 150; u++ {
		for f := 0; f < 40; f++ {
			ratings = append(ratings, Rating{
				User:  fmt.Sprintf("user%03d", u),
				Title: fmt.Sprintf("film%03d", (u+f*7)%200),
				Score: float64((u+f)%9+1) / 2,
			})
		}
	}
	ds := dataset(ratings...)

	res, err := x.Run(context.Background(), ds, "user000")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Mode != ModeFallback {
		t.Fatalf("mode = %q, want %q", res.Mode, ModeFallback)
	}
	if len(res.Recommendations) != cfg.TopN {
		t.Fatalf("fallback returned %d films, want %d", len(res.Recommendations), cfg.TopN)
	}
	if res.Recommendations[0].Title != "The Shawshank Redemption" {
		t.Errorf("fallback list should be the static ranking, got %+v", res.Recommendations[0])
	}
	if res.TotalUsers != 150 {
		t.Errorf("fallback metadata TotalUsers = %d, want 150", res.TotalUsers)
	}
}

func TestFallbackResultTruncates(t *testing.T) {
	tests := []struct {
		topN int
		want int
	}{
		{3, 3},
		{10, 10},
		{25, 10}, // static list has only 10 entries
	}
	for _, tt := range tests {
		res := FallbackResult(tt.topN)
		if len(res.Recommendations) != tt.want {
			t.Errorf("FallbackResult(%d) returned %d films, want %d",
				tt.topN, len(res.Recommendations), tt.want)
		}
	}
}
