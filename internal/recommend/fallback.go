// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

// fallbackList is the static degraded response served when a
// recommendation computation misses its deadline: broadly liked films
// that are a safe answer for any user.
var fallbackList = []Recommendation{
	{Title: "The Shawshank Redemption", Score: 9.3},
	{Title: "The Godfather", Score: 9.2},
	{Title: "Pulp Fiction", Score: 8.9},
	{Title: "Fight Club", Score: 8.8},
	{Title: "Forrest Gump", Score: 8.8},
	{Title: "The Matrix", Score: 8.7},
	{Title: "Goodfellas", Score: 8.7},
	{Title: "The Silence of the Lambs", Score: 8.6},
	{Title: "Interstellar", Score: 8.6},
	{Title: "The Departed", Score: 8.5},
}

// FallbackResult returns the static degraded result, truncated to topN.
func FallbackResult(topN int) *Result {
	n := topN
	if n > len(fallbackList) {
		n = len(fallbackList)
	}
	recs := make([]Recommendation, n)
	copy(recs, fallbackList[:n])
	return &Result{
		Recommendations: recs,
		Mode:            ModeFallback,
	}
}
