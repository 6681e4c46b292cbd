// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

import (
	"math"
	"sort"
)

// ratingMatrix is a dense user-by-film matrix. Unrated cells are zero,
// matching the treatment of missing values throughout the pipeline.
type ratingMatrix struct {
	rows  [][]float64
	users []string
	films []string

	userIdx map[string]int
	filmIdx map[string]int
}

// buildRatingMatrix pivots rating triples into a dense matrix. Users and
// films are sorted so identical datasets always produce identical layouts
// regardless of input order.
func buildRatingMatrix(ds *Dataset) *ratingMatrix {
	userIdx := make(map[string]int)
	filmIdx := make(map[string]int)
	for _, r := range ds.Ratings {
		if _, ok := userIdx[r.User]; !ok {
			userIdx[r.User] = 0
		}
		if _, ok := filmIdx[r.Title]; !ok {
			filmIdx[r.Title] = 0
		}
	}

	users := make([]string, 0, len(userIdx))
	for u := range userIdx {
		users = append(users, u)
	}
	sort.Strings(users)
	for i, u := range users {
		userIdx[u] = i
	}

	films := make([]string, 0, len(filmIdx))
	for f := range filmIdx {
		films = append(films, f)
	}
	sort.Strings(films)
	for i, f := range films {
		filmIdx[f] = i
	}

	rows := make([][]float64, len(users))
	for i := range rows {
		rows[i] = make([]float64, len(films))
	}
	for _, r := range ds.Ratings {
		rows[userIdx[r.User]][filmIdx[r.Title]] = r.Score
	}

	return &ratingMatrix{
		rows:    rows,
		users:   users,
		films:   films,
		userIdx: userIdx,
		filmIdx: filmIdx,
	}
}

// seenBy returns the set of film column indices the user has rated.
func (m *ratingMatrix) seenBy(user string) map[int]struct{} {
	seen := make(map[int]struct{})
	row, ok := m.userIdx[user]
	if !ok {
		return seen
	}
	for j, v := range m.rows[row] {
		if v != 0 {
			seen[j] = struct{}{}
		}
	}
	return seen
}

// standardized returns a copy of the matrix with each column shifted to
// zero mean and scaled to unit variance. Zero-variance columns become all
// zeros instead of dividing by zero.
func (m *ratingMatrix) standardized() [][]float64 {
	n := len(m.rows)
	if n == 0 {
		return nil
	}
	d := len(m.films)

	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, d)
	}

	for j := 0; j < d; j++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += m.rows[i][j]
		}
		mean := sum / float64(n)

		var variance float64
		for i := 0; i < n; i++ {
			diff := m.rows[i][j] - mean
			variance += diff * diff
		}
		variance /= float64(n)

		if variance == 0 {
			continue
		}
		std := math.Sqrt(variance)
		for i := 0; i < n; i++ {
			out[i][j] = (m.rows[i][j] - mean) / std
		}
	}
	return out
}
