// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

import (
	"math"
	"math/rand"
)

// kMeans clusters points into k groups and returns a label per point.
// It runs `restarts` independent fits from random initializations drawn
// from rng and keeps the one with the lowest inertia. Deterministic for
// a given rng state.
func kMeans(points [][]float64, k, maxIter, restarts int, rng *rand.Rand) []int {
	n := len(points)
	if k >= n {
		// Degenerate: every point its own cluster.
		labels := make([]int, n)
		for i := range labels {
			labels[i] = i
		}
		return labels
	}

	bestInertia := math.Inf(1)
	var bestLabels []int
	for r := 0; r < restarts; r++ {
		labels, inertia := kMeansOnce(points, k, maxIter, rng)
		if inertia < bestInertia {
			bestInertia = inertia
			bestLabels = labels
		}
	}
	return bestLabels
}

// kMeansOnce runs a single Lloyd's-algorithm fit.
func kMeansOnce(points [][]float64, k, maxIter int, rng *rand.Rand) ([]int, float64) {
	n := len(points)
	dim := len(points[0])

	// Initialize centroids from k distinct points.
	perm := rng.Perm(n)
	centroids := make([][]float64, k)
	for c := 0; c < k; c++ {
		centroids[c] = append([]float64(nil), points[perm[c]]...)
	}

	labels := make([]int, n)
	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, p := range points {
			best := 0
			bestDist := squaredDistance(p, centroids[0])
			for c := 1; c < k; c++ {
				if d := squaredDistance(p, centroids[c]); d < bestDist {
					bestDist = d
					best = c
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}

		// Recompute centroids; an emptied cluster grabs the point
		// farthest from its current centroid.
		counts := make([]int, k)
		sums := make([][]float64, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, p := range points {
			c := labels[i]
			counts[c]++
			for t := range p {
				sums[c][t] += p[t]
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				far := farthestPoint(points, labels, centroids)
				labels[far] = c
				copy(centroids[c], points[far])
				changed = true
				continue
			}
			for t := 0; t < dim; t++ {
				centroids[c][t] = sums[c][t] / float64(counts[c])
			}
		}

		if !changed {
			break
		}
	}

	var inertia float64
	for i, p := range points {
		inertia += squaredDistance(p, centroids[labels[i]])
	}
	return labels, inertia
}

// farthestPoint returns the index of the point farthest from its
// assigned centroid.
func farthestPoint(points [][]float64, labels []int, centroids [][]float64) int {
	far := 0
	farDist := -1.0
	for i, p := range points {
		if d := squaredDistance(p, centroids[labels[i]]); d > farDist {
			farDist = d
			far = i
		}
	}
	return far
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}
