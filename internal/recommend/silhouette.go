// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

import "math"

// silhouetteScore measures clustering quality in [-1, 1]. Higher is
// better separated. Returns -1 when the labeling collapses to a single
// effective cluster, so degenerate fits always lose the k selection.
func silhouetteScore(points [][]float64, labels []int) float64 {
	n := len(points)
	if n < 2 {
		return -1
	}

	clusterSizes := make(map[int]int)
	for _, l := range labels {
		clusterSizes[l]++
	}
	if len(clusterSizes) < 2 {
		return -1
	}

	// Pairwise distances, computed once.
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := math.Sqrt(squaredDistance(points[i], points[j]))
			dist[i][j] = d
			dist[j][i] = d
		}
	}

	var total float64
	for i := 0; i < n; i++ {
		own := labels[i]
		if clusterSizes[own] == 1 {
			// Singleton clusters contribute zero by convention.
			continue
		}

		// a = mean distance to own cluster, b = min over other
		// clusters of mean distance to that cluster.
		sums := make(map[int]float64)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			sums[labels[j]] += dist[i][j]
		}

		a := sums[own] / float64(clusterSizes[own]-1)
		b := math.Inf(1)
		for cluster, sum := range sums {
			if cluster == own {
				continue
			}
			if mean := sum / float64(clusterSizes[cluster]); mean < b {
				b = mean
			}
		}

		if denom := math.Max(a, b); denom > 0 {
			total += (b - a) / denom
		}
	}
	return total / float64(n)
}
