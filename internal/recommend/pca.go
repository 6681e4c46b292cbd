// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

import "math"

const (
	powerIterMax = 200
	powerIterTol = 1e-9

	// eigenvalueFloor discards components with effectively zero variance.
	eigenvalueFloor = 1e-10
)

// projectPCA embeds the n rows of points into at most maxComponents
// dimensions, preserving pairwise distances up to the discarded variance.
//
// The decomposition runs on the n-by-n Gram matrix rather than the
// d-by-d covariance: the user count stays small while the film count can
// be large, and for clustering only the row embedding is needed. The
// effective rank is capped at min(maxComponents, n-1, d).
func projectPCA(points [][]float64, maxComponents int) [][]float64 {
	n := len(points)
	if n == 0 {
		return nil
	}
	d := len(points[0])

	k := maxComponents
	if n-1 < k {
		k = n - 1
	}
	if d < k {
		k = d
	}
	if k < 1 {
		k = 1
	}

	gram := gramMatrix(points)

	embedding := make([][]float64, n)
	for i := range embedding {
		embedding[i] = make([]float64, 0, k)
	}

	for c := 0; c < k; c++ {
		lambda, vec, ok := dominantEigen(gram)
		if !ok || lambda < eigenvalueFloor {
			break
		}

		scale := math.Sqrt(lambda)
		for i := 0; i < n; i++ {
			embedding[i] = append(embedding[i], vec[i]*scale)
		}

		// Deflate so the next iteration finds the next component.
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				gram[i][j] -= lambda * vec[i] * vec[j]
			}
		}
	}

	// All variance gone before the first component: fall back to a
	// single zero coordinate per row so callers still get points.
	if len(embedding[0]) == 0 {
		for i := range embedding {
			embedding[i] = []float64{0}
		}
	}
	return embedding
}

// gramMatrix computes X * X^T for the given row-major matrix.
func gramMatrix(points [][]float64) [][]float64 {
	n := len(points)
	g := make([][]float64, n)
	for i := range g {
		g[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			var dot float64
			for t := range points[i] {
				dot += points[i][t] * points[j][t]
			}
			g[i][j] = dot
			g[j][i] = dot
		}
	}
	return g
}

// dominantEigen finds the largest eigenvalue and its unit eigenvector of
// a symmetric matrix by power iteration. The deterministic start vector
// keeps the whole pipeline reproducible.
func dominantEigen(m [][]float64) (float64, []float64, bool) {
	n := len(m)
	if n == 0 {
		return 0, nil, false
	}

	vec := make([]float64, n)
	for i := range vec {
		// Uneven components avoid starting orthogonal to the target.
		vec[i] = 1 + float64(i%7)*0.1
	}
	normalize(vec)

	next := make([]float64, n)
	var lambda float64
	for iter := 0; iter < powerIterMax; iter++ {
		for i := 0; i < n; i++ {
			var sum float64
			for j := 0; j < n; j++ {
				sum += m[i][j] * vec[j]
			}
			next[i] = sum
		}

		newLambda := norm(next)
		if newLambda == 0 {
			return 0, nil, false
		}
		for i := range next {
			next[i] /= newLambda
		}

		converged := math.Abs(newLambda-lambda) < powerIterTol
		lambda = newLambda
		copy(vec, next)
		if converged {
			break
		}
	}
	return lambda, vec, true
}

func norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func normalize(v []float64) {
	n := norm(v)
	if n == 0 {
		return
	}
	for i := range v {
		v[i] /= n
	}
}
