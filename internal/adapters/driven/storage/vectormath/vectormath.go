// Package vectormath holds the brute-force similarity helpers shared by the
// vector stores.
package vectormath

import (
	"math"
	"sort"
)

// CosineDistance returns 1 - cosine similarity of a and b. Vectors of
// different length are compared over their common prefix. A zero vector
// has distance 1 to everything.
func CosineDistance(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// Nearest returns the indices of the n smallest distances, closest first.
// Ties keep their original order so results are deterministic.
func Nearest(distances []float64, n int) []int {
	idxs := make([]int, len(distances))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(i, j int) bool {
		return distances[idxs[i]] < distances[idxs[j]]
	})
	if n < len(idxs) {
		idxs = idxs[:max(n, 0)]
	}
	return idxs
}
