package cbc

import "math"

// Similarity scores two vectors; larger means more alike.
type Similarity func(a, b SparseVector) float64

// CosineSimilarity returns the dot product of a and b divided by the product
// of their lengths. It is 0 when either vector is zero or when they share no
// features.
//
// Each weight is divided by its vector's length before multiplying, so rows
// with very large or very small weights neither overflow nor underflow.
func CosineSimilarity(a, b SparseVector) float64 {
	if a.norm == 0 || b.norm == 0 {
		return 0
	}
	var sum float64
	i, j := 0, 0
	for i < len(a.indices) && j < len(b.indices) {
		switch {
		case a.indices[i] < b.indices[j]:
			i++
		case a.indices[i] > b.indices[j]:
			j++
		default:
			sum += (a.values[i] / a.norm) * (b.values[j] / b.norm)
			i++
			j++
		}
	}
	return math.Max(-1, math.Min(1, sum))
}

// ComputePairwiseSimilarities computes the full n×n similarity matrix for rows
// in row-major order. The diagonal is left at 0; callers never merge a cluster
// with itself.
func ComputePairwiseSimilarities(rows []SparseVector, sim Similarity) []float64 {
	n := len(rows)
	result := make([]float64, n*n)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			s := sim(rows[i], rows[j])
			result[i*n+j] = s
			result[j*n+i] = s
		}
	}

	return result
}
