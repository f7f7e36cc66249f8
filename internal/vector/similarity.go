// Package vector provides the embedding index and similarity helpers.
package vector

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput reports vectors of different dimensions. It is a programming
// error on the caller's side and is never coerced.
var ErrInvalidInput = errors.New("invalid input")

// CosineSimilarity returns dot(a, b) / (|a| * |b|), in [-1, 1].
// If either vector has zero norm the result is 0 rather than NaN.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: cosine similarity dimension mismatch: %d vs %d", ErrInvalidInput, len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		va, vb := float64(a[i]), float64(b[i])
		dot += va * vb
		normA += va * va
		normB += vb * vb
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	// Rounding can push parallel vectors just past ±1.
	return math.Max(-1, math.Min(1, dot/(math.Sqrt(normA)*math.Sqrt(normB)))), nil
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}
