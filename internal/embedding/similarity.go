// Package embedding holds the vector math shared by enrollment, verification
// and masking.
package embedding

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDimensionMismatch means two embeddings come from different models
	// and must not be compared.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrZeroVector means the similarity is undefined.
	ErrZeroVector = errors.New("zero magnitude embedding")
	// ErrEmpty is returned when there is nothing to aggregate.
	ErrEmpty = errors.New("no embeddings")
)

// CosineSimilarity returns a value in [-1, 1].
// Vectors of different length are rejected instead of being scored.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, ErrZeroVector
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0, ErrZeroVector
	}

	similarity := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp to [-1, 1] to absorb floating point drift
	return math.Max(-1, math.Min(1, similarity)), nil
}

// Normalize returns a unit-length copy of v.
func Normalize(v []float64) ([]float64, error) {
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	if norm == 0 {
		return nil, ErrZeroVector
	}

	norm = math.Sqrt(norm)
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out, nil
}

// Mean returns the element-wise arithmetic mean of equally sized vectors.
func Mean(vectors [][]float64) ([]float64, error) {
	if len(vectors) == 0 {
		return nil, ErrEmpty
	}

	dim := len(vectors[0])
	sum := make([]float64, dim)
	for _, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(v), dim)
		}
		for i, x := range v {
			sum[i] += x
		}
	}

	n := float64(len(vectors))
	for i := range sum {
		sum[i] /= n
	}
	return sum, nil
}
