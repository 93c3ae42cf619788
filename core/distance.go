package core

import (
	"fmt"
	"math"
)

// DistanceMetric represents supported similarity calculation methods
type DistanceMetric string

const (
	DistanceCosine DistanceMetric = "cosine"
	DistanceDot    DistanceMetric = "dot"
)

// ValidDistanceMetric reports whether metric names a supported metric.
func ValidDistanceMetric(metric DistanceMetric) bool {
	switch metric {
	case DistanceCosine, DistanceDot:
		return true
	}
	return false
}

// CosineSimilarity calculates cosine similarity between two vectors
// Returns similarity score (higher = more similar)
func CosineSimilarity(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector dimensions must match: %d != %d", len(a), len(b))
	}

	var dotProduct, normA, normB float32
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dotProduct / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB)))), nil
}

// DotProduct calculates dot product between two vectors
func DotProduct(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector dimensions must match: %d != %d", len(a), len(b))
	}

	var product float32
	for i := range a {
		product += a[i] * b[i]
	}

	return product, nil
}

// Similarity calculates a similarity score under the specified metric.
// Higher scores always mean more similar, regardless of metric.
func Similarity(a, b []float32, metric DistanceMetric) (float32, error) {
	switch metric {
	case DistanceCosine:
		return CosineSimilarity(a, b)
	case DistanceDot:
		return DotProduct(a, b)
	default:
		return 0, fmt.Errorf("%w: %s", ErrInvalidDistance, metric)
	}
}

// SparseDotProduct calculates the weighted overlap between two sparse
// vectors: the sum of weight products over dimensions present in both.
func SparseDotProduct(a, b SparseVector) float64 {
	// Iterate the smaller side
	if len(b) < len(a) {
		a, b = b, a
	}

	var product float64
	for dim, wa := range a {
		if wb, ok := b[dim]; ok {
			product += float64(wa) * float64(wb)
		}
	}

	return product
}
