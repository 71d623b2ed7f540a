package badger

import (
	"math"

	"github.com/poiesic/docquery/storage"
)

// distanceFunc computes the distance between two equal-length vectors.
// Lower is closer for every supported metric.
type distanceFunc func(a, b []float32) float64

func distanceForMetric(metric storage.Metric) distanceFunc {
	switch metric {
	case storage.MetricEuclidean:
		return euclideanDistance
	default:
		return cosineDistance
	}
}

// cosineDistance is 1 - cosine similarity. Zero-magnitude vectors are
// treated as maximally distant.
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

func euclideanDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
