// Package embeddings provides vector helpers shared by the embedding backends and the
// similarity lookups (L2 normalization, cosine similarity).
package embeddings

import (
	"math"
)

// Norm returns the Euclidean length of v.
func Norm(v []float64) float64 {
	var sumSquares float64
	for _, x := range v {
		sumSquares += x * x
	}

	return math.Sqrt(sumSquares)
}

// NormalizeL2 scales v in place to unit length. A zero vector is left unchanged.
func NormalizeL2(v []float64) {
	magnitude := Norm(v)
	if magnitude == 0 {
		return
	}

	for i := range v {
		v[i] /= magnitude
	}
}

// Cosine returns dot(a,b) / (|a|*|b|). It returns 0 when either vector has zero
// length or the dimensions differ, so callers never divide by zero.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}

	if na == 0 || nb == 0 {
		return 0
	}

	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// CosineDistance returns 1 - Cosine(a, b).
func CosineDistance(a, b []float64) float64 {
	return 1 - Cosine(a, b)
}

// Euclidean returns the straight-line distance between a and b.
func Euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}

	return math.Sqrt(sum)
}

// FromFloat32 widens a float32 vector as returned by remote embedding APIs.
func FromFloat32(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}

	return out
}
