package embeddings

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeL2(t *testing.T) {
	t.Run("normalizes to unit length", func(t *testing.T) {
		vec := []float64{3, 4}
		NormalizeL2(vec)

		assert.InDelta(t, 0.6, vec[0], 1e-9)
		assert.InDelta(t, 0.8, vec[1], 1e-9)
		assert.InDelta(t, 1.0, Norm(vec), 1e-9)
	})

	t.Run("zero vector does not panic", func(t *testing.T) {
		v := []float64{0, 0, 0}
		NormalizeL2(v)

		assert.Equal(t, []float64{0, 0, 0}, v)
	})
}

func TestCosine(t *testing.T) {
	t.Run("self similarity is one", func(t *testing.T) {
		vectors := [][]float64{
			{1, 2, 3},
			{-0.5, 0.25, 8},
			{1e-6, 0, 0},
		}
		for _, v := range vectors {
			assert.InDelta(t, 1.0, Cosine(v, v), 1e-9)
		}
	})

	t.Run("zero vector yields zero", func(t *testing.T) {
		assert.Zero(t, Cosine([]float64{1, 2}, []float64{0, 0}))
		assert.Zero(t, Cosine([]float64{0, 0}, []float64{0, 0}))
	})

	t.Run("orthogonal and opposite", func(t *testing.T) {
		assert.InDelta(t, 0.0, Cosine([]float64{1, 0}, []float64{0, 1}), 1e-12)
		assert.InDelta(t, -1.0, Cosine([]float64{1, 1}, []float64{-2, -2}), 1e-12)
	})

	t.Run("mismatched dimensions yield zero", func(t *testing.T) {
		assert.Zero(t, Cosine([]float64{1, 2, 3}, []float64{1, 2}))
		assert.Zero(t, Cosine(nil, nil))
	})
}

func TestEuclidean(t *testing.T) {
	assert.InDelta(t, 5.0, Euclidean([]float64{0, 0}, []float64{3, 4}), 1e-12)
	assert.InDelta(t, math.Sqrt(3), Euclidean([]float64{1, 1, 1}, []float64{0, 0, 0}), 1e-12)
}

func TestFromFloat32(t *testing.T) {
	assert.Equal(t, []float64{0.5, -2}, FromFloat32([]float32{0.5, -2}))
}
