package embeddings

import (
	"context"
	"crypto/sha256"

	"github.com/RonitKhanna333/sih-final-2/pkg/embeddings"
)

// MockProvider generates deterministic unit vectors from the sha256 of each text.
// Equal texts get equal vectors; unrelated texts are close to orthogonal only by chance.
type MockProvider struct {
	dimensions int
}

// NewMockProvider creates a mock provider with the given dimensions (384 when not positive).
func NewMockProvider(dimensions int) *MockProvider {
	if dimensions <= 0 {
		dimensions = 384
	}

	return &MockProvider{dimensions: dimensions}
}

// Name returns "mock".
func (p *MockProvider) Name() string { return ProviderMock }

// Available reports true.
func (p *MockProvider) Available() bool { return true }

// Embed returns one hashed vector per text.
func (p *MockProvider) Embed(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		out[i] = p.vector(text)
	}

	return out, nil
}

func (p *MockProvider) vector(text string) []float64 {
	hash := sha256.Sum256([]byte(text))
	vec := make([]float64, p.dimensions)

	for i := range vec {
		// Byte values mapped into [-1, 1].
		vec[i] = float64(hash[i%len(hash)])/127.5 - 1.0
	}

	embeddings.NormalizeL2(vec)

	return vec
}
