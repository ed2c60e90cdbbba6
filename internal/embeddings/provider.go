// Package embeddings turns feedback text into fixed-size vectors.
//
// Remote (OpenAI, Gemini), local ONNX and mock providers embed one text at a time and are
// stable per text. TFIDFProvider fits on the batch it is given and is the fallback when no
// other provider is available or a call fails.
package embeddings

import (
	"context"
	"errors"
)

// Provider names, also used as metric attribute values.
const (
	ProviderOpenAI = "openai"
	ProviderGoogle = "google"
	ProviderONNX   = "onnx"
	ProviderMock   = "mock"
	ProviderTFIDF  = "tfidf"
)

var (
	// ErrUnavailable is returned by Embed on a provider that is not configured.
	ErrUnavailable = errors.New("embedding provider unavailable")
	// ErrEmptyVocabulary is returned by TFIDFProvider when no term survives tokenization.
	ErrEmptyVocabulary = errors.New("tf-idf: empty vocabulary")
)

// Provider embeds a batch of texts. The result has one vector per text, in input order.
type Provider interface {
	Name() string
	Available() bool
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Client creates a single embedding; internal/openai and internal/googleai implement it.
type Client interface {
	CreateEmbedding(ctx context.Context, input string) ([]float32, error)
}

// Unavailable is the Provider used when no embedding backend is configured.
type Unavailable struct{}

// Name returns "none".
func (Unavailable) Name() string { return "none" }

// Available reports false.
func (Unavailable) Available() bool { return false }

// Embed always fails with ErrUnavailable.
func (Unavailable) Embed(context.Context, []string) ([][]float64, error) {
	return nil, ErrUnavailable
}
