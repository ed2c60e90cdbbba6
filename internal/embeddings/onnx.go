package embeddings

import (
	"context"
	"time"

	"github.com/RonitKhanna333/sih-final-2/internal/observability"
)

// Encoder is a local sentence encoder, such as *onnx.Encoder.
type Encoder interface {
	Encode(ctx context.Context, texts []string) ([][]float64, error)
}

// ONNXProvider embeds with a locally loaded encoder. A nil encoder is unavailable.
type ONNXProvider struct {
	encoder Encoder
	metrics observability.EmbeddingMetrics
}

// NewONNXProvider wraps encoder. metrics may be nil.
func NewONNXProvider(encoder Encoder, metrics observability.EmbeddingMetrics) *ONNXProvider {
	return &ONNXProvider{encoder: encoder, metrics: metrics}
}

// Name returns "onnx".
func (p *ONNXProvider) Name() string { return ProviderONNX }

// Available reports whether a model is loaded.
func (p *ONNXProvider) Available() bool {
	return p != nil && p.encoder != nil
}

// Embed runs the encoder over texts.
func (p *ONNXProvider) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if !p.Available() {
		return nil, ErrUnavailable
	}

	start := time.Now()

	vecs, err := p.encoder.Encode(ctx, texts)

	if p.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}

		p.metrics.RecordEmbeddingRequest(ctx, ProviderONNX, status)
		p.metrics.RecordEmbeddingDuration(ctx, ProviderONNX, time.Since(start))
	}

	if err != nil {
		return nil, err
	}

	return vecs, nil
}
