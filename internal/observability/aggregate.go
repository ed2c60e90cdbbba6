package observability

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all metric collectors. When metrics are disabled, all fields are nil.
// Components accept the matching interface field and already handle nil.
type Metrics struct {
	API        APIMetrics
	Cache      CacheMetrics
	Embeddings EmbeddingMetrics
	Jobs       JobMetrics
	LLM        LLMMetrics
	Pipeline   PipelineMetrics
}

// NewMetrics creates every collector from the given meter.
// Returns (nil, nil) when meter is nil (metrics disabled).
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	api, err := NewAPIMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("api metrics: %w", err)
	}

	cache, err := NewCacheMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("cache metrics: %w", err)
	}

	embeddings, err := NewEmbeddingMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("embedding metrics: %w", err)
	}

	jobs, err := NewJobMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("job metrics: %w", err)
	}

	llm, err := NewLLMMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("llm metrics: %w", err)
	}

	pipeline, err := NewPipelineMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("pipeline metrics: %w", err)
	}

	return &Metrics{
		API:        api,
		Cache:      cache,
		Embeddings: embeddings,
		Jobs:       jobs,
		LLM:        llm,
		Pipeline:   pipeline,
	}, nil
}
