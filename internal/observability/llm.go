package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// LLMMetrics records chat completion attempts. The outcome is "success" or a failure reason.
type LLMMetrics interface {
	RecordCompletion(ctx context.Context, outcome string, duration time.Duration)
}

type llmMetrics struct {
	completions metric.Int64Counter
	duration    metric.Float64Histogram
}

// NewLLMMetrics creates LLMMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewLLMMetrics(meter metric.Meter) (LLMMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	completions, err := meter.Int64Counter(
		MetricNameLLMCompletions,
		metric.WithDescription("Total chat completion calls by outcome (success or failure reason)"),
	)
	if err != nil {
		return nil, fmt.Errorf("create llm completions counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		MetricNameLLMCompletionDuration,
		metric.WithDescription("Chat completion duration across all model attempts (seconds)"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create llm completion duration histogram: %w", err)
	}

	return &llmMetrics{completions: completions, duration: duration}, nil
}

func (l *llmMetrics) RecordCompletion(ctx context.Context, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String(AttrOutcome, NormalizeReason(outcome, AllowedLLMOutcomes)))

	l.completions.Add(ctx, 1, attrs)
	l.duration.Record(ctx, duration.Seconds(), attrs)
}
