package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PipelineMetrics records debate map generations and which fallback strategy served each stage.
type PipelineMetrics interface {
	RecordDebateMap(ctx context.Context, mode, reason string, duration time.Duration)
	RecordStrategy(ctx context.Context, stage, strategy string)
}

type pipelineMetrics struct {
	generations metric.Int64Counter
	duration    metric.Float64Histogram
	strategies  metric.Int64Counter
}

// NewPipelineMetrics creates PipelineMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewPipelineMetrics(meter metric.Meter) (PipelineMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	generations, err := meter.Int64Counter(
		MetricNameDebateMapGenerations,
		metric.WithDescription("Debate maps computed by mode and minimal reason (cache hits excluded)"),
	)
	if err != nil {
		return nil, fmt.Errorf("create debate map generations counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		MetricNameDebateMapDuration,
		metric.WithDescription("Debate map computation duration (seconds)"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create debate map duration histogram: %w", err)
	}

	strategies, err := meter.Int64Counter(
		MetricNamePipelineStrategy,
		metric.WithDescription("Strategy that produced each pipeline stage (embed, reduce, cluster)"),
	)
	if err != nil {
		return nil, fmt.Errorf("create pipeline strategy counter: %w", err)
	}

	return &pipelineMetrics{generations: generations, duration: duration, strategies: strategies}, nil
}

func (p *pipelineMetrics) RecordDebateMap(ctx context.Context, mode, reason string, duration time.Duration) {
	mode = NormalizeReason(mode, AllowedDebateMapModes)

	p.generations.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrMode, mode),
		attribute.String(AttrReason, NormalizeReason(Slug(reason), AllowedDebateMapReasons)),
	))
	p.duration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String(AttrMode, mode)))
}

func (p *pipelineMetrics) RecordStrategy(ctx context.Context, stage, strategy string) {
	p.strategies.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrStage, NormalizeReason(stage, AllowedPipelineStages)),
		attribute.String(AttrStrategy, NormalizeReason(strategy, AllowedPipelineStrategies)),
	))
}
