package observability

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel/metric"
)

// JobMetrics exposes background job queue state.
type JobMetrics interface {
	SetRiverQueueDepth(depth int)
}

type jobMetrics struct {
	riverQueueDepth atomic.Int64
	riverQueueGauge metric.Float64ObservableGauge
}

// NewJobMetrics creates JobMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewJobMetrics(meter metric.Meter) (JobMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	jm := &jobMetrics{}

	gauge, err := meter.Float64ObservableGauge(
		MetricNameRiverQueueDepth,
		metric.WithDescription("Current River job queue depth (default queue, available/retryable/scheduled)"),
		metric.WithFloat64Callback(func(_ context.Context, o metric.Float64Observer) error {
			o.Observe(float64(jm.riverQueueDepth.Load()))

			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create river queue depth gauge: %w", err)
	}

	jm.riverQueueGauge = gauge

	return jm, nil
}

func (j *jobMetrics) SetRiverQueueDepth(depth int) {
	j.riverQueueDepth.Store(int64(depth))
}
