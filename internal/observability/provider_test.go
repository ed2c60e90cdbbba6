package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RonitKhanna333/sih-final-2/internal/config"
)

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp, handler, err := NewMeterProvider(&config.Config{})
	require.NoError(t, err)
	assert.Nil(t, mp)
	assert.Nil(t, handler)
}

func TestNewMeterProvider_Prometheus(t *testing.T) {
	mp, handler, err := NewMeterProvider(&config.Config{OtelMetricsExporter: ExporterPrometheus})
	require.NoError(t, err)
	require.NotNil(t, mp)
	require.NotNil(t, handler)

	t.Cleanup(func() { _ = ShutdownMeterProvider(context.Background(), mp) })

	metrics, err := NewMetrics(mp.Meter(MeterScope))
	require.NoError(t, err)

	metrics.LLM.RecordCompletion(context.Background(), "success", 0)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pfa_llm_completions_total")
}

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, err := NewTracerProvider(&config.Config{OtelTracesExporter: "zipkin"})
	require.NoError(t, err)
	assert.Nil(t, tp)
}

func TestParseTraceIDRatio(t *testing.T) {
	assert.InDelta(t, 0.25, parseTraceIDRatio("0.25"), 1e-9)
	assert.InDelta(t, defaultTraceIDRatio, parseTraceIDRatio("2"), 1e-9)
	assert.InDelta(t, defaultTraceIDRatio, parseTraceIDRatio("abc"), 1e-9)
}
