// Package workers provides the River workers of the API (debate map refresh, LLM warmup).
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/RonitKhanna333/sih-final-2/internal/jobs"
	"github.com/RonitKhanna333/sih-final-2/internal/models"
)

// debateMapRefreshTimeout bounds one rebuild, including narrative calls.
const debateMapRefreshTimeout = 2 * time.Minute

// debateMapBuilder is the minimal interface needed by the worker.
type debateMapBuilder interface {
	GetDebateMap(ctx context.Context, regenerate bool) (*models.DebateMap, error)
}

// DebateMapRefreshWorker rebuilds the cached debate map.
type DebateMapRefreshWorker struct {
	river.WorkerDefaults[jobs.DebateMapRefreshArgs]

	builder debateMapBuilder
}

// NewDebateMapRefreshWorker creates a DebateMapRefreshWorker.
func NewDebateMapRefreshWorker(builder debateMapBuilder) *DebateMapRefreshWorker {
	return &DebateMapRefreshWorker{builder: builder}
}

// Timeout limits how long a single rebuild can run.
func (w *DebateMapRefreshWorker) Timeout(*river.Job[jobs.DebateMapRefreshArgs]) time.Duration {
	return debateMapRefreshTimeout
}

// Work regenerates the map, replacing the cached one.
func (w *DebateMapRefreshWorker) Work(ctx context.Context, job *river.Job[jobs.DebateMapRefreshArgs]) error {
	m, err := w.builder.GetDebateMap(ctx, true)
	if err != nil {
		return fmt.Errorf("refresh debate map: %w", err)
	}

	slog.InfoContext(ctx, "Debate map refreshed",
		"job_id", job.ID,
		"mode", m.Mode,
		"points", len(m.Points),
	)

	return nil
}
