package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/RonitKhanna333/sih-final-2/internal/jobs"
)

const llmWarmupTimeout = 30 * time.Second

type warmer interface {
	Warmup(ctx context.Context) error
}

// LLMWarmupWorker primes the chat provider once at startup.
type LLMWarmupWorker struct {
	river.WorkerDefaults[jobs.LLMWarmupArgs]

	llm warmer
}

// NewLLMWarmupWorker creates an LLMWarmupWorker.
func NewLLMWarmupWorker(llm warmer) *LLMWarmupWorker {
	return &LLMWarmupWorker{llm: llm}
}

// Timeout limits how long the warmup call can run.
func (w *LLMWarmupWorker) Timeout(*river.Job[jobs.LLMWarmupArgs]) time.Duration {
	return llmWarmupTimeout
}

// Work sends the warmup completion. Failures are logged and never retried:
// the first real request will surface them.
func (w *LLMWarmupWorker) Work(ctx context.Context, job *river.Job[jobs.LLMWarmupArgs]) error {
	if err := w.llm.Warmup(ctx); err != nil {
		slog.WarnContext(ctx, "LLM warmup failed", "job_id", job.ID, "error", err)

		return nil
	}

	slog.InfoContext(ctx, "LLM warmed up", "job_id", job.ID)

	return nil
}
