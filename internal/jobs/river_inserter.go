package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// DebateMapRefreshPeriod collapses refresh requests within the window into one job.
const DebateMapRefreshPeriod = 10 * time.Minute

// RiverJobInserter enqueues the background jobs of the API.
type RiverJobInserter struct {
	inserter    Inserter
	maxAttempts int
}

// NewRiverJobInserter creates a RiverJobInserter. maxAttempts <= 0 keeps River's default.
func NewRiverJobInserter(inserter Inserter, maxAttempts int) *RiverJobInserter {
	return &RiverJobInserter{inserter: inserter, maxAttempts: maxAttempts}
}

// EnqueueDebateMapRefresh schedules a debate map rebuild, unique per refresh period.
func (r *RiverJobInserter) EnqueueDebateMapRefresh(ctx context.Context) error {
	res, err := r.inserter.Insert(ctx, DebateMapRefreshArgs{}, &river.InsertOpts{
		MaxAttempts: r.maxAttempts,
		UniqueOpts: river.UniqueOpts{
			ByPeriod: DebateMapRefreshPeriod,
			// Note: JobStatePending is required by River when using ByState
			ByState: []rivertype.JobState{
				rivertype.JobStatePending,
				rivertype.JobStateAvailable,
				rivertype.JobStateRunning,
				rivertype.JobStateRetryable,
				rivertype.JobStateScheduled,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("insert debate map refresh job: %w", err)
	}

	if res != nil && res.UniqueSkippedAsDuplicate {
		slog.DebugContext(ctx, "Debate map refresh already scheduled")
	}

	return nil
}

// EnqueueLLMWarmup schedules a single warmup completion.
func (r *RiverJobInserter) EnqueueLLMWarmup(ctx context.Context) error {
	_, err := r.inserter.Insert(ctx, LLMWarmupArgs{}, &river.InsertOpts{
		MaxAttempts: 1,
	})
	if err != nil {
		return fmt.Errorf("insert llm warmup job: %w", err)
	}

	return nil
}
