package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type insertCall struct {
	args river.JobArgs
	opts *river.InsertOpts
}

type mockInserter struct {
	calls []insertCall
	res   *rivertype.JobInsertResult
	err   error
}

func (m *mockInserter) Insert(_ context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error) {
	m.calls = append(m.calls, insertCall{args: args, opts: opts})

	return m.res, m.err
}

func TestEnqueueDebateMapRefresh(t *testing.T) {
	t.Run("unique per period", func(t *testing.T) {
		ins := &mockInserter{res: &rivertype.JobInsertResult{}}
		r := NewRiverJobInserter(ins, 3)

		require.NoError(t, r.EnqueueDebateMapRefresh(context.Background()))
		require.Len(t, ins.calls, 1)

		call := ins.calls[0]
		assert.Equal(t, "debate_map_refresh", call.args.Kind())
		require.NotNil(t, call.opts)
		assert.Equal(t, 3, call.opts.MaxAttempts)
		assert.Equal(t, DebateMapRefreshPeriod, call.opts.UniqueOpts.ByPeriod)
		assert.Contains(t, call.opts.UniqueOpts.ByState, rivertype.JobStatePending)
	})

	t.Run("duplicate is not an error", func(t *testing.T) {
		ins := &mockInserter{res: &rivertype.JobInsertResult{UniqueSkippedAsDuplicate: true}}

		assert.NoError(t, NewRiverJobInserter(ins, 0).EnqueueDebateMapRefresh(context.Background()))
	})

	t.Run("insert failure is wrapped", func(t *testing.T) {
		boom := errors.New("db down")
		ins := &mockInserter{err: boom}

		err := NewRiverJobInserter(ins, 0).EnqueueDebateMapRefresh(context.Background())
		assert.ErrorIs(t, err, boom)
	})
}

func TestEnqueueLLMWarmup(t *testing.T) {
	ins := &mockInserter{}

	require.NoError(t, NewRiverJobInserter(ins, 5).EnqueueLLMWarmup(context.Background()))
	require.Len(t, ins.calls, 1)

	assert.Equal(t, "llm_warmup", ins.calls[0].args.Kind())
	assert.Equal(t, 1, ins.calls[0].opts.MaxAttempts)
}
