package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/RonitKhanna333/sih-final-2/pkg/apiclient"
)

type mockPoster struct {
	createFunc func(ctx context.Context, req *apiclient.CreateFeedbackRequest) (*apiclient.Feedback, error)
	calls      []string
}

func (m *mockPoster) CreateFeedback(ctx context.Context, req *apiclient.CreateFeedbackRequest) (*apiclient.Feedback, error) {
	m.calls = append(m.calls, req.Text)

	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}

	return &apiclient.Feedback{ID: "id"}, nil
}

func TestReadRows(t *testing.T) {
	csvData := "\ufeffText,Stakeholder_Type,sector,language,extra\n" +
		"Deadlines are too tight,Business,Retail,EN,x\n" +
		",Citizen,,,\n" +
		"\"Quoted, with comma\",,,,\n" +
		"Short row\n"

	rows, skipped, err := readRows(strings.NewReader(csvData))
	require.NoError(t, err)

	assert.Equal(t, 1, skipped)
	require.Len(t, rows, 3)

	first := rows[0]
	assert.Equal(t, 2, first.line)
	assert.Equal(t, "Deadlines are too tight", first.req.Text)
	require.NotNil(t, first.req.StakeholderType)
	assert.Equal(t, "Business", *first.req.StakeholderType)
	require.NotNil(t, first.req.Language)
	assert.Equal(t, "en", *first.req.Language)

	assert.Equal(t, "Quoted, with comma", rows[1].req.Text)
	assert.Nil(t, rows[1].req.StakeholderType)
	assert.Equal(t, 4, rows[1].line)

	assert.Equal(t, "Short row", rows[2].req.Text)
	assert.Nil(t, rows[2].req.Sector)
}

func TestReadRows_MissingTextColumn(t *testing.T) {
	_, _, err := readRows(strings.NewReader("comment,sector\nhello,retail\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"text"`)
}

func TestReadRows_SkipsOversizedText(t *testing.T) {
	rows, skipped, err := readRows(strings.NewReader("text\n" + strings.Repeat("a", maxTextLen+1) + "\nok\n"))
	require.NoError(t, err)

	assert.Equal(t, 1, skipped)
	require.Len(t, rows, 1)
	assert.Equal(t, "ok", rows[0].req.Text)
}

func TestIngest(t *testing.T) {
	rows := []row{
		{line: 2, req: &apiclient.CreateFeedbackRequest{Text: "one"}},
		{line: 3, req: &apiclient.CreateFeedbackRequest{Text: "two"}},
		{line: 4, req: &apiclient.CreateFeedbackRequest{Text: "three"}},
	}
	limiter := rate.NewLimiter(rate.Inf, 1)

	t.Run("counts failures and keeps order", func(t *testing.T) {
		poster := &mockPoster{
			createFunc: func(_ context.Context, req *apiclient.CreateFeedbackRequest) (*apiclient.Feedback, error) {
				if req.Text == "two" {
					return nil, errors.New("boom")
				}

				return &apiclient.Feedback{ID: req.Text}, nil
			},
		}

		stats := ingest(context.Background(), poster, limiter, rows)

		assert.Equal(t, ingestStats{Created: 2, Failed: 1}, stats)
		assert.Equal(t, []string{"one", "two", "three"}, poster.calls)
	})

	t.Run("dry run posts nothing", func(t *testing.T) {
		stats := ingest(context.Background(), nil, limiter, rows)

		assert.Equal(t, 3, stats.Created)
	})

	t.Run("cancelled context stops", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		poster := &mockPoster{}
		stats := ingest(ctx, poster, rate.NewLimiter(rate.Limit(1), 1), rows)

		assert.Equal(t, 0, stats.Created)
		assert.Empty(t, poster.calls)
	})
}

func TestOptionsResolve(t *testing.T) {
	t.Setenv("API_URL", "http://api.internal:8080")
	t.Setenv("API_KEY", "env-key")

	opts := &options{rate: 5}
	require.NoError(t, opts.resolve())
	assert.Equal(t, "http://api.internal:8080", opts.apiURL)
	assert.Equal(t, "env-key", opts.apiKey)

	t.Setenv("API_KEY", "")

	missing := &options{rate: 5}
	require.Error(t, missing.resolve())

	dry := &options{rate: 5, dryRun: true}
	require.NoError(t, dry.resolve())

	badRate := &options{apiKey: "k", rate: 0}
	require.Error(t, badRate.resolve())
}
