package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RonitKhanna333/sih-final-2/internal/models"
)

type mockEdgeCaseMatcher struct {
	matchFunc func(ctx context.Context, text string) (string, bool)
	calls     int
}

func (m *mockEdgeCaseMatcher) Match(ctx context.Context, text string) (string, bool) {
	m.calls++

	if m.matchFunc != nil {
		return m.matchFunc(ctx, text)
	}

	return "", false
}

type mockRefresher struct {
	err   error
	calls int
}

func (m *mockRefresher) EnqueueDebateMapRefresh(context.Context) error {
	m.calls++

	return m.err
}

func TestFeedbackService_CreateFeedback(t *testing.T) {
	t.Run("scores and stores", func(t *testing.T) {
		var stored *models.Feedback

		repo := &mockFeedbackStore{createFunc: func(_ context.Context, fb *models.Feedback) (*models.Feedback, error) {
			stored = fb

			return fb, nil
		}}
		matcher := &mockEdgeCaseMatcher{matchFunc: func(context.Context, string) (string, bool) {
			return "Small vendors lack compliance staff.", true
		}}
		refresher := &mockRefresher{}

		svc := NewFeedbackService(FeedbackServiceParams{Repo: repo, EdgeCases: matcher, Refresher: refresher})

		out, err := svc.CreateFeedback(context.Background(), &models.CreateFeedbackRequest{
			Text:            "  This policy is excellent and will help small businesses grow.  ",
			StakeholderType: strPtr("  "),
			Sector:          strPtr(" Retail "),
		})
		require.NoError(t, err)
		require.NotNil(t, stored)

		assert.Equal(t, "This policy is excellent and will help small businesses grow.", out.Text)
		assert.Equal(t, models.SentimentPositive, out.Sentiment)
		assert.Equal(t, models.LanguageEnglish, out.Language)
		assert.Nil(t, out.StakeholderType)
		require.NotNil(t, out.Sector)
		assert.Equal(t, "Retail", *out.Sector)
		require.NotNil(t, out.EdgeCaseMatch)
		assert.Equal(t, "Small vendors lack compliance staff.", *out.EdgeCaseMatch)
		require.NotNil(t, out.Summary)
		assert.Equal(t, 7, int(out.ID.Version()))
		assert.Equal(t, 1, refresher.calls)
	})

	t.Run("refresh failure does not fail ingestion", func(t *testing.T) {
		svc := NewFeedbackService(FeedbackServiceParams{
			Repo:      &mockFeedbackStore{},
			Refresher: &mockRefresher{err: errors.New("queue down")},
		})

		_, err := svc.CreateFeedback(context.Background(), &models.CreateFeedbackRequest{Text: "Reasonable rule."})
		require.NoError(t, err)
	})

	t.Run("repository error", func(t *testing.T) {
		refresher := &mockRefresher{}
		svc := NewFeedbackService(FeedbackServiceParams{
			Repo: &mockFeedbackStore{createFunc: func(context.Context, *models.Feedback) (*models.Feedback, error) {
				return nil, errors.New("insert failed")
			}},
			Refresher: refresher,
		})

		_, err := svc.CreateFeedback(context.Background(), &models.CreateFeedbackRequest{Text: "Reasonable rule."})
		require.Error(t, err)
		assert.Equal(t, 0, refresher.calls)
	})
}

func TestFeedbackService_AnalyzeText_SpamSkipsEdgeCases(t *testing.T) {
	matcher := &mockEdgeCaseMatcher{}
	svc := NewFeedbackService(FeedbackServiceParams{Repo: &mockFeedbackStore{}, EdgeCases: matcher})

	out := svc.AnalyzeText(context.Background(), "BUY NOW!!! click here http://spam.example", nil)

	assert.True(t, out.IsSpam)
	assert.Nil(t, out.EdgeCaseMatch)
	assert.Equal(t, 0, matcher.calls)
}

func TestFeedbackService_ListFeedback(t *testing.T) {
	tests := []struct {
		name       string
		filters    models.ListFeedbackFilters
		wantLimit  int
		wantOffset int
		wantPage   int
	}{
		{"defaults", models.ListFeedbackFilters{}, defaultListLimit, 0, 1},
		{"limit capped", models.ListFeedbackFilters{Limit: 5000}, maxListLimit, 0, 1},
		{"page overrides offset", models.ListFeedbackFilters{Limit: 10, Offset: 3, Page: 3}, 10, 20, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *models.ListFeedbackFilters

			repo := &mockFeedbackStore{
				listFunc: func(_ context.Context, f *models.ListFeedbackFilters) ([]models.Feedback, error) {
					seen = f

					return []models.Feedback{{Text: "a"}}, nil
				},
				countFunc: func(context.Context, *models.ListFeedbackFilters) (int64, error) { return 45, nil },
			}

			filters := tt.filters

			out, err := NewFeedbackService(FeedbackServiceParams{Repo: repo}).ListFeedback(context.Background(), &filters)
			require.NoError(t, err)

			assert.Equal(t, tt.wantLimit, seen.Limit)
			assert.Equal(t, tt.wantOffset, seen.Offset)
			assert.Equal(t, tt.wantPage, out.Pagination.Page)
			assert.Equal(t, int64(45), out.Pagination.Total)
		})
	}
}
