package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/RonitKhanna333/sih-final-2/internal/llm"
	"github.com/RonitKhanna333/sih-final-2/internal/models"
)

// mockFeedbackStore implements every feedback read and write the services need.
type mockFeedbackStore struct {
	createFunc     func(ctx context.Context, fb *models.Feedback) (*models.Feedback, error)
	getByIDFunc    func(ctx context.Context, id uuid.UUID) (*models.Feedback, error)
	listFunc       func(ctx context.Context, filters *models.ListFeedbackFilters) ([]models.Feedback, error)
	countFunc      func(ctx context.Context, filters *models.ListFeedbackFilters) (int64, error)
	countAllFunc   func(ctx context.Context) (int64, error)
	findAllFunc    func(ctx context.Context, limit, offset int) ([]models.Feedback, error)
	findRecentFunc func(ctx context.Context, limit int) ([]models.Feedback, error)
	findFunc       func(ctx context.Context, q models.FeedbackQuery) ([]models.Feedback, error)
	statsFunc      func(ctx context.Context) (*models.FeedbackStats, error)
	kpisFunc       func(ctx context.Context) (*models.KPIStats, error)
	textsFunc      func(ctx context.Context, q models.TextQuery) ([]string, error)
}

func (m *mockFeedbackStore) Create(ctx context.Context, fb *models.Feedback) (*models.Feedback, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, fb)
	}

	return fb, nil
}

func (m *mockFeedbackStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Feedback, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}

	return nil, nil
}

func (m *mockFeedbackStore) List(ctx context.Context, filters *models.ListFeedbackFilters) ([]models.Feedback, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filters)
	}

	return nil, nil
}

func (m *mockFeedbackStore) Count(ctx context.Context, filters *models.ListFeedbackFilters) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, filters)
	}

	return 0, nil
}

func (m *mockFeedbackStore) CountAll(ctx context.Context) (int64, error) {
	if m.countAllFunc != nil {
		return m.countAllFunc(ctx)
	}

	return 0, nil
}

func (m *mockFeedbackStore) FindAll(ctx context.Context, limit, offset int) ([]models.Feedback, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, limit, offset)
	}

	return nil, nil
}

func (m *mockFeedbackStore) FindRecent(ctx context.Context, limit int) ([]models.Feedback, error) {
	if m.findRecentFunc != nil {
		return m.findRecentFunc(ctx, limit)
	}

	return nil, nil
}

func (m *mockFeedbackStore) Find(ctx context.Context, q models.FeedbackQuery) ([]models.Feedback, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, q)
	}

	return nil, nil
}

func (m *mockFeedbackStore) Stats(ctx context.Context) (*models.FeedbackStats, error) {
	if m.statsFunc != nil {
		return m.statsFunc(ctx)
	}

	return &models.FeedbackStats{}, nil
}

func (m *mockFeedbackStore) KPIs(ctx context.Context) (*models.KPIStats, error) {
	if m.kpisFunc != nil {
		return m.kpisFunc(ctx)
	}

	return &models.KPIStats{}, nil
}

func (m *mockFeedbackStore) Texts(ctx context.Context, q models.TextQuery) ([]string, error) {
	if m.textsFunc != nil {
		return m.textsFunc(ctx, q)
	}

	return nil, nil
}

type mockCompleter struct {
	completeFunc func(ctx context.Context, prompt string, maxTokens int) (llm.Completion, error)
	prompts      []string
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string, maxTokens int) (llm.Completion, error) {
	m.prompts = append(m.prompts, prompt)

	if m.completeFunc != nil {
		return m.completeFunc(ctx, prompt, maxTokens)
	}

	return llm.Completion{Text: "ok", Model: "test-model"}, nil
}

func failingCompleter() *mockCompleter {
	return &mockCompleter{completeFunc: func(context.Context, string, int) (llm.Completion, error) {
		return llm.Completion{}, &llm.Failure{Reason: llm.ReasonNoCredentials}
	}}
}

type mockEmbedder struct {
	embedFunc func(ctx context.Context, texts []string) ([][]float64, string, error)
	primary   bool
}

func (m *mockEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, string, error) {
	if m.embedFunc != nil {
		return m.embedFunc(ctx, texts)
	}

	return nil, "", fmt.Errorf("no embedFunc")
}

func (m *mockEmbedder) PrimaryAvailable() bool { return m.primary }

func (m *mockEmbedder) PrimaryName() string {
	if m.primary {
		return "mock"
	}

	return "none"
}

// keywordEmbedder maps each text to a count vector over keywords.
func keywordEmbedder(keywords ...string) *mockEmbedder {
	return &mockEmbedder{
		primary: true,
		embedFunc: func(_ context.Context, texts []string) ([][]float64, string, error) {
			out := make([][]float64, len(texts))
			for i, t := range texts {
				v := make([]float64, len(keywords))
				for j, k := range keywords {
					if strings.Contains(t, k) {
						v[j] = 1
					}
				}

				out[i] = v
			}

			return out, "mock", nil
		},
	}
}

type mockLLMStatus struct {
	health llm.Health
}

func (m *mockLLMStatus) Health() llm.Health { return m.health }

type mockPolicyCounter struct {
	countFunc func(ctx context.Context) (int64, error)
}

func (m *mockPolicyCounter) Count(ctx context.Context) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}

	return 0, nil
}

type mockModelStatus bool

func (m mockModelStatus) ModelLoaded() bool { return bool(m) }

func strPtr(s string) *string { return &s }

func feedbackItems(n int, sentiment models.Sentiment, stakeholder string) []models.Feedback {
	out := make([]models.Feedback, n)
	for i := range out {
		out[i] = models.Feedback{
			ID:        uuid.New(),
			Text:      fmt.Sprintf("feedback number %d about the policy", i),
			Sentiment: sentiment,
		}

		if stakeholder != "" {
			out[i].StakeholderType = strPtr(stakeholder)
		}
	}

	return out
}
