package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RonitKhanna333/sih-final-2/internal/llm"
	"github.com/RonitKhanna333/sih-final-2/internal/models"
)

func chatRepo(items []models.Feedback) *mockFeedbackStore {
	return &mockFeedbackStore{findRecentFunc: func(_ context.Context, limit int) ([]models.Feedback, error) {
		if limit != chatCandidateLimit {
			return nil, nil
		}

		return items, nil
	}}
}

func boolPtr(b bool) *bool { return &b }

func TestChatService_Chat(t *testing.T) {
	ctx := context.Background()
	available := &mockLLMStatus{health: llm.Health{Available: true}}
	unavailable := &mockLLMStatus{}

	history := append(feedbackItems(2, models.SentimentPositive, ""), feedbackItems(1, models.SentimentNegative, "")...)

	t.Run("grounded completion", func(t *testing.T) {
		completer := &mockCompleter{completeFunc: func(_ context.Context, _ string, maxTokens int) (llm.Completion, error) {
			assert.Equal(t, chatMaxTokens, maxTokens)

			return llm.Completion{Text: "Mostly positive.", Model: "m1"}, nil
		}}
		svc := NewChatService(ChatServiceParams{Repo: chatRepo(history), Completer: completer, Status: available})

		out, err := svc.Chat(ctx, &models.ChatRequest{Messages: []models.ChatMessage{
			{Role: "user", Content: "How do people feel?"},
		}})
		require.NoError(t, err)

		assert.Equal(t, "Mostly positive.", out.Reply)
		assert.Equal(t, "m1", out.Model)
		assert.Equal(t, 3, out.UsedContext)
		assert.False(t, out.Degraded)

		require.Len(t, completer.prompts, 1)
		assert.Contains(t, completer.prompts[0], "RECENT FEEDBACK CONTEXT (sample of 3):")
		assert.Contains(t, completer.prompts[0], "- [Negative] feedback number 0 about the policy")
		assert.Contains(t, completer.prompts[0], "USER: How do people feel?")
	})

	t.Run("history is trimmed", func(t *testing.T) {
		completer := &mockCompleter{}
		svc := NewChatService(ChatServiceParams{Repo: chatRepo(nil), Completer: completer, Status: available})

		_, err := svc.Chat(ctx, &models.ChatRequest{
			MaxHistory:     1,
			IncludeContext: boolPtr(false),
			Messages: []models.ChatMessage{
				{Role: "user", Content: "first question"},
				{Role: "assistant", Content: "first answer"},
				{Role: "user", Content: "second question"},
			},
		})
		require.NoError(t, err)

		require.Len(t, completer.prompts, 1)
		assert.NotContains(t, completer.prompts[0], "first question")
		assert.Contains(t, completer.prompts[0], "USER: second question")
	})

	t.Run("sentiment focus filters context", func(t *testing.T) {
		completer := &mockCompleter{}
		svc := NewChatService(ChatServiceParams{Repo: chatRepo(history), Completer: completer, Status: available})
		focus := models.SentimentNegative

		out, err := svc.Chat(ctx, &models.ChatRequest{
			SentimentFocus: &focus,
			Messages:       []models.ChatMessage{{Role: "user", Content: "Complaints?"}},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, out.UsedContext)
	})

	t.Run("unavailable without context warms up", func(t *testing.T) {
		svc := NewChatService(ChatServiceParams{Repo: chatRepo(nil), Completer: &mockCompleter{}, Status: unavailable})

		out, err := svc.Chat(ctx, &models.ChatRequest{Messages: []models.ChatMessage{{Role: "user", Content: "hi"}}})
		require.NoError(t, err)

		assert.Equal(t, chatWarmingUpReply, out.Reply)
		assert.True(t, out.Degraded)
		assert.Equal(t, 0, out.UsedContext)
	})

	t.Run("unavailable with context is heuristic", func(t *testing.T) {
		svc := NewChatService(ChatServiceParams{Repo: chatRepo(history), Completer: &mockCompleter{}, Status: unavailable})

		out, err := svc.Chat(ctx, &models.ChatRequest{Messages: []models.ChatMessage{{Role: "user", Content: "Summary?"}}})
		require.NoError(t, err)

		assert.Equal(t,
			"(Heuristic Mode) Based on sampled feedback: Positive:2, Negative:1, Neutral:0. "+
				"Your question: 'Summary?'. Ask again once the full model is ready for deeper thematic insights.",
			out.Reply)
		assert.True(t, out.Degraded)
		assert.Equal(t, 3, out.UsedContext)
	})

	t.Run("completion failure falls back", func(t *testing.T) {
		svc := NewChatService(ChatServiceParams{Repo: chatRepo(history), Completer: failingCompleter(), Status: available})

		out, err := svc.Chat(ctx, &models.ChatRequest{Messages: []models.ChatMessage{{Role: "assistant", Content: "hello"}}})
		require.NoError(t, err)

		assert.True(t, out.Degraded)
		assert.True(t, strings.HasPrefix(out.Reply, "(Heuristic Mode)"))
		assert.NotContains(t, out.Reply, "Your question")
	})
}
