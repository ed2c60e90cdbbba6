package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/RonitKhanna333/sih-final-2/internal/classifier"
	"github.com/RonitKhanna333/sih-final-2/internal/llm"
	"github.com/RonitKhanna333/sih-final-2/internal/models"
)

const (
	defaultChatHistory = 10
	chatCandidateLimit = 120
	chatContextLimit   = 30
	chatSnippetLen     = 220
	chatMaxTokens      = 380
	chatWarmingUpReply = "AI currently warming up. Please try again shortly."
	chatPreamble       = "You are an expert policy consultation analysis assistant. " +
		"Provide concise, actionable insights grounded in the supplied public feedback context. " +
		"If recommending actions, use bullet points. Keep tone professional and neutral."
)

// ChatService answers questions about the feedback corpus.
type ChatService struct {
	repo      RecentReader
	completer llm.Completer
	status    LLMStatus
}

// ChatServiceParams configures ChatService.
type ChatServiceParams struct {
	Repo      RecentReader
	Completer llm.Completer
	Status    LLMStatus
}

// NewChatService creates a ChatService.
func NewChatService(p ChatServiceParams) *ChatService {
	return &ChatService{repo: p.Repo, completer: p.Completer, status: p.Status}
}

// Chat replies to the last user message, optionally grounded in recent feedback.
// When no completion is possible the reply is a degraded heuristic.
func (s *ChatService) Chat(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	maxHistory := req.MaxHistory
	if maxHistory <= 0 {
		maxHistory = defaultChatHistory
	}

	history := req.Messages
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}

	question := latestUserMessage(history)

	var snippets []chatSnippet

	if req.IncludeContext == nil || *req.IncludeContext {
		var err error

		snippets, err = s.contextSnippets(ctx, req.SentimentFocus)
		if err != nil {
			return nil, err
		}
	}

	if s.completer == nil || (s.status != nil && !s.status.Health().Available) {
		return heuristicReply(snippets, question), nil
	}

	out, err := s.completer.Complete(ctx, chatPrompt(snippets, history), chatMaxTokens)
	if err != nil {
		slog.WarnContext(ctx, "Chat completion failed, replying heuristically", "error", err)

		return heuristicReply(snippets, question), nil
	}

	return &models.ChatResponse{Reply: out.Text, UsedContext: len(snippets), Model: out.Model}, nil
}

type chatSnippet struct {
	sentiment models.Sentiment
	text      string
}

func (c chatSnippet) String() string {
	return fmt.Sprintf("[%s] %s", c.sentiment, c.text)
}

func (s *ChatService) contextSnippets(ctx context.Context, focus *models.Sentiment) ([]chatSnippet, error) {
	recent, err := s.repo.FindRecent(ctx, chatCandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("recent feedback: %w", err)
	}

	out := make([]chatSnippet, 0, chatContextLimit)

	for i := range recent {
		if focus != nil && recent[i].Sentiment != *focus {
			continue
		}

		text := strings.ReplaceAll(recent[i].Text, "\n", " ")
		out = append(out, chatSnippet{sentiment: recent[i].Sentiment, text: classifier.Truncate(text, chatSnippetLen)})

		if len(out) == chatContextLimit {
			break
		}
	}

	return out, nil
}

func latestUserMessage(history []models.ChatMessage) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "user" {
			return history[i].Content
		}
	}

	return ""
}

func heuristicReply(snippets []chatSnippet, question string) *models.ChatResponse {
	if len(snippets) == 0 {
		return &models.ChatResponse{Reply: chatWarmingUpReply, Degraded: true}
	}

	counts := make(map[models.Sentiment]int, len(models.Sentiments))
	for _, sn := range snippets {
		counts[sn.sentiment]++
	}

	parts := make([]string, len(models.Sentiments))
	for i, sentiment := range models.Sentiments {
		parts[i] = fmt.Sprintf("%s:%d", sentiment, counts[sentiment])
	}

	var b strings.Builder

	b.WriteString("(Heuristic Mode) Based on sampled feedback: ")
	b.WriteString(strings.Join(parts, ", "))
	b.WriteString(". ")

	if question != "" {
		fmt.Fprintf(&b, "Your question: '%s'. ", question)
	}

	b.WriteString("Ask again once the full model is ready for deeper thematic insights.")

	return &models.ChatResponse{Reply: b.String(), UsedContext: len(snippets), Degraded: true}
}

func chatPrompt(snippets []chatSnippet, history []models.ChatMessage) string {
	var b strings.Builder

	b.WriteString(chatPreamble)
	fmt.Fprintf(&b, "\n\nRECENT FEEDBACK CONTEXT (sample of %d):\n", len(snippets))

	for i, sn := range snippets {
		if i > 0 {
			b.WriteString("\n")
		}

		b.WriteString("- ")
		b.WriteString(sn.String())
	}

	b.WriteString("\n\nCONVERSATION HISTORY:\n")

	for i, m := range history {
		if i > 0 {
			b.WriteString("\n")
		}

		b.WriteString(strings.ToUpper(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
	}

	b.WriteString("\n\nASSISTANT: Provide the best possible answer to the last user message.")

	return b.String()
}
