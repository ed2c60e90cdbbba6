package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/RonitKhanna333/sih-final-2/pkg/groq"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type mockChat struct {
	mu     sync.Mutex
	models []string
	fn     func(ctx context.Context, req groq.ChatCompletionRequest) (*groq.ChatCompletionResponse, error)
}

func (m *mockChat) CreateChatCompletion(ctx context.Context, req groq.ChatCompletionRequest) (*groq.ChatCompletionResponse, error) {
	m.mu.Lock()
	m.models = append(m.models, req.Model)
	m.mu.Unlock()

	return m.fn(ctx, req)
}

func reply(text string) *groq.ChatCompletionResponse {
	return &groq.ChatCompletionResponse{Choices: []groq.Choice{{Message: groq.Message{Role: "assistant", Content: text}}}}
}

type recordedOutcome struct {
	outcome string
}

type fakeLLMMetrics struct {
	mu       sync.Mutex
	outcomes []recordedOutcome
}

func (f *fakeLLMMetrics) RecordCompletion(_ context.Context, outcome string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.outcomes = append(f.outcomes, recordedOutcome{outcome: outcome})
}

func TestClient_Complete(t *testing.T) {
	models := []string{"primary", "secondary"}

	t.Run("first model answers", func(t *testing.T) {
		chat := &mockChat{fn: func(_ context.Context, req groq.ChatCompletionRequest) (*groq.ChatCompletionResponse, error) {
			assert.Equal(t, 40, req.MaxTokens)
			require.Len(t, req.Messages, 1)
			assert.Equal(t, "label me", req.Messages[0].Content)

			return reply("Cost Concerns"), nil
		}}
		metrics := &fakeLLMMetrics{}
		c := NewClient(chat, "gsk_test", WithModels(models), WithMetrics(metrics))

		out, err := c.Complete(context.Background(), "label me", 40)
		require.NoError(t, err)
		assert.Equal(t, Completion{Text: "Cost Concerns", Model: "primary"}, out)
		assert.Equal(t, []string{"primary"}, chat.models)
		assert.Equal(t, []recordedOutcome{{"success"}}, metrics.outcomes)
		assert.Equal(t, "primary", c.Health().Model)
	})

	t.Run("decommissioned model falls through to the next", func(t *testing.T) {
		chat := &mockChat{fn: func(_ context.Context, req groq.ChatCompletionRequest) (*groq.ChatCompletionResponse, error) {
			if req.Model == "primary" {
				return nil, &groq.APIError{StatusCode: http.StatusBadRequest, Body: "model decommissioned"}
			}

			return reply("ok"), nil
		}}
		c := NewClient(chat, "gsk_test", WithModels(models))

		out, err := c.Complete(context.Background(), "p", 10)
		require.NoError(t, err)
		assert.Equal(t, "secondary", out.Model)
		assert.Equal(t, models, chat.models)
	})

	t.Run("timeout per model", func(t *testing.T) {
		chat := &mockChat{fn: func(ctx context.Context, req groq.ChatCompletionRequest) (*groq.ChatCompletionResponse, error) {
			if req.Model == "primary" {
				<-ctx.Done()

				return nil, ctx.Err()
			}

			return reply("late but fine"), nil
		}}
		c := NewClient(chat, "gsk_test", WithModels(models), WithTimeout(20*time.Millisecond))

		out, err := c.Complete(context.Background(), "p", 10)
		require.NoError(t, err)
		assert.Equal(t, "secondary", out.Model)
	})

	t.Run("every model failing returns the last failure", func(t *testing.T) {
		chat := &mockChat{fn: func(_ context.Context, req groq.ChatCompletionRequest) (*groq.ChatCompletionResponse, error) {
			if req.Model == "primary" {
				return nil, &groq.APIError{StatusCode: http.StatusTooManyRequests}
			}

			return reply("   "), nil
		}}
		metrics := &fakeLLMMetrics{}
		c := NewClient(chat, "gsk_test", WithModels(models), WithMetrics(metrics))

		_, err := c.Complete(context.Background(), "p", 10)

		var f *Failure
		require.True(t, errors.As(err, &f))
		assert.Equal(t, ReasonEmptyResponse, f.Reason)
		assert.Equal(t, "secondary", f.Model)
		assert.Equal(t, []recordedOutcome{{"empty_response"}}, metrics.outcomes)
		assert.Same(t, f, c.Health().LastFailure)
	})

	t.Run("missing or placeholder key never calls the API", func(t *testing.T) {
		for _, key := range []string{"", "  ", "YOUR_LOCAL_GROQ_KEY"} {
			chat := &mockChat{fn: func(context.Context, groq.ChatCompletionRequest) (*groq.ChatCompletionResponse, error) {
				t.Fatal("unexpected call")

				return nil, nil
			}}
			c := NewClient(chat, key, WithModels(models))

			_, err := c.Complete(context.Background(), "p", 10)
			reason, ok := ReasonOf(err)
			require.True(t, ok)
			assert.Equal(t, ReasonNoCredentials, reason)
			assert.False(t, c.Health().Available)
		}
	})

	t.Run("nil chat client has no credentials", func(t *testing.T) {
		c := NewClient(nil, "gsk_test")

		_, err := c.Complete(context.Background(), "p", 10)
		reason, _ := ReasonOf(err)
		assert.Equal(t, ReasonNoCredentials, reason)
	})

	t.Run("cancelled caller stops after the first model", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		chat := &mockChat{fn: func(context.Context, groq.ChatCompletionRequest) (*groq.ChatCompletionResponse, error) {
			cancel()

			return nil, errors.New("connection reset")
		}}
		c := NewClient(chat, "gsk_test", WithModels(models))

		_, err := c.Complete(ctx, "p", 10)
		require.Error(t, err)
		assert.Equal(t, []string{"primary"}, chat.models)
	})
}

func TestClient_MockMode(t *testing.T) {
	c := NewClient(nil, "", WithMockMode(true))

	prompt := strings.Repeat("a", 80)

	out, err := c.Complete(context.Background(), prompt, 10)
	require.NoError(t, err)
	assert.Equal(t, MockModel, out.Model)
	assert.Equal(t, "[MOCK RESPONSE] "+strings.Repeat("a", 60)+"...", out.Text)

	h := c.Health()
	assert.True(t, h.Available)
	assert.True(t, h.MockMode)
	assert.Equal(t, MockModel, h.Model)
	assert.NoError(t, c.Warmup(context.Background()))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Reason
	}{
		{"rate limited", &groq.APIError{StatusCode: 429}, ReasonRateLimited},
		{"unauthorized", &groq.APIError{StatusCode: 401}, ReasonNoCredentials},
		{"gone", &groq.APIError{StatusCode: 410}, ReasonModelUnavailable},
		{"server error", &groq.APIError{StatusCode: 502}, ReasonHTTPStatus},
		{"deadline", context.DeadlineExceeded, ReasonTimeout},
		{"empty", errEmptyResponse, ReasonEmptyResponse},
		{"transport", errors.New("dial tcp: refused"), ReasonTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify("m", tt.err).Reason; got != tt.want {
				t.Errorf("classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFailure_Error(t *testing.T) {
	f := &Failure{Reason: ReasonTimeout, Model: "m", Detail: "deadline"}
	assert.Equal(t, "completion failed (timeout, model m): deadline", f.Error())

	f = &Failure{Reason: ReasonNoCredentials, Detail: "no key"}
	assert.Equal(t, "completion failed (no_credentials): no key", f.Error())
}
