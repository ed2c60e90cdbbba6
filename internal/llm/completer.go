// Package llm wraps the chat completion API with model fallback, per-model
// timeouts, rate limiting and a typed failure.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/RonitKhanna333/sih-final-2/internal/observability"
	"github.com/RonitKhanna333/sih-final-2/pkg/groq"
)

// MockModel is the model name reported by mock completions.
const MockModel = "mock"

// placeholderKey is the key shipped in sample env files; it never authenticates.
const placeholderKey = "YOUR_LOCAL_GROQ_KEY"

const defaultTimeout = 45 * time.Second

// Message is one chat turn.
type Message = groq.Message

// Completion is the text of a successful completion and the model that produced it.
type Completion struct {
	Text  string
	Model string
}

// Completer produces text for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (Completion, error)
}

// ChatClient is the transport the Client calls. *groq.Client implements it.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req groq.ChatCompletionRequest) (*groq.ChatCompletionResponse, error)
}

// Health is a snapshot of the completer state.
type Health struct {
	Available   bool
	MockMode    bool
	Model       string
	LastFailure *Failure
	LastSuccess time.Time
}

// Client tries each configured model in order until one answers.
type Client struct {
	chat     ChatClient
	hasKey   bool
	models   []string
	timeout  time.Duration
	limiter  *rate.Limiter
	mockMode bool
	metrics  observability.LLMMetrics

	mu          sync.RWMutex
	lastModel   string
	lastFailure *Failure
	lastSuccess time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithModels sets the ordered model list. An empty list is ignored.
func WithModels(models []string) Option {
	return func(c *Client) {
		if len(models) > 0 {
			c.models = models
		}
	}
}

// WithTimeout bounds each model attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit limits completion calls per second. Zero or negative disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithMockMode answers every prompt locally without calling the API.
func WithMockMode(enabled bool) Option {
	return func(c *Client) { c.mockMode = enabled }
}

// WithMetrics records completion outcomes. A nil value disables recording.
func WithMetrics(m observability.LLMMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a Client. A nil chat client, an empty key or the sample
// placeholder key leave the client without credentials.
func NewClient(chat ChatClient, apiKey string, opts ...Option) *Client {
	key := strings.TrimSpace(apiKey)

	c := &Client{
		chat:    chat,
		hasKey:  chat != nil && key != "" && key != placeholderKey,
		timeout: defaultTimeout,
		limiter: rate.NewLimiter(rate.Inf, 1),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Complete sends prompt as a single user message.
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int) (Completion, error) {
	return c.CompleteMessages(ctx, []Message{{Role: "user", Content: prompt}}, maxTokens)
}

// CompleteMessages sends a conversation. Failures are always *Failure.
func (c *Client) CompleteMessages(ctx context.Context, msgs []Message, maxTokens int) (Completion, error) {
	if c.mockMode {
		return mockCompletion(msgs), nil
	}

	start := time.Now()

	out, err := c.complete(ctx, msgs, maxTokens)
	if err != nil {
		var f *Failure
		errors.As(err, &f)

		c.mu.Lock()
		c.lastFailure = f
		c.mu.Unlock()

		c.record(ctx, string(f.Reason), time.Since(start))

		return Completion{}, err
	}

	c.mu.Lock()
	c.lastModel = out.Model
	c.lastFailure = nil
	c.lastSuccess = time.Now()
	c.mu.Unlock()

	c.record(ctx, "success", time.Since(start))

	return out, nil
}

func (c *Client) complete(ctx context.Context, msgs []Message, maxTokens int) (Completion, error) {
	if !c.hasKey {
		return Completion{}, &Failure{Reason: ReasonNoCredentials, Detail: "no completion API key configured"}
	}

	if len(c.models) == 0 {
		return Completion{}, &Failure{Reason: ReasonModelUnavailable, Detail: "no models configured"}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return Completion{}, &Failure{Reason: ReasonRateLimited, Detail: "local rate limit", Err: err}
	}

	var last *Failure

	for _, model := range c.models {
		text, err := c.attempt(ctx, model, msgs, maxTokens)
		if err == nil {
			return Completion{Text: text, Model: model}, nil
		}

		last = classify(model, err)
		slog.WarnContext(ctx, "Completion attempt failed", "model", model, "reason", last.Reason, "error", err)

		// The caller gave up; further models would fail the same way.
		if ctx.Err() != nil {
			break
		}
	}

	return Completion{}, last
}

func (c *Client) attempt(ctx context.Context, model string, msgs []Message, maxTokens int) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.chat.CreateChatCompletion(attemptCtx, groq.ChatCompletionRequest{
		Model:     model,
		Messages:  msgs,
		MaxTokens: maxTokens,
	})
	if err != nil {
		if attemptCtx.Err() != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			err = fmt.Errorf("%w: %w", attemptCtx.Err(), err)
		}

		return "", err
	}

	text := resp.Content()
	if text == "" {
		return "", errEmptyResponse
	}

	return text, nil
}

var errEmptyResponse = errors.New("completion returned no content")

func classify(model string, err error) *Failure {
	f := &Failure{Model: model, Detail: err.Error(), Err: err}

	var apiErr *groq.APIError

	switch {
	case errors.Is(err, errEmptyResponse):
		f.Reason = ReasonEmptyResponse
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		f.Reason = ReasonTimeout
	case errors.As(err, &apiErr):
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			f.Reason = ReasonRateLimited
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			f.Reason = ReasonNoCredentials
		case apiErr.ModelGone():
			f.Reason = ReasonModelUnavailable
		default:
			f.Reason = ReasonHTTPStatus
		}
	default:
		f.Reason = ReasonTransport
	}

	return f
}

// Health returns the current state. Available means a call can be attempted.
func (c *Client) Health() Health {
	c.mu.RLock()
	defer c.mu.RUnlock()

	model := c.lastModel
	if model == "" && len(c.models) > 0 {
		model = c.models[0]
	}

	if c.mockMode {
		model = MockModel
	}

	return Health{
		Available:   c.mockMode || c.hasKey,
		MockMode:    c.mockMode,
		Model:       model,
		LastFailure: c.lastFailure,
		LastSuccess: c.lastSuccess,
	}
}

// Warmup sends a one-token prompt so the first user-facing call does not pay
// for a cold model.
func (c *Client) Warmup(ctx context.Context) error {
	if c.mockMode || !c.hasKey {
		return nil
	}

	_, err := c.Complete(ctx, "Reply with OK.", 1)

	return err
}

func (c *Client) record(ctx context.Context, outcome string, d time.Duration) {
	if c.metrics != nil {
		c.metrics.RecordCompletion(ctx, outcome, d)
	}
}

func mockCompletion(msgs []Message) Completion {
	var prompt string
	if len(msgs) > 0 {
		prompt = msgs[len(msgs)-1].Content
	}

	runes := []rune(prompt)
	if len(runes) > 60 {
		runes = runes[:60]
	}

	return Completion{Text: "[MOCK RESPONSE] " + string(runes) + "...", Model: MockModel}
}
