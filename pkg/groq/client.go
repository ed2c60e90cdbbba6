// Package groq is a small client for OpenAI-compatible chat completion APIs
// (Groq by default).
package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// DefaultBaseURL is the Groq OpenAI-compatible endpoint.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// maxErrorBody caps how much of a failed response body is kept in APIError.
const maxErrorBody = 4 << 10

// ClientOptions configures the chat completion client
type ClientOptions struct {
	// BaseURL is the API root including the version segment (default: DefaultBaseURL)
	BaseURL string
	// APIKey is sent as a bearer token
	APIKey string
	// RetryMax is the maximum number of retries for 5xx and connection errors
	// (default: 2, negative disables retries)
	RetryMax int
	// Timeout is the HTTP client timeout (default: 60 seconds)
	Timeout time.Duration
}

// Client calls the chat completions endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *retryablehttp.Client
}

// NewClient creates a client for the Groq API with default settings
func NewClient(apiKey string) *Client {
	return NewClientWithOptions(ClientOptions{APIKey: apiKey})
}

// NewClientWithOptions creates a client with custom options
func NewClientWithOptions(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}

	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")

	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}

	if opts.RetryMax == 0 {
		opts.RetryMax = 2
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = max(opts.RetryMax, 0)
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 4 * time.Second
	retryClient.HTTPClient.Timeout = opts.Timeout
	retryClient.CheckRetry = retryPolicy
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil

	return &Client{
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		httpClient: retryClient,
	}
}

// retryPolicy retries server errors and transport failures. 429 is returned to
// the caller at once so it can move on to another model.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
		return false, nil
	}

	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// HasAPIKey reports whether a key was configured.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest is the request body of POST /chat/completions.
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
}

// Choice is one generated alternative.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage reports token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatCompletionResponse is the response body of POST /chat/completions.
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Content returns the trimmed text of the first choice, or "" when there is none.
func (r *ChatCompletionResponse) Content() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}

	return strings.TrimSpace(r.Choices[0].Message.Content)
}

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

// ModelGone reports whether the error says the requested model is retired or
// not served (400, 404 or 410, or a body mentioning decommissioning).
func (e *APIError) ModelGone() bool {
	switch e.StatusCode {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusGone:
		return true
	}

	return strings.Contains(strings.ToLower(e.Body), "decommissioned")
}

// CreateChatCompletion sends a chat completion request.
func (c *Client) CreateChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}

		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("Failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if err != nil {
			slog.Error("Failed to read error response body", "error", err)
		}

		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var out ChatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &out, nil
}
