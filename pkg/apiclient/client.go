// Package apiclient is a small HTTP client for the policy feedback API.
package apiclient

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

// DefaultBaseURL is the address of a locally running API.
const DefaultBaseURL = "http://localhost:8080"

const maxErrorBody = 4 << 10

// CreateFeedbackRequest is the body of POST /v1/feedback.
// It mirrors the server model so external tools need not import internal packages.
type CreateFeedbackRequest struct {
	Text            string  `json:"text"`
	Language        *string `json:"language,omitempty"`
	StakeholderType *string `json:"stakeholder_type,omitempty"`
	Sector          *string `json:"sector,omitempty"`
	PolicyID        *string `json:"policy_id,omitempty"`
}

// Feedback is the subset of the stored feedback returned on create.
type Feedback struct {
	ID        string `json:"id"`
	Sentiment string `json:"sentiment"`
	Language  string `json:"language"`
	IsSpam    bool   `json:"is_spam"`
}

// ClientOptions configures the API client
type ClientOptions struct {
	// BaseURL is the API root without the /v1 segment (default: DefaultBaseURL)
	BaseURL string
	// APIKey is sent as a bearer token
	APIKey string
	// RetryMax is the maximum number of retries (default: 3, negative disables retries)
	RetryMax int
	// Timeout is the HTTP client timeout (default: 30 seconds)
	Timeout time.Duration
}

// Client calls the feedback API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *retryablehttp.Client
}

// NewClient creates a client with default settings.
func NewClient(baseURL, apiKey string) *Client {
	return NewClientWithOptions(ClientOptions{BaseURL: baseURL, APIKey: apiKey})
}

// NewClientWithOptions creates a client with custom options
func NewClientWithOptions(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}

	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/v1")

	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	if opts.RetryMax == 0 {
		opts.RetryMax = 3
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = max(opts.RetryMax, 0)
	retryClient.HTTPClient.Timeout = opts.Timeout
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil

	return &Client{
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		httpClient: retryClient,
	}
}

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

// CreateFeedback submits one feedback item.
func (c *Client) CreateFeedback(ctx context.Context, req *CreateFeedbackRequest) (*Feedback, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/feedback", bytes.NewReader(payload))
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

	if resp.StatusCode != http.StatusCreated {
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if err != nil {
			slog.Error("Failed to read error response body", "error", err)
		}

		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var fb Feedback
	if err := json.NewDecoder(resp.Body).Decode(&fb); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &fb, nil
}
