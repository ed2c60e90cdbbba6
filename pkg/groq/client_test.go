package groq

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClientWithOptions(ClientOptions{BaseURL: server.URL + "/", APIKey: "test-key", RetryMax: -1})
}

func TestClient_CreateChatCompletion(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

			var req ChatCompletionRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "llama-3.3-70b-versatile", req.Model)
			assert.Equal(t, 40, req.MaxTokens)
			require.Len(t, req.Messages, 1)
			assert.Equal(t, "user", req.Messages[0].Role)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"c1","model":"llama-3.3-70b-versatile","choices":[{"index":0,"message":{"role":"assistant","content":"  Cost Concerns \n"},"finish_reason":"stop"}]}`))
		})

		resp, err := client.CreateChatCompletion(context.Background(), ChatCompletionRequest{
			Model:     "llama-3.3-70b-versatile",
			Messages:  []Message{{Role: "user", Content: "label this"}},
			MaxTokens: 40,
		})
		require.NoError(t, err)
		assert.Equal(t, "Cost Concerns", resp.Content())
		assert.Equal(t, "llama-3.3-70b-versatile", resp.Model)
	})

	t.Run("rate limited is not retried", func(t *testing.T) {
		var calls atomic.Int32

		client := NewClientWithOptions(ClientOptions{APIKey: "k"})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"slow down"}`))
		}))
		t.Cleanup(server.Close)

		client.baseURL = server.URL

		_, err := client.CreateChatCompletion(context.Background(), ChatCompletionRequest{Model: "m"})

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
		assert.Contains(t, apiErr.Body, "slow down")
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("decommissioned model", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"The model has been decommissioned"}}`))
		})

		_, err := client.CreateChatCompletion(context.Background(), ChatCompletionRequest{Model: "old"})

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.True(t, apiErr.ModelGone())
	})

	t.Run("server error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := client.CreateChatCompletion(context.Background(), ChatCompletionRequest{Model: "m"})

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
		assert.False(t, apiErr.ModelGone())
	})

	t.Run("invalid json", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		})

		_, err := client.CreateChatCompletion(context.Background(), ChatCompletionRequest{Model: "m"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unmarshal")
	})
}

func TestChatCompletionResponse_Content(t *testing.T) {
	var nilResp *ChatCompletionResponse
	assert.Empty(t, nilResp.Content())
	assert.Empty(t, (&ChatCompletionResponse{}).Content())
}

func TestClient_HasAPIKey(t *testing.T) {
	assert.False(t, NewClient("").HasAPIKey())
	assert.True(t, NewClient("gsk").HasAPIKey())
}
