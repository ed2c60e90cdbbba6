package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embeddingServer(t *testing.T, vector []float64) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "text-embedding-3-small", body["model"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  "text-embedding-3-small",
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": vector},
			},
			"usage": map[string]any{"prompt_tokens": 3, "total_tokens": 3},
		})
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestClient_CreateEmbedding(t *testing.T) {
	t.Run("returns vector", func(t *testing.T) {
		srv := embeddingServer(t, []float64{0.5, -0.25, 1})
		client := NewClient("sk-test", WithBaseURL(srv.URL), WithDimensions(3))

		got, err := client.CreateEmbedding(context.Background(), "  policy is unclear ")
		require.NoError(t, err)
		assert.Equal(t, []float32{0.5, -0.25, 1}, got)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		srv := embeddingServer(t, []float64{0.5, -0.25})
		client := NewClient("sk-test", WithBaseURL(srv.URL), WithDimensions(3))

		_, err := client.CreateEmbedding(context.Background(), "text")
		require.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("empty input", func(t *testing.T) {
		client := NewClient("sk-test")

		_, err := client.CreateEmbedding(context.Background(), "   ")
		require.ErrorIs(t, err, ErrEmptyInput)
	})

	t.Run("invalid dimensions", func(t *testing.T) {
		client := NewClient("sk-test", WithDimensions(0))

		_, err := client.CreateEmbedding(context.Background(), "text")
		require.ErrorIs(t, err, ErrInvalidDims)
	})

	t.Run("model option", func(t *testing.T) {
		assert.Equal(t, "text-embedding-3-small", NewClient("k", WithModel("")).Model())
		assert.Equal(t, "text-embedding-3-large", NewClient("k", WithModel("text-embedding-3-large")).Model())
	})
}
