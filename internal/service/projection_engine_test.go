package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RonitKhanna333/sih-final-2/internal/embeddings"
	"github.com/RonitKhanna333/sih-final-2/internal/reduce"
)

type fakeProvider struct {
	name      string
	available bool
	embedFunc func(texts []string) ([][]float64, error)
	calls     int
}

func (p *fakeProvider) Name() string    { return p.name }
func (p *fakeProvider) Available() bool { return p.available }

func (p *fakeProvider) Embed(_ context.Context, texts []string) ([][]float64, error) {
	p.calls++

	return p.embedFunc(texts)
}

// blobVectors puts "left" texts near the origin and the rest near (10, 10, 10).
func blobVectors(texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		jitter := float64(i%4) * 0.1
		if strings.HasPrefix(t, "left") {
			out[i] = []float64{jitter, 0.05 * float64(i%3), 0}
		} else {
			out[i] = []float64{10 + jitter, 10, 10 - 0.05*float64(i%3)}
		}
	}

	return out, nil
}

func blobTexts() []string {
	var texts []string
	for range 8 {
		texts = append(texts, "left item")
	}

	for range 8 {
		texts = append(texts, "right item")
	}

	return texts
}

func TestProjectionEngine_Embed(t *testing.T) {
	ctx := context.Background()

	t.Run("primary used when available", func(t *testing.T) {
		primary := &fakeProvider{name: "onnx", available: true, embedFunc: blobVectors}
		fallback := &fakeProvider{name: "tfidf", available: true, embedFunc: blobVectors}
		engine := NewProjectionEngine(ProjectionEngineParams{Primary: primary, Fallback: fallback})

		_, backend, err := engine.Embed(ctx, []string{"left"})
		require.NoError(t, err)
		assert.Equal(t, "onnx", backend)
		assert.Equal(t, 0, fallback.calls)
		assert.True(t, engine.PrimaryAvailable())
	})

	t.Run("primary failure falls back", func(t *testing.T) {
		primary := &fakeProvider{name: "openai", available: true, embedFunc: func([]string) ([][]float64, error) {
			return nil, errors.New("quota")
		}}
		fallback := &fakeProvider{name: "tfidf", available: true, embedFunc: blobVectors}
		engine := NewProjectionEngine(ProjectionEngineParams{Primary: primary, Fallback: fallback})

		_, backend, err := engine.Embed(ctx, []string{"left"})
		require.NoError(t, err)
		assert.Equal(t, "tfidf", backend)
	})

	t.Run("no primary configured", func(t *testing.T) {
		engine := NewProjectionEngine(ProjectionEngineParams{})

		assert.False(t, engine.PrimaryAvailable())
		assert.Equal(t, "none", engine.PrimaryName())

		vectors, backend, err := engine.Embed(ctx, []string{"tax relief for farmers", "privacy of citizens"})
		require.NoError(t, err)
		assert.Equal(t, embeddings.ProviderTFIDF, backend)
		assert.Len(t, vectors, 2)
	})

	t.Run("both fail", func(t *testing.T) {
		failing := &fakeProvider{name: "tfidf", available: true, embedFunc: func([]string) ([][]float64, error) {
			return nil, embeddings.ErrEmptyVocabulary
		}}
		engine := NewProjectionEngine(ProjectionEngineParams{Fallback: failing})

		_, _, err := engine.Embed(ctx, []string{"!!"})
		require.ErrorIs(t, err, ErrEmbeddingUnavailable)
		require.ErrorIs(t, err, embeddings.ErrEmptyVocabulary)
	})
}

func TestProjectionEngine_Project(t *testing.T) {
	ctx := context.Background()
	texts := blobTexts()

	t.Run("two blobs", func(t *testing.T) {
		engine := NewProjectionEngine(ProjectionEngineParams{
			Primary:  &fakeProvider{name: "mock", available: true, embedFunc: blobVectors},
			Reducers: reduce.Chain{reduce.PCA{}},
		})

		proj, err := engine.Project(ctx, texts)
		require.NoError(t, err)

		assert.Equal(t, "mock", proj.EmbeddingBackend)
		assert.Equal(t, "pca", proj.Reducer)
		require.Len(t, proj.Coords, len(texts))
		require.Len(t, proj.Labels, len(texts))

		for i := 1; i < 8; i++ {
			assert.Equal(t, proj.Labels[0], proj.Labels[i])
			assert.Equal(t, proj.Labels[8], proj.Labels[8+i])
		}

		assert.NotEqual(t, proj.Labels[0], proj.Labels[8])
	})

	t.Run("identical vectors cannot be projected", func(t *testing.T) {
		same := func(texts []string) ([][]float64, error) {
			out := make([][]float64, len(texts))
			for i := range out {
				out[i] = []float64{1, 1}
			}

			return out, nil
		}
		engine := NewProjectionEngine(ProjectionEngineParams{
			Primary: &fakeProvider{name: "mock", available: true, embedFunc: same},
		})

		_, err := engine.Project(ctx, texts)
		require.ErrorIs(t, err, ErrProjectionUnavailable)
	})

	t.Run("identical texts through tf-idf cannot be projected", func(t *testing.T) {
		copies := make([]string, 60)
		for i := range copies {
			copies[i] = "Small businesses cannot absorb the new compliance cost"
		}

		_, err := NewProjectionEngine(ProjectionEngineParams{}).Project(ctx, copies)
		require.ErrorIs(t, err, ErrProjectionUnavailable)
		assert.ErrorIs(t, err, reduce.ErrExhausted)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		engine := NewProjectionEngine(ProjectionEngineParams{
			Primary: &fakeProvider{name: "mock", available: true, embedFunc: blobVectors},
		})

		_, err := engine.Project(cctx, texts)
		require.ErrorIs(t, err, context.Canceled)
	})
}
