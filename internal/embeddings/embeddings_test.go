package embeddings

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/RonitKhanna333/sih-final-2/pkg/embeddings"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClient struct {
	calls atomic.Int32
	fn    func(ctx context.Context, input string) ([]float32, error)
}

func (f *fakeClient) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	f.calls.Add(1)

	if f.fn != nil {
		return f.fn(ctx, input)
	}

	return []float32{float32(len(input)), 1}, nil
}

type fakeEncoder struct {
	fn func(ctx context.Context, texts []string) ([][]float64, error)
}

func (f *fakeEncoder) Encode(ctx context.Context, texts []string) ([][]float64, error) {
	return f.fn(ctx, texts)
}

func TestRemoteProvider_Embed(t *testing.T) {
	t.Run("caches per text and preserves order", func(t *testing.T) {
		client := &fakeClient{}
		p, err := NewRemoteProvider(ProviderOpenAI, client, WithCacheSize(10))
		require.NoError(t, err)

		got, err := p.Embed(context.Background(), []string{"abc", "de", "abc"})
		require.NoError(t, err)
		assert.Equal(t, [][]float64{{3, 1}, {2, 1}, {3, 1}}, got)

		_, err = p.Embed(context.Background(), []string{"de"})
		require.NoError(t, err)

		// "abc" may be requested twice by the first batch only if singleflight misses; never more.
		assert.LessOrEqual(t, client.calls.Load(), int32(3))
		assert.GreaterOrEqual(t, client.calls.Load(), int32(2))
		assert.Equal(t, 2, p.cache.Len())
	})

	t.Run("provider error fails the batch and is not cached", func(t *testing.T) {
		boom := errors.New("boom")
		client := &fakeClient{fn: func(_ context.Context, input string) ([]float32, error) {
			if input == "bad" {
				return nil, boom
			}

			return []float32{1}, nil
		}}
		p, err := NewRemoteProvider(ProviderGoogle, client, WithConcurrency(1))
		require.NoError(t, err)

		_, err = p.Embed(context.Background(), []string{"good", "bad"})
		require.ErrorIs(t, err, boom)

		_, ok := p.cache.Peek("bad")
		assert.False(t, ok)
	})

	t.Run("nil client is unavailable", func(t *testing.T) {
		p, err := NewRemoteProvider(ProviderOpenAI, nil)
		require.NoError(t, err)

		assert.False(t, p.Available())

		_, err = p.Embed(context.Background(), []string{"x"})
		require.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("cancelled context stops rate limited calls", func(t *testing.T) {
		client := &fakeClient{}
		p, err := NewRemoteProvider(ProviderOpenAI, client, WithRateLimit(0.001))
		require.NoError(t, err)

		// The first call takes the single burst token.
		_, err = p.Embed(context.Background(), []string{"first"})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err = p.Embed(ctx, []string{"second"})
		require.Error(t, err)
		assert.Equal(t, int32(1), client.calls.Load())
	})
}

func TestONNXProvider(t *testing.T) {
	t.Run("nil encoder", func(t *testing.T) {
		p := NewONNXProvider(nil, nil)
		assert.False(t, p.Available())

		_, err := p.Embed(context.Background(), []string{"x"})
		require.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("delegates to encoder", func(t *testing.T) {
		p := NewONNXProvider(&fakeEncoder{fn: func(_ context.Context, texts []string) ([][]float64, error) {
			out := make([][]float64, len(texts))
			for i := range texts {
				out[i] = []float64{float64(i)}
			}

			return out, nil
		}}, nil)

		got, err := p.Embed(context.Background(), []string{"a", "b"})
		require.NoError(t, err)
		assert.Equal(t, [][]float64{{0}, {1}}, got)
		assert.Equal(t, ProviderONNX, p.Name())
	})
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider(16)

	got, err := p.Embed(context.Background(), []string{"same", "same", "other"})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Len(t, got[0], 16)
	assert.Equal(t, got[0], got[1])
	assert.NotEqual(t, got[0], got[2])
	assert.InDelta(t, 1.0, embeddings.Norm(got[0]), 1e-9)
}

func TestUnavailable(t *testing.T) {
	var p Provider = Unavailable{}

	assert.False(t, p.Available())

	_, err := p.Embed(context.Background(), []string{"x"})
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestTFIDFProvider_Embed(t *testing.T) {
	p := NewTFIDFProvider(0)

	t.Run("dimension is bounded by documents minus one", func(t *testing.T) {
		texts := []string{
			"water supply policy",
			"water tariff increase",
			"road safety rules",
			"road repair budget",
		}

		got, err := p.Embed(context.Background(), texts)
		require.NoError(t, err)
		require.Len(t, got, 4)

		for _, row := range got {
			assert.Len(t, row, 3)
		}
	})

	t.Run("identical texts project to the same direction", func(t *testing.T) {
		texts := []string{"water tariff", "road repair", "water tariff", "budget deficit"}

		got, err := p.Embed(context.Background(), texts)
		require.NoError(t, err)

		assert.InDelta(t, 1.0, embeddings.Cosine(got[0], got[2]), 1e-6)
	})

	t.Run("repeated text has rank one", func(t *testing.T) {
		texts := make([]string, 12)
		for i := range texts {
			texts[i] = "The consultation period is too short for farmers"
		}

		got, err := p.Embed(context.Background(), texts)
		require.NoError(t, err)
		require.Len(t, got, 12)

		for _, row := range got {
			assert.InDelta(t, got[0][0], row[0], 1e-9)

			for _, v := range row[1:] {
				assert.Zero(t, v)
			}
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		texts := []string{"privacy data consent", "data retention rules", "consent forms are long"}

		first, err := p.Embed(context.Background(), texts)
		require.NoError(t, err)

		second, err := p.Embed(context.Background(), texts)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("empty vocabulary", func(t *testing.T) {
		_, err := p.Embed(context.Background(), []string{"the", "a of", "!!"})
		require.ErrorIs(t, err, ErrEmptyVocabulary)

		_, err = p.Embed(context.Background(), nil)
		require.ErrorIs(t, err, ErrEmptyVocabulary)
	})

	t.Run("single text", func(t *testing.T) {
		got, err := p.Embed(context.Background(), []string{"policy consultation"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Len(t, got[0], 1)
	})
}

func TestBuildVocabulary(t *testing.T) {
	docs := [][]string{{"b", "a", "b"}, {"c", "a", "b"}}

	assert.Equal(t, map[string]int{"a": 0, "b": 1}, buildVocabulary(docs, 2))
}

func TestTFIDFMatrix(t *testing.T) {
	x := tfidfMatrix([][]string{{"x"}, {"x", "y"}}, map[string]int{"x": 0, "y": 1})

	assert.InDelta(t, 1.0, x.At(0, 0), 1e-9)
	assert.InDelta(t, 0.0, x.At(0, 1), 1e-9)
	assert.InDelta(t, 0.5797386715376657, x.At(1, 0), 1e-9)
	assert.InDelta(t, 0.8148024746671689, x.At(1, 1), 1e-9)
}
