package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identity(s string) string { return s }

func TestLoaderCache_GetWithStats(t *testing.T) {
	loads := atomic.Int32{}

	c, err := NewLoaderCache[string, []float64](10, identity)
	require.NoError(t, err)

	ctx := context.Background()
	load := func(_ context.Context, key string) ([]float64, error) {
		loads.Add(1)

		return []float64{float64(len(key))}, nil
	}

	v, hit, err := c.GetWithStats(ctx, "abc", load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []float64{3}, v)

	v, hit, err = c.GetWithStats(ctx, "abc", load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []float64{3}, v)
	assert.Equal(t, int32(1), loads.Load())
}

func TestLoaderCache_ConcurrentMisses(t *testing.T) {
	loads := atomic.Int32{}

	c, err := NewLoaderCache[string, int](10, identity)
	require.NoError(t, err)

	ctx := context.Background()
	load := func(_ context.Context, _ string) (int, error) {
		loads.Add(1)

		return 42, nil
	}

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			val, err := c.Get(ctx, "x", load)
			assert.NoError(t, err)
			assert.Equal(t, 42, val)
		}()
	}

	wg.Wait()

	n := loads.Load()
	assert.GreaterOrEqual(t, n, int32(1))
	assert.LessOrEqual(t, n, int32(10))
	assert.Equal(t, 1, c.Len())
}

func TestLoaderCache_Invalidate(t *testing.T) {
	c, err := NewLoaderCache[string, string](10, identity)
	require.NoError(t, err)

	ctx := context.Background()
	load := func(_ context.Context, key string) (string, error) { return "v-" + key, nil }

	_, err = c.Get(ctx, "a", load)
	require.NoError(t, err)
	_, err = c.Get(ctx, "b", load)
	require.NoError(t, err)

	v, ok := c.Peek("a")
	assert.True(t, ok)
	assert.Equal(t, "v-a", v)

	c.Invalidate("a")
	assert.Equal(t, 1, c.Len())

	_, ok = c.Peek("a")
	assert.False(t, ok)

	c.InvalidateAll()
	assert.Equal(t, 0, c.Len())
}

func TestLoaderCache_LoadErrorNotCached(t *testing.T) {
	c, err := NewLoaderCache[string, string](10, identity)
	require.NoError(t, err)

	loadErr := errors.New("provider down")
	_, err = c.Get(context.Background(), "a", func(_ context.Context, _ string) (string, error) {
		return "", loadErr
	})

	require.ErrorIs(t, err, loadErr)
	assert.Equal(t, 0, c.Len())
}
