package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/RonitKhanna333/sih-final-2/internal/observability"
	"github.com/RonitKhanna333/sih-final-2/pkg/cache"
	"github.com/RonitKhanna333/sih-final-2/pkg/embeddings"
)

const (
	defaultCacheSize   = 5000
	defaultConcurrency = 4
	cacheName          = "embeddings"
)

// RemoteProvider embeds texts through an API Client. Vectors are cached per text
// (sha256 key) and concurrent misses for one text share a single call.
type RemoteProvider struct {
	name        string
	client      Client
	cache       *cache.LoaderCache[string, []float64]
	limiter     *rate.Limiter
	concurrency int
	metrics     observability.EmbeddingMetrics
	cacheStats  observability.CacheMetrics
}

// RemoteOption configures a RemoteProvider.
type RemoteOption func(*remoteOptions)

type remoteOptions struct {
	cacheSize   int
	rateLimit   float64
	concurrency int
	metrics     observability.EmbeddingMetrics
	cacheStats  observability.CacheMetrics
}

// WithCacheSize bounds the number of cached vectors.
func WithCacheSize(n int) RemoteOption {
	return func(o *remoteOptions) { o.cacheSize = n }
}

// WithRateLimit limits provider calls per second. Zero or negative disables limiting.
func WithRateLimit(perSecond float64) RemoteOption {
	return func(o *remoteOptions) { o.rateLimit = perSecond }
}

// WithConcurrency bounds in-flight provider calls for one Embed.
func WithConcurrency(n int) RemoteOption {
	return func(o *remoteOptions) { o.concurrency = n }
}

// WithMetrics records provider calls and cache hits. Either may be nil.
func WithMetrics(m observability.EmbeddingMetrics, c observability.CacheMetrics) RemoteOption {
	return func(o *remoteOptions) {
		o.metrics = m
		o.cacheStats = c
	}
}

func textKey(text string) string {
	sum := sha256.Sum256([]byte(text))

	return hex.EncodeToString(sum[:])
}

// NewRemoteProvider creates a provider named name over client. A nil client yields an unavailable provider.
func NewRemoteProvider(name string, client Client, opts ...RemoteOption) (*RemoteProvider, error) {
	o := remoteOptions{cacheSize: defaultCacheSize, concurrency: defaultConcurrency}
	for _, opt := range opts {
		opt(&o)
	}

	lc, err := cache.NewLoaderCache[string, []float64](o.cacheSize, textKey)
	if err != nil {
		return nil, fmt.Errorf("embedding cache: %w", err)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if o.rateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(o.rateLimit), 1)
	}

	return &RemoteProvider{
		name:        name,
		client:      client,
		cache:       lc,
		limiter:     limiter,
		concurrency: max(1, o.concurrency),
		metrics:     o.metrics,
		cacheStats:  o.cacheStats,
	}, nil
}

// Name returns the provider name given at construction.
func (p *RemoteProvider) Name() string {
	return p.name
}

// Available reports whether a client is configured.
func (p *RemoteProvider) Available() bool {
	return p != nil && p.client != nil
}

// Embed returns one vector per text. The first failure cancels the remaining calls.
func (p *RemoteProvider) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if !p.Available() {
		return nil, ErrUnavailable
	}

	out := make([][]float64, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, text := range texts {
		g.Go(func() error {
			vec, hit, err := p.cache.GetWithStats(gctx, text, p.load)
			if err != nil {
				return err
			}

			p.recordCache(gctx, hit)
			out[i] = vec

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

func (p *RemoteProvider) load(ctx context.Context, text string) ([]float64, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		p.recordRequest(ctx, "rate_limited", 0)

		return nil, fmt.Errorf("%s embedding rate limit: %w", p.name, err)
	}

	start := time.Now()

	vec, err := p.client.CreateEmbedding(ctx, text)
	if err != nil {
		p.recordRequest(ctx, "error", time.Since(start))
		slog.WarnContext(ctx, "embedding provider call failed", "provider", p.name, "error", err)

		return nil, err
	}

	p.recordRequest(ctx, "success", time.Since(start))

	return embeddings.FromFloat32(vec), nil
}

func (p *RemoteProvider) recordRequest(ctx context.Context, status string, d time.Duration) {
	if p.metrics == nil {
		return
	}

	p.metrics.RecordEmbeddingRequest(ctx, p.name, status)

	if d > 0 {
		p.metrics.RecordEmbeddingDuration(ctx, p.name, d)
	}
}

func (p *RemoteProvider) recordCache(ctx context.Context, hit bool) {
	if p.cacheStats == nil {
		return
	}

	if hit {
		p.cacheStats.RecordHit(ctx, cacheName)
	} else {
		p.cacheStats.RecordMiss(ctx, cacheName)
	}
}
