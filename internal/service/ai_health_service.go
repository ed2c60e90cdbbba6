package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/RonitKhanna333/sih-final-2/internal/llm"
	"github.com/RonitKhanna333/sih-final-2/internal/models"
	"github.com/RonitKhanna333/sih-final-2/internal/observability"
)

// Degraded reasons reported by AI health.
const (
	DegradedEmbeddingModelNotLoaded = "embedding_model_not_loaded"
	DegradedLLMUnavailable          = "llm_unavailable"
	DegradedDebateMapMinimal        = "debate_map_minimal"
)

const (
	aiHealthCountsTTL     = time.Minute
	aiHealthCacheName     = "ai_health"
	aiHealthCountsKey     = "counts"
	debateMapModeNone     = "unavailable"
	minSimulationFeedback = 3
	minDebateMapFullItems = debateMapMinItems
)

// FeedbackCounter counts all stored feedback.
type FeedbackCounter interface {
	CountAll(ctx context.Context) (int64, error)
}

// PolicyCounter counts stored policies.
type PolicyCounter interface {
	Count(ctx context.Context) (int64, error)
}

// LLMStatus exposes the completion client state.
type LLMStatus interface {
	Health() llm.Health
}

// EmbeddingStatus exposes whether a real embedding model is configured.
type EmbeddingStatus interface {
	PrimaryAvailable() bool
	PrimaryName() string
}

// ModelStatus reports whether a local classification model is loaded.
type ModelStatus interface {
	ModelLoaded() bool
}

type storeCounts struct {
	feedback int64
	policies int64
}

// AIHealthService reports which AI features can run. Store counts are cached
// for a minute.
type AIHealthService struct {
	feedback     FeedbackCounter
	policies     PolicyCounter
	llm          LLMStatus
	embeddings   EmbeddingStatus
	sentiment    ModelStatus
	counts       *expirable.LRU[string, storeCounts]
	cacheMetrics observability.CacheMetrics
	now          func() time.Time
}

// AIHealthServiceParams configures AIHealthService. Sentiment and CacheMetrics may be nil.
type AIHealthServiceParams struct {
	Feedback     FeedbackCounter
	Policies     PolicyCounter
	LLM          LLMStatus
	Embeddings   EmbeddingStatus
	Sentiment    ModelStatus
	CacheMetrics observability.CacheMetrics
}

// NewAIHealthService creates an AIHealthService.
func NewAIHealthService(p AIHealthServiceParams) *AIHealthService {
	return &AIHealthService{
		feedback:     p.Feedback,
		policies:     p.Policies,
		llm:          p.LLM,
		embeddings:   p.Embeddings,
		sentiment:    p.Sentiment,
		counts:       expirable.NewLRU[string, storeCounts](1, nil, aiHealthCountsTTL),
		cacheMetrics: p.CacheMetrics,
		now:          time.Now,
	}
}

// Check builds the readiness report. It never fails: unreadable counts are
// reported as zero.
func (s *AIHealthService) Check(ctx context.Context) *models.AIHealth {
	counts := s.storeCounts(ctx)
	llmHealth := s.llm.Health()
	embLoaded := s.embeddings.PrimaryAvailable()

	degraded := []string{}
	if !embLoaded {
		degraded = append(degraded, DegradedEmbeddingModelNotLoaded)
	}

	if !llmHealth.Available {
		degraded = append(degraded, DegradedLLMUnavailable)
	}

	fullMap := embLoaded && counts.feedback >= minDebateMapFullItems

	mode := debateMapModeNone

	switch {
	case fullMap:
		mode = models.DebateMapModeFull
	case counts.feedback > 0:
		mode = models.DebateMapModeMinimal
	}

	if mode != models.DebateMapModeFull {
		degraded = append(degraded, DegradedDebateMapMinimal)
	}

	status := models.AIStatusReady

	switch {
	case llmHealth.MockMode:
		status = models.AIStatusReadyMock
	case len(degraded) == 0:
	case counts.feedback > 0:
		status = models.AIStatusDegraded
	default:
		status = models.AIStatusOffline
	}

	health := &models.AIHealth{
		Status:                  status,
		LLMAvailable:            llmHealth.Available,
		LLMModel:                llmHealth.Model,
		EmbeddingModelLoaded:    embLoaded,
		SentimentModelLoaded:    s.sentiment != nil && s.sentiment.ModelLoaded(),
		FeedbackCount:           counts.feedback,
		PolicyCount:             counts.policies,
		CanSimulate:             embLoaded && counts.feedback >= minSimulationFeedback,
		CanDebateMapFull:        fullMap,
		DebateMapMode:           mode,
		DocumentGenerationReady: llmHealth.Available,
		DegradedReasons:         degraded,
		MockMode:                llmHealth.MockMode,
		Timestamp:               s.now().UTC(),
	}

	if embLoaded {
		health.EmbeddingBackend = s.embeddings.PrimaryName()
	}

	return health
}

func (s *AIHealthService) storeCounts(ctx context.Context) storeCounts {
	if cached, ok := s.counts.Get(aiHealthCountsKey); ok {
		s.recordCache(ctx, true)

		return cached
	}

	s.recordCache(ctx, false)

	var c storeCounts

	n, err := s.feedback.CountAll(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Failed to count feedback", "error", err)
	} else {
		c.feedback = n
	}

	n, err = s.policies.Count(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Failed to count policies", "error", err)
	} else {
		c.policies = n
	}

	s.counts.Add(aiHealthCountsKey, c)

	return c
}

func (s *AIHealthService) recordCache(ctx context.Context, hit bool) {
	if s.cacheMetrics == nil {
		return
	}

	if hit {
		s.cacheMetrics.RecordHit(ctx, aiHealthCacheName)
	} else {
		s.cacheMetrics.RecordMiss(ctx, aiHealthCacheName)
	}
}
