package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/RonitKhanna333/sih-final-2/internal/classifier"
	"github.com/RonitKhanna333/sih-final-2/internal/models"
	"github.com/RonitKhanna333/sih-final-2/internal/observability"
)

// Minimal map reasons.
const (
	ReasonInsufficientData          = "Insufficient Data"
	ReasonEmbeddingModelUnavailable = "Embedding Model Unavailable"
	ReasonProjectionUnavailable     = "Projection Unavailable"
	ReasonClusteringUnavailable     = "Clustering Unavailable"
)

const (
	debateMapSnapshotLimit = 2000
	debateMapMinItems      = 10
	debateMapCacheKey      = "debate_map"
	debateMapCacheName     = "debate_map"
	defaultDebateMapTTL    = time.Hour

	minimalPointTextLen = 120
	fullPointTextLen    = 200
	labelSampleCount    = 5
	labelSampleLen      = 150
	maxKeyThemes        = 3
	maxConflictZones    = 3

	minimalColor     = "#6b7280"
	minimalNarrative = "Not enough data or model unavailable; showing minimal view."
	defaultTheme     = "General"
)

var clusterPalette = []string{"#3b82f6", "#ef4444", "#10b981", "#f59e0b", "#8b5cf6", "#ec4899"}

// SnapshotReader reads the newest feedback first.
type SnapshotReader interface {
	FindAll(ctx context.Context, limit, offset int) ([]models.Feedback, error)
}

// Projector lays texts out in 2D and clusters them.
type Projector interface {
	Project(ctx context.Context, texts []string) (*Projection, error)
}

// Narrator names clusters and summarises the map.
type Narrator interface {
	Label(ctx context.Context, clusterID int, samples []string) string
	Narrative(ctx context.Context, labels []string, itemCount int) string
}

// DebateMapService assembles the debate map and keeps the last result for a TTL.
type DebateMapService struct {
	repo         SnapshotReader
	projector    Projector
	narrator     Narrator
	cache        *expirable.LRU[string, *models.DebateMap]
	metrics      observability.PipelineMetrics
	cacheMetrics observability.CacheMetrics
	now          func() time.Time
}

// DebateMapServiceParams configures DebateMapService. Metrics may be nil.
type DebateMapServiceParams struct {
	Repo         SnapshotReader
	Projector    Projector
	Narrator     Narrator
	CacheTTL     time.Duration
	Metrics      observability.PipelineMetrics
	CacheMetrics observability.CacheMetrics
}

// NewDebateMapService creates a DebateMapService.
func NewDebateMapService(p DebateMapServiceParams) *DebateMapService {
	ttl := p.CacheTTL
	if ttl <= 0 {
		ttl = defaultDebateMapTTL
	}

	return &DebateMapService{
		repo:         p.Repo,
		projector:    p.Projector,
		narrator:     p.Narrator,
		cache:        expirable.NewLRU[string, *models.DebateMap](1, nil, ttl),
		metrics:      p.Metrics,
		cacheMetrics: p.CacheMetrics,
		now:          time.Now,
	}
}

// GetDebateMap returns the cached map while it is fresh, unless regenerate is set.
// A regenerated map replaces the cached one.
func (s *DebateMapService) GetDebateMap(ctx context.Context, regenerate bool) (*models.DebateMap, error) {
	if !regenerate {
		if cached, ok := s.cache.Get(debateMapCacheKey); ok {
			s.recordCache(ctx, true)

			return cached, nil
		}

		s.recordCache(ctx, false)
	}

	m, err := s.Generate(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.Add(debateMapCacheKey, m)

	return m, nil
}

// Invalidate drops the cached map.
func (s *DebateMapService) Invalidate() {
	s.cache.Purge()
}

// Generate builds a map from a fresh snapshot without touching the cache.
func (s *DebateMapService) Generate(ctx context.Context) (*models.DebateMap, error) {
	start := time.Now()

	items, err := s.repo.FindAll(ctx, debateMapSnapshotLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("read feedback snapshot: %w", err)
	}

	m, err := s.assemble(ctx, items)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		reason := "none"
		if m.Mode == models.DebateMapModeMinimal {
			reason = observability.Slug(m.Reason)
		}

		s.metrics.RecordDebateMap(ctx, m.Mode, reason, time.Since(start))
	}

	slog.InfoContext(ctx, "Debate map generated",
		"mode", m.Mode,
		"reason", m.Reason,
		"points", len(m.Points),
		"clusters", len(m.Clusters),
		"embedding_backend", m.EmbeddingBackend,
		"reducer", m.Reducer,
		"clusterer", m.Clusterer,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return m, nil
}

func (s *DebateMapService) assemble(ctx context.Context, items []models.Feedback) (*models.DebateMap, error) {
	if len(items) < debateMapMinItems {
		return s.minimal(items, ReasonInsufficientData), nil
	}

	texts := make([]string, len(items))
	for i := range items {
		texts[i] = items[i].Text
	}

	proj, err := s.projector.Project(ctx, texts)
	if err != nil {
		reason, ok := minimalReason(err)
		if !ok {
			return nil, fmt.Errorf("project feedback: %w", err)
		}

		slog.WarnContext(ctx, "Debate map degraded to minimal view", "reason", reason, "error", err)

		return s.minimal(items, reason), nil
	}

	return s.full(ctx, items, proj), nil
}

func minimalReason(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrEmbeddingUnavailable):
		return ReasonEmbeddingModelUnavailable, true
	case errors.Is(err, ErrProjectionUnavailable):
		return ReasonProjectionUnavailable, true
	case errors.Is(err, ErrClusteringUnavailable):
		return ReasonClusteringUnavailable, true
	default:
		return "", false
	}
}

func (s *DebateMapService) minimal(items []models.Feedback, reason string) *models.DebateMap {
	points := make([]models.DebatePoint, len(items))
	for i := range items {
		points[i] = models.DebatePoint{
			ID:              items[i].ID,
			X:               float64(i),
			Y:               0,
			ClusterID:       0,
			Sentiment:       items[i].Sentiment,
			Text:            classifier.Truncate(items[i].Text, minimalPointTextLen),
			StakeholderType: items[i].StakeholderType,
		}
	}

	return &models.DebateMap{
		Mode:   models.DebateMapModeMinimal,
		Reason: reason,
		Points: points,
		Clusters: []models.DebateCluster{{
			ID:               0,
			Label:            reason,
			Size:             len(items),
			AverageSentiment: models.SentimentNeutral,
			KeyThemes:        []string{reason},
			Color:            minimalColor,
		}},
		Narrative:      minimalNarrative,
		ConflictZones:  []models.ConflictZone{},
		ConsensusAreas: []string{reason},
		GeneratedAt:    s.now().UTC(),
	}
}

func (s *DebateMapService) full(ctx context.Context, items []models.Feedback, proj *Projection) *models.DebateMap {
	points := make([]models.DebatePoint, len(items))
	members := make(map[int][]int)

	var order []int

	for i := range items {
		label := proj.Labels[i]
		points[i] = models.DebatePoint{
			ID:              items[i].ID,
			X:               proj.Coords[i][0],
			Y:               proj.Coords[i][1],
			ClusterID:       label,
			Sentiment:       items[i].Sentiment,
			Text:            classifier.Truncate(items[i].Text, fullPointTextLen),
			StakeholderType: items[i].StakeholderType,
		}

		if label == models.NoiseClusterID {
			continue
		}

		if _, seen := members[label]; !seen {
			order = append(order, label)
		}

		members[label] = append(members[label], i)
	}

	slices.Sort(order)

	clusters := make([]models.DebateCluster, 0, len(order))
	labels := make([]string, 0, len(order))

	for _, id := range order {
		idx := members[id]

		samples := make([]string, 0, labelSampleCount)
		for _, i := range idx[:min(labelSampleCount, len(idx))] {
			samples = append(samples, classifier.Truncate(items[i].Text, labelSampleLen))
		}

		label := s.narrator.Label(ctx, id, samples)
		labels = append(labels, label)

		clusters = append(clusters, models.DebateCluster{
			ID:               id,
			Label:            label,
			Size:             len(idx),
			AverageSentiment: dominantSentiment(items, idx),
			KeyThemes:        keyThemes(items, idx),
			Color:            clusterPalette[id%len(clusterPalette)],
		})
	}

	consensus := []string{}

	for _, c := range clusters {
		if c.AverageSentiment == models.SentimentPositive {
			consensus = append(consensus, c.Label)
		}
	}

	return &models.DebateMap{
		Mode:             models.DebateMapModeFull,
		Points:           points,
		Clusters:         clusters,
		Narrative:        s.narrator.Narrative(ctx, labels, len(items)),
		ConflictZones:    conflictZones(clusters),
		ConsensusAreas:   consensus,
		EmbeddingBackend: proj.EmbeddingBackend,
		Reducer:          proj.Reducer,
		Clusterer:        proj.Clusterer,
		GeneratedAt:      s.now().UTC(),
	}
}

// dominantSentiment is the most common sentiment among idx; ties go to the
// sentiment seen first. An empty group is Neutral.
func dominantSentiment(items []models.Feedback, idx []int) models.Sentiment {
	counts := make(map[models.Sentiment]int, len(models.Sentiments))
	best := 0

	for _, i := range idx {
		counts[items[i].Sentiment]++
		best = max(best, counts[items[i].Sentiment])
	}

	for _, i := range idx {
		if counts[items[i].Sentiment] == best {
			return items[i].Sentiment
		}
	}

	return models.SentimentNeutral
}

// keyThemes lists up to three distinct stakeholder types in first-seen order.
func keyThemes(items []models.Feedback, idx []int) []string {
	seen := make(map[string]struct{})
	themes := make([]string, 0, maxKeyThemes)

	for _, i := range idx {
		st := items[i].StakeholderOr("")
		if st == "" {
			continue
		}

		if _, dup := seen[st]; dup {
			continue
		}

		seen[st] = struct{}{}
		themes = append(themes, st)

		if len(themes) == maxKeyThemes {
			break
		}
	}

	if len(themes) == 0 {
		return []string{defaultTheme}
	}

	return themes
}

// conflictZones pairs clusters with differing dominant sentiment in cluster order.
func conflictZones(clusters []models.DebateCluster) []models.ConflictZone {
	zones := []models.ConflictZone{}

	for i := range clusters {
		for j := i + 1; j < len(clusters); j++ {
			if clusters[i].AverageSentiment == clusters[j].AverageSentiment {
				continue
			}

			zones = append(zones, models.ConflictZone{
				Cluster1:    clusters[i].Label,
				Cluster2:    clusters[j].Label,
				Description: fmt.Sprintf("Conflicting views between %s and %s", clusters[i].Label, clusters[j].Label),
			})

			if len(zones) == maxConflictZones {
				return zones
			}
		}
	}

	return zones
}

func (s *DebateMapService) recordCache(ctx context.Context, hit bool) {
	if s.cacheMetrics == nil {
		return
	}

	if hit {
		s.cacheMetrics.RecordHit(ctx, debateMapCacheName)
	} else {
		s.cacheMetrics.RecordMiss(ctx, debateMapCacheName)
	}
}
