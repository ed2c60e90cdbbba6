package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/RonitKhanna333/sih-final-2/internal/apperrors"
	"github.com/RonitKhanna333/sih-final-2/internal/cluster"
	"github.com/RonitKhanna333/sih-final-2/internal/models"
)

const (
	clusteringSnapshotLimit = 2000
	defaultNumClusters      = 3
	maxSilhouettePoints     = 2000
	maxElbowK               = 10
	degenerateClusterMsg    = "Not enough distinct feedback to form clusters."
	unembeddableClusterMsg  = "Feedback could not be embedded; no clusters were formed."
	distinctTolerance       = 1e-9
)

// Embedder turns texts into vectors and names the backend that did it.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, string, error)
}

// ClusteringService groups stored feedback with KMeans over text embeddings.
type ClusteringService struct {
	repo     SnapshotReader
	embedder Embedder
}

// NewClusteringService creates a ClusteringService.
func NewClusteringService(repo SnapshotReader, embedder Embedder) *ClusteringService {
	return &ClusteringService{repo: repo, embedder: embedder}
}

// ClusterFeedback clusters the newest feedback snapshot. Asking for more clusters
// than there are items is a validation error; a snapshot that cannot be embedded
// or lacks two distinct vectors yields a degraded result with no groups.
func (s *ClusteringService) ClusterFeedback(ctx context.Context, req *models.ClusterRequest) (*models.ClusterResult, error) {
	requested := req.NumClusters
	if requested == 0 {
		requested = defaultNumClusters
	}

	items, err := s.repo.FindAll(ctx, clusteringSnapshotLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("feedback snapshot: %w", err)
	}

	n := len(items)
	if requested > n {
		return nil, apperrors.NewValidationError("num_clusters",
			fmt.Sprintf("cannot form %d clusters from %d feedback items", requested, n))
	}

	texts := make([]string, n)
	for i := range items {
		texts[i] = items[i].Text
	}

	vectors, backend, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		slog.WarnContext(ctx, "Clustering degraded, feedback could not be embedded", "items", n, "error", err)

		return degradedClusterResult("", unembeddableClusterMsg), nil
	}

	if !hasTwoDistinct(vectors) {
		return degradedClusterResult(backend, degenerateClusterMsg), nil
	}

	km := cluster.NewKMeans(min(max(2, requested), n))

	fit, err := km.Fit(ctx, vectors)
	if err != nil {
		return nil, fmt.Errorf("kmeans: %w", err)
	}

	result := groupByLabel(items, fit.Labels)
	result.NumClusters = km.K
	result.EmbeddingBackend = backend

	if len(cluster.DistinctLabels(fit.Labels)) > 1 && n <= maxSilhouettePoints {
		if score, ok := cluster.Silhouette(vectors, fit.Labels, cluster.Euclidean); ok {
			result.SilhouetteScore = &score
		}
	}

	if req.AnalyzeElbow {
		elbow, err := elbowAnalysis(ctx, vectors, km)
		if err != nil {
			return nil, err
		}

		result.Elbow = elbow
	}

	slog.InfoContext(ctx, "Feedback clustered", "items", n, "clusters", result.NumClusters, "backend", backend)

	return result, nil
}

func degradedClusterResult(backend, message string) *models.ClusterResult {
	return &models.ClusterResult{
		Groups:           []models.ClusterGroup{},
		Clusters:         map[string][]models.Feedback{},
		EmbeddingBackend: backend,
		Degraded:         true,
		Message:          message,
	}
}

// hasTwoDistinct reports whether some vector differs from the first by more than
// rounding error, relative to the largest component.
func hasTwoDistinct(vectors [][]float64) bool {
	if len(vectors) < 2 {
		return false
	}

	scale := 1.0
	for _, v := range vectors {
		for _, x := range v {
			scale = max(scale, math.Abs(x))
		}
	}

	tol := distinctTolerance * scale

	for _, v := range vectors[1:] {
		if len(v) != len(vectors[0]) {
			return true
		}

		for j, x := range v {
			if math.Abs(x-vectors[0][j]) > tol {
				return true
			}
		}
	}

	return false
}

func groupByLabel(items []models.Feedback, labels []int) *models.ClusterResult {
	byLabel := make(map[int]*models.ClusterGroup)

	for i, label := range labels {
		g, ok := byLabel[label]
		if !ok {
			g = &models.ClusterGroup{ClusterID: label}
			byLabel[label] = g
		}

		g.MemberIndices = append(g.MemberIndices, i)
		g.Items = append(g.Items, items[i])
	}

	ids := cluster.DistinctLabels(labels)
	result := &models.ClusterResult{
		Groups:   make([]models.ClusterGroup, 0, len(ids)),
		Clusters: make(map[string][]models.Feedback, len(ids)),
	}

	for _, id := range ids {
		g := byLabel[id]
		result.Groups = append(result.Groups, *g)
		result.Clusters["cluster_"+strconv.Itoa(id)] = g.Items
	}

	return result
}

func elbowAnalysis(ctx context.Context, vectors [][]float64, km cluster.KMeans) (*models.ElbowAnalysis, error) {
	ks, inertias, err := cluster.ElbowCurve(ctx, vectors, maxElbowK, km)
	if err != nil {
		return nil, fmt.Errorf("elbow curve: %w", err)
	}

	points := make([]models.ElbowPoint, len(ks))
	for i := range ks {
		points[i] = models.ElbowPoint{K: ks[i], Inertia: inertias[i]}
	}

	return &models.ElbowAnalysis{Points: points, SuggestedK: cluster.FindElbow(ks, inertias)}, nil
}
