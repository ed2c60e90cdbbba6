package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/RonitKhanna333/sih-final-2/internal/cluster"
	"github.com/RonitKhanna333/sih-final-2/internal/embeddings"
	"github.com/RonitKhanna333/sih-final-2/internal/observability"
	"github.com/RonitKhanna333/sih-final-2/internal/reduce"
)

// Projection pipeline failures, one per stage.
var (
	ErrEmbeddingUnavailable  = errors.New("no embedding backend could embed the texts")
	ErrProjectionUnavailable = errors.New("no reducer could project the embeddings")
	ErrClusteringUnavailable = errors.New("no clusterer could label the projection")
)

// Projection is the 2D layout of a batch of texts and its cluster labels.
type Projection struct {
	Coords           [][]float64
	Labels           []int
	EmbeddingBackend string
	Reducer          string
	Clusterer        string
}

// ProjectionEngine embeds, reduces and clusters texts, falling back stage by stage.
type ProjectionEngine struct {
	primary  embeddings.Provider
	fallback embeddings.Provider
	reducers reduce.Chain
	metrics  observability.PipelineMetrics
}

// ProjectionEngineParams configures ProjectionEngine. Primary and Metrics may be
// nil; Fallback defaults to TF-IDF and Reducers to UMAP then PCA.
type ProjectionEngineParams struct {
	Primary  embeddings.Provider
	Fallback embeddings.Provider
	Reducers reduce.Chain
	Metrics  observability.PipelineMetrics
}

// NewProjectionEngine creates a ProjectionEngine.
func NewProjectionEngine(p ProjectionEngineParams) *ProjectionEngine {
	primary := p.Primary
	if primary == nil {
		primary = embeddings.Unavailable{}
	}

	fallback := p.Fallback
	if fallback == nil {
		fallback = embeddings.NewTFIDFProvider(0)
	}

	reducers := p.Reducers
	if len(reducers) == 0 {
		reducers = reduce.Chain{reduce.NewUMAP(), reduce.PCA{}}
	}

	return &ProjectionEngine{primary: primary, fallback: fallback, reducers: reducers, metrics: p.Metrics}
}

// PrimaryAvailable reports whether a real embedding model is configured.
func (e *ProjectionEngine) PrimaryAvailable() bool {
	return e.primary.Available()
}

// PrimaryName is the configured embedding backend name.
func (e *ProjectionEngine) PrimaryName() string {
	return e.primary.Name()
}

// Embed returns one vector per text and the backend that produced them. The
// primary provider is used when available; any failure moves to the fallback.
func (e *ProjectionEngine) Embed(ctx context.Context, texts []string) ([][]float64, string, error) {
	if e.primary.Available() {
		vectors, err := e.primary.Embed(ctx, texts)
		if err == nil {
			e.recordStrategy(ctx, "embed", e.primary.Name())

			return vectors, e.primary.Name(), nil
		}

		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}

		slog.WarnContext(ctx, "Primary embedding failed, using fallback",
			"provider", e.primary.Name(), "fallback", e.fallback.Name(), "error", err)
	}

	vectors, err := e.fallback.Embed(ctx, texts)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrEmbeddingUnavailable, err)
	}

	e.recordStrategy(ctx, "embed", e.fallback.Name())

	return vectors, e.fallback.Name(), nil
}

// Project embeds texts, reduces them to 2D and clusters the coordinates.
// Clustering uses HDBSCAN sized for the batch, then KMeans with
// k = min(5, max(2, n/10)).
func (e *ProjectionEngine) Project(ctx context.Context, texts []string) (*Projection, error) {
	vectors, backend, err := e.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}

	coords, reducer, err := e.reducers.Reduce(ctx, vectors)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		return nil, fmt.Errorf("%w: %w", ErrProjectionUnavailable, err)
	}

	e.recordStrategy(ctx, "reduce", reducer)

	n := len(texts)
	clusterers := cluster.Chain{
		cluster.NewHDBSCAN(n),
		cluster.NewKMeans(min(5, max(2, n/10))),
	}

	labels, clusterer, err := clusterers.Cluster(ctx, coords)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		return nil, fmt.Errorf("%w: %w", ErrClusteringUnavailable, err)
	}

	e.recordStrategy(ctx, "cluster", clusterer)

	return &Projection{
		Coords:           coords,
		Labels:           labels,
		EmbeddingBackend: backend,
		Reducer:          reducer,
		Clusterer:        clusterer,
	}, nil
}

func (e *ProjectionEngine) recordStrategy(ctx context.Context, stage, strategy string) {
	if e.metrics != nil {
		e.metrics.RecordStrategy(ctx, stage, strategy)
	}
}
