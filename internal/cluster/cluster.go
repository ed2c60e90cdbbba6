// Package cluster groups projected points. Density clustering is tried first and
// KMeans catches what it cannot label.
package cluster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	vec "github.com/RonitKhanna333/sih-final-2/pkg/embeddings"
)

// Noise is the label assigned to points no cluster claims.
const Noise = -1

// Seed is the default random seed for KMeans initialisation.
const Seed = 42

var (
	// ErrTooFewPoints is returned when there are fewer points than a clusterer needs.
	ErrTooFewPoints = errors.New("too few points to cluster")
	// ErrNoClusters is returned when a density clusterer labels every point as noise.
	ErrNoClusters = errors.New("no clusters found")
	// ErrExhausted is returned by Chain when every clusterer failed.
	ErrExhausted = errors.New("all clusterers failed")
)

// DistanceFunc measures the distance between two points.
type DistanceFunc func(a, b []float64) float64

// Euclidean is the default distance.
var Euclidean DistanceFunc = vec.Euclidean

// Clusterer assigns one label per point. Labels are >= 0 or Noise.
type Clusterer interface {
	Name() string
	Cluster(ctx context.Context, points [][]float64) ([]int, error)
}

// Chain tries clusterers in order and returns the first success.
type Chain []Clusterer

// Cluster returns the labels and the name of the clusterer that produced them.
func (c Chain) Cluster(ctx context.Context, points [][]float64) ([]int, string, error) {
	var failures []string

	for _, cl := range c {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		labels, err := cl.Cluster(ctx, points)
		if err == nil {
			return labels, cl.Name(), nil
		}

		slog.WarnContext(ctx, "Clusterer failed, trying next", "clusterer", cl.Name(), "error", err)
		failures = append(failures, cl.Name()+": "+err.Error())
	}

	return nil, "", fmt.Errorf("%w: %s", ErrExhausted, strings.Join(failures, "; "))
}

// DistinctLabels returns the non-noise labels in ascending order.
func DistinctLabels(labels []int) []int {
	seen := make(map[int]struct{})

	var out []int

	for _, l := range labels {
		if l == Noise {
			continue
		}

		if _, ok := seen[l]; !ok {
			seen[l] = struct{}{}
			out = append(out, l)
		}
	}

	slices.Sort(out)

	return out
}
