package cluster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
)

const defaultMaxIterations = 300

// KMeans is Lloyd's algorithm with k-means++ seeding.
type KMeans struct {
	K             int
	Seed          uint64
	MaxIterations int
	Distance      DistanceFunc
}

// NewKMeans returns a Euclidean KMeans for k clusters with the default seed.
func NewKMeans(k int) KMeans {
	return KMeans{K: k, Seed: Seed, MaxIterations: defaultMaxIterations, Distance: Euclidean}
}

// KMeansResult is the outcome of a KMeans fit.
type KMeansResult struct {
	Labels     []int
	Centroids  [][]float64
	Inertia    float64
	Iterations int
}

// Name returns "kmeans".
func (KMeans) Name() string { return "kmeans" }

// Cluster implements Clusterer.
func (km KMeans) Cluster(ctx context.Context, points [][]float64) ([]int, error) {
	res, err := km.Fit(ctx, points)
	if err != nil {
		return nil, err
	}

	return res.Labels, nil
}

// Fit runs KMeans. Every label in the result is in [0, K).
func (km KMeans) Fit(ctx context.Context, points [][]float64) (*KMeansResult, error) {
	if km.K < 1 {
		return nil, errors.New("k must be at least 1")
	}

	n := len(points)
	if n < km.K {
		return nil, fmt.Errorf("%w: %d points for %d clusters", ErrTooFewPoints, n, km.K)
	}

	dist := km.Distance
	if dist == nil {
		dist = Euclidean
	}

	maxIter := km.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}

	rng := rand.New(rand.NewPCG(km.Seed, km.Seed))
	centroids := seedPlusPlus(points, km.K, dist, rng)

	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	iter := 0
	for ; iter < maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		changed := false

		for i, p := range points {
			nearest, d := nearestCentroid(p, centroids, dist)
			if labels[i] >= 0 && dist(p, centroids[labels[i]]) <= d {
				continue
			}

			if labels[i] != nearest {
				labels[i] = nearest
				changed = true
			}
		}

		if !changed {
			break
		}

		centroids = updateCentroids(points, labels, km.K)
		fillEmptyClusters(points, labels, centroids, dist)
	}

	slog.DebugContext(ctx, "KMeans finished", "k", km.K, "iterations", iter)

	return &KMeansResult{
		Labels:     labels,
		Centroids:  centroids,
		Inertia:    Inertia(points, labels, centroids, dist),
		Iterations: iter,
	}, nil
}

// seedPlusPlus picks k starting centroids with probability proportional to the
// squared distance from the nearest centroid already chosen.
func seedPlusPlus(points [][]float64, k int, dist DistanceFunc, rng *rand.Rand) [][]float64 {
	n := len(points)
	chosen := make([]bool, n)
	centroids := make([][]float64, 0, k)

	first := rng.IntN(n)
	chosen[first] = true
	centroids = append(centroids, clonePoint(points[first]))

	weights := make([]float64, n)

	for len(centroids) < k {
		var total float64

		for i, p := range points {
			_, d := nearestCentroid(p, centroids, dist)
			weights[i] = d * d
			total += weights[i]
		}

		next := -1

		if total > 0 {
			target := rng.Float64() * total

			var cum float64
			for i, w := range weights {
				cum += w
				if w > 0 && cum >= target {
					next = i
					break
				}
			}
		}

		// Duplicates leave no weight; take the first point not yet used.
		if next < 0 {
			for i := range chosen {
				if !chosen[i] {
					next = i
					break
				}
			}
		}

		chosen[next] = true
		centroids = append(centroids, clonePoint(points[next]))
	}

	return centroids
}

func nearestCentroid(p []float64, centroids [][]float64, dist DistanceFunc) (int, float64) {
	best, bestDist := 0, math.Inf(1)

	for i, c := range centroids {
		if d := dist(p, c); d < bestDist {
			best, bestDist = i, d
		}
	}

	return best, bestDist
}

func updateCentroids(points [][]float64, labels []int, k int) [][]float64 {
	dim := len(points[0])
	centroids := make([][]float64, k)
	counts := make([]int, k)

	for i := range centroids {
		centroids[i] = make([]float64, dim)
	}

	for i, p := range points {
		c := labels[i]
		counts[c]++

		for d, v := range p {
			centroids[c][d] += v
		}
	}

	for c := range centroids {
		if counts[c] == 0 {
			continue
		}

		for d := range centroids[c] {
			centroids[c][d] /= float64(counts[c])
		}
	}

	return centroids
}

// fillEmptyClusters moves the point farthest from its centroid into each empty
// cluster so every label in [0, k) stays in use.
func fillEmptyClusters(points [][]float64, labels []int, centroids [][]float64, dist DistanceFunc) {
	counts := make([]int, len(centroids))
	for _, l := range labels {
		counts[l]++
	}

	for c, count := range counts {
		if count > 0 {
			continue
		}

		far, farDist := -1, -1.0

		for i, p := range points {
			if counts[labels[i]] < 2 {
				continue
			}

			if d := dist(p, centroids[labels[i]]); d > farDist {
				far, farDist = i, d
			}
		}

		if far < 0 {
			return
		}

		counts[labels[far]]--
		labels[far] = c
		counts[c] = 1
		centroids[c] = clonePoint(points[far])
	}
}

func clonePoint(p []float64) []float64 {
	out := make([]float64, len(p))
	copy(out, p)

	return out
}
