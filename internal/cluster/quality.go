package cluster

import (
	"context"
	"math"
)

// Inertia is the within-cluster sum of squared distances to the centroids.
func Inertia(points [][]float64, labels []int, centroids [][]float64, dist DistanceFunc) float64 {
	var inertia float64

	for i, p := range points {
		if labels[i] < 0 || labels[i] >= len(centroids) {
			continue
		}

		d := dist(p, centroids[labels[i]])
		inertia += d * d
	}

	return inertia
}

// Silhouette returns the mean silhouette coefficient over all points. ok is false
// when the score is undefined: fewer than two distinct labels, or as many labels
// as points. Points alone in their cluster score 0.
func Silhouette(points [][]float64, labels []int, dist DistanceFunc) (float64, bool) {
	n := len(points)

	members := make(map[int][]int)
	for i, l := range labels {
		members[l] = append(members[l], i)
	}

	if len(members) < 2 || len(members) >= n {
		return 0, false
	}

	var total float64

	for i, p := range points {
		own := members[labels[i]]
		if len(own) < 2 {
			continue
		}

		var aSum float64
		for _, j := range own {
			if j != i {
				aSum += dist(p, points[j])
			}
		}

		a := aSum / float64(len(own)-1)

		b := math.Inf(1)
		for l, other := range members {
			if l == labels[i] {
				continue
			}

			var bSum float64
			for _, j := range other {
				bSum += dist(p, points[j])
			}

			b = math.Min(b, bSum/float64(len(other)))
		}

		if maxAB := math.Max(a, b); maxAB > 0 {
			total += (b - a) / maxAB
		}
	}

	return total / float64(n), true
}

// ElbowCurve fits km for every k in [2, maxK] and records the inertia of each fit.
func ElbowCurve(ctx context.Context, points [][]float64, maxK int, km KMeans) ([]int, []float64, error) {
	maxK = min(maxK, len(points)-1)

	var (
		ks       []int
		inertias []float64
	)

	for k := 2; k <= maxK; k++ {
		km.K = k

		res, err := km.Fit(ctx, points)
		if err != nil {
			return nil, nil, err
		}

		ks = append(ks, k)
		inertias = append(inertias, res.Inertia)
	}

	return ks, inertias, nil
}

// FindElbow returns the k whose point lies farthest from the straight line
// between the first and last points of the curve.
func FindElbow(ks []int, inertias []float64) int {
	if len(ks) == 0 {
		return 0
	}

	if len(ks) < 3 {
		return ks[0]
	}

	n := len(ks)
	x1, y1 := float64(ks[0]), inertias[0]
	x2, y2 := float64(ks[n-1]), inertias[n-1]

	den := math.Hypot(y2-y1, x2-x1)
	if den == 0 {
		return ks[0]
	}

	maxDist := 0.0
	elbowIdx := 0

	for i := 1; i < n-1; i++ {
		x0, y0 := float64(ks[i]), inertias[i]

		dist := math.Abs((y2-y1)*x0-(x2-x1)*y0+x2*y1-y2*x1) / den
		if dist > maxDist {
			maxDist = dist
			elbowIdx = i
		}
	}

	return ks[elbowIdx]
}
