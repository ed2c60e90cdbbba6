package reduce

import (
	"context"
	"math"
	"math/rand/v2"
	"sort"

	vec "github.com/RonitKhanna333/sih-final-2/pkg/embeddings"
)

const (
	umapNeighbors   = 15
	umapNegSamples  = 5
	umapA           = 1.577
	umapB           = 0.895
	umapClip        = 4.0
	umapSearchIters = 64
	umapInitScale   = 10.0
)

// UMAP is a compact uniform manifold approximation using cosine neighbourhoods.
type UMAP struct {
	Neighbors int
	Seed      uint64
}

// NewUMAP returns a UMAP reducer with 15 neighbours and the default seed.
func NewUMAP() *UMAP {
	return &UMAP{Neighbors: umapNeighbors, Seed: Seed}
}

// Name returns "umap".
func (*UMAP) Name() string { return "umap" }

type edge struct {
	head, tail int
	weight     float64
}

// Reduce needs at least three rows that are not all identical.
func (u *UMAP) Reduce(ctx context.Context, data [][]float64) ([][]float64, error) {
	if err := validate(data, 3); err != nil {
		return nil, err
	}

	n := len(data)

	k := u.Neighbors
	if k <= 0 {
		k = umapNeighbors
	}

	k = min(k, n-1)

	graph := fuzzyGraph(data, k)
	if len(graph) == 0 {
		return nil, ErrDegenerate
	}

	coords, err := spectralInit(data)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	epochs := 200
	if n <= 500 {
		epochs = 500
	}

	rng := rand.New(rand.NewPCG(u.Seed, u.Seed))
	if err := optimizeLayout(ctx, coords, graph, epochs, rng); err != nil {
		return nil, err
	}

	if !allFinite(coords) {
		return nil, ErrNonFinite
	}

	return coords, nil
}

// fuzzyGraph builds the symmetric fuzzy simplicial set over k nearest neighbours.
func fuzzyGraph(data [][]float64, k int) []edge {
	n := len(data)
	target := math.Log2(float64(k))
	weights := make(map[[2]int]float64, n*k)

	type neighbour struct {
		idx  int
		dist float64
	}

	for i := range n {
		cand := make([]neighbour, 0, n-1)

		for j := range n {
			if j != i {
				cand = append(cand, neighbour{j, vec.CosineDistance(data[i], data[j])})
			}
		}

		sort.SliceStable(cand, func(a, b int) bool { return cand[a].dist < cand[b].dist })
		cand = cand[:k]

		rho := cand[0].dist
		for _, c := range cand {
			if c.dist > 0 {
				rho = c.dist
				break
			}
		}

		dists := make([]float64, len(cand))
		for m, c := range cand {
			dists[m] = c.dist
		}

		sigma := smoothSigma(dists, rho, target)

		for _, c := range cand {
			w := 1.0
			if d := c.dist - rho; d > 0 {
				w = math.Exp(-d / sigma)
			}

			weights[[2]int{i, c.idx}] = w
		}
	}

	seen := make(map[[2]int]struct{}, len(weights))
	out := make([]edge, 0, len(weights))

	for key, a := range weights {
		i, j := key[0], key[1]
		pair := [2]int{min(i, j), max(i, j)}

		if _, ok := seen[pair]; ok {
			continue
		}

		seen[pair] = struct{}{}

		b := weights[[2]int{j, i}]
		if w := a + b - a*b; w > 0 {
			out = append(out, edge{head: pair[0], tail: pair[1], weight: w})
		}
	}

	sort.Slice(out, func(a, b int) bool {
		if out[a].head != out[b].head {
			return out[a].head < out[b].head
		}

		return out[a].tail < out[b].tail
	})

	return out
}

// smoothSigma binary searches sigma so the membership strengths sum to target.
func smoothSigma(dists []float64, rho, target float64) float64 {
	lo, hi, mid := 0.0, math.Inf(1), 1.0

	for range umapSearchIters {
		sum := 0.0

		for _, dist := range dists {
			d := dist - rho
			if d > 0 {
				sum += math.Exp(-d / mid)
			} else {
				sum++
			}
		}

		if math.Abs(sum-target) < 1e-5 {
			break
		}

		if sum > target {
			hi = mid
			mid = (lo + hi) / 2
		} else {
			lo = mid
			if math.IsInf(hi, 1) {
				mid *= 2
			} else {
				mid = (lo + hi) / 2
			}
		}
	}

	if mid < 1e-3 {
		mid = 1e-3
	}

	return mid
}

// spectralInit seeds the layout with PCA coordinates scaled into [0, 10].
func spectralInit(data [][]float64) ([][]float64, error) {
	coords, err := principalComponents(data, 2)
	if err != nil {
		return nil, err
	}

	for j := range 2 {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, row := range coords {
			lo = math.Min(lo, row[j])
			hi = math.Max(hi, row[j])
		}

		span := hi - lo
		for i, row := range coords {
			if span == 0 {
				// Spread collapsed axes deterministically so the optimiser can move them.
				row[j] = umapInitScale * float64(i) / float64(len(coords))
				continue
			}

			row[j] = umapInitScale * (row[j] - lo) / span
		}
	}

	return coords, nil
}

func optimizeLayout(ctx context.Context, coords [][]float64, graph []edge, epochs int, rng *rand.Rand) error {
	maxW := 0.0
	for _, e := range graph {
		maxW = math.Max(maxW, e.weight)
	}

	kept := graph[:0:0]
	for _, e := range graph {
		if e.weight >= maxW/float64(epochs) {
			kept = append(kept, e)
		}
	}

	perSample := make([]float64, len(kept))
	nextSample := make([]float64, len(kept))
	for i, e := range kept {
		perSample[i] = maxW / e.weight
		nextSample[i] = perSample[i]
	}

	n := len(coords)

	for epoch := range epochs {
		if epoch%50 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		alpha := 1 - float64(epoch)/float64(epochs)

		for i, e := range kept {
			if nextSample[i] > float64(epoch+1) {
				continue
			}

			head, tail := coords[e.head], coords[e.tail]
			d2 := sqDist(head, tail)

			if d2 > 0 {
				coeff := -2 * umapA * umapB * math.Pow(d2, umapB-1) / (umapA*math.Pow(d2, umapB) + 1)
				for j := range 2 {
					g := clip(coeff * (head[j] - tail[j]))
					head[j] += g * alpha
					tail[j] -= g * alpha
				}
			}

			nextSample[i] += perSample[i]

			for range umapNegSamples {
				idx := rng.IntN(n)
				if idx == e.head {
					continue
				}

				other := coords[idx]

				d2 := sqDist(head, other)

				var coeff float64
				if d2 > 0 {
					coeff = 2 * umapB / ((0.001 + d2) * (umapA*math.Pow(d2, umapB) + 1))
				}

				for j := range 2 {
					g := umapClip
					if coeff > 0 {
						g = clip(coeff * (head[j] - other[j]))
					}

					head[j] += g * alpha
				}
			}
		}
	}

	return nil
}

func sqDist(a, b []float64) float64 {
	dx, dy := a[0]-b[0], a[1]-b[1]

	return dx*dx + dy*dy
}

func clip(v float64) float64 {
	return math.Max(-umapClip, math.Min(umapClip, v))
}
