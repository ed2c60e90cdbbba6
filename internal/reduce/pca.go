package reduce

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// PCA projects centered data onto its first two principal components.
type PCA struct{}

// Name returns "pca".
func (PCA) Name() string { return "pca" }

// Reduce centers the columns and projects through a thin SVD. Missing components
// (rank below two) are zero; each component's sign makes its largest loading positive.
func (PCA) Reduce(ctx context.Context, data [][]float64) ([][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := validate(data, 2); err != nil {
		return nil, err
	}

	coords, err := principalComponents(data, 2)
	if err != nil {
		return nil, err
	}

	if !allFinite(coords) {
		return nil, ErrNonFinite
	}

	return coords, nil
}

func principalComponents(data [][]float64, k int) ([][]float64, error) {
	n, d := len(data), len(data[0])

	means := make([]float64, d)
	for _, row := range data {
		for j, v := range row {
			means[j] += v
		}
	}

	for j := range means {
		means[j] /= float64(n)
	}

	x := mat.NewDense(n, d, nil)
	for i, row := range data {
		for j, v := range row {
			x.Set(i, j, v-means[j])
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return nil, errors.New("pca: svd did not converge")
	}

	var u mat.Dense
	svd.UTo(&u)

	values := svd.Values(nil)
	avail := min(k, len(values))

	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, k)
	}

	for j := range avail {
		sign := 1.0
		best := 0.0

		for i := range n {
			if v := u.At(i, j); math.Abs(v) > best {
				best = math.Abs(v)
				sign = math.Copysign(1, v)
			}
		}

		for i := range n {
			out[i][j] = sign * u.At(i, j) * values[j]
		}
	}

	return out, nil
}
