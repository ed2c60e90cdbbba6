// Package reduce projects embedding vectors onto two dimensions for plotting.
package reduce

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
)

// Seed is the default random seed; equal input and seed give equal coordinates.
const Seed = 42

var (
	// ErrTooFewPoints is returned when a reducer needs more rows than it was given.
	ErrTooFewPoints = errors.New("too few points to reduce")
	// ErrDegenerate is returned when every input row is identical.
	ErrDegenerate = errors.New("degenerate input: all points identical")
	// ErrNonFinite is returned when a reducer produced NaN or Inf coordinates.
	ErrNonFinite = errors.New("reducer produced non-finite coordinates")
	// ErrExhausted is returned by Chain when every reducer failed.
	ErrExhausted = errors.New("all reducers failed")
)

// Reducer maps n rows of any width onto n rows of width 2.
type Reducer interface {
	Name() string
	Reduce(ctx context.Context, data [][]float64) ([][]float64, error)
}

// Chain tries reducers in order and returns the first success.
type Chain []Reducer

// Reduce returns the coordinates and the name of the reducer that produced them.
func (c Chain) Reduce(ctx context.Context, data [][]float64) ([][]float64, string, error) {
	var failures []string

	for _, r := range c {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		coords, err := r.Reduce(ctx, data)
		if err == nil {
			return coords, r.Name(), nil
		}

		slog.WarnContext(ctx, "Reducer failed, trying next", "reducer", r.Name(), "error", err)
		failures = append(failures, r.Name()+": "+err.Error())
	}

	return nil, "", fmt.Errorf("%w: %s", ErrExhausted, strings.Join(failures, "; "))
}

func allFinite(rows [][]float64) bool {
	for _, row := range rows {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}

	return true
}

// identicalTolerance is relative to the largest absolute value in the input.
const identicalTolerance = 1e-9

// allIdentical reports whether every row equals the first within rounding error.
func allIdentical(rows [][]float64) bool {
	scale := 1.0
	for _, row := range rows {
		for _, v := range row {
			scale = max(scale, math.Abs(v))
		}
	}

	tol := identicalTolerance * scale

	for _, row := range rows[1:] {
		if len(row) != len(rows[0]) {
			return false
		}

		for j, v := range row {
			if math.Abs(v-rows[0][j]) > tol {
				return false
			}
		}
	}

	return true
}

func validate(data [][]float64, minRows int) error {
	if len(data) < minRows {
		return fmt.Errorf("%w: got %d, need %d", ErrTooFewPoints, len(data), minRows)
	}

	width := len(data[0])
	if width == 0 {
		return fmt.Errorf("%w: zero-width rows", ErrDegenerate)
	}

	for i, row := range data {
		if len(row) != width {
			return fmt.Errorf("row %d has width %d, want %d", i, len(row), width)
		}
	}

	if !allFinite(data) {
		return errors.New("input contains non-finite values")
	}

	if allIdentical(data) {
		return ErrDegenerate
	}

	return nil
}
