package cluster

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sort"
)

// HDBSCAN is hierarchical density clustering with excess-of-mass selection.
// The root of the condensed tree is never selected, so a single dense blob
// yields ErrNoClusters.
type HDBSCAN struct {
	MinClusterSize int
	MinSamples     int
	Distance       DistanceFunc
}

// NewHDBSCAN sizes the clusterer for n points: min_cluster_size max(5, n/20)
// and min_samples 3.
func NewHDBSCAN(n int) HDBSCAN {
	return HDBSCAN{MinClusterSize: max(5, n/20), MinSamples: 3, Distance: Euclidean}
}

// Name returns "hdbscan".
func (HDBSCAN) Name() string { return "hdbscan" }

type mstEdge struct {
	a, b int
	dist float64
}

// linkage is one merge of the single-linkage tree. Node ids below n are points;
// merge i creates node n+i.
type linkage struct {
	left, right int
	dist        float64
	size        int
}

type condensedRow struct {
	parent, child int
	lambda        float64
	size          int
}

// Cluster implements Clusterer.
func (h HDBSCAN) Cluster(ctx context.Context, points [][]float64) ([]int, error) {
	n := len(points)
	mcs := max(2, h.MinClusterSize)

	if n < mcs {
		return nil, fmt.Errorf("%w: %d points, min cluster size %d", ErrTooFewPoints, n, mcs)
	}

	dist := h.Distance
	if dist == nil {
		dist = Euclidean
	}

	mst := h.minimumSpanningTree(points, dist)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tree := singleLinkage(mst, n)
	rows := condense(tree, n, mcs)
	selected := selectClusters(rows, n)

	if len(selected) == 0 {
		return nil, ErrNoClusters
	}

	return labelPoints(rows, n, selected), nil
}

// minimumSpanningTree runs dense Prim over mutual reachability distances.
func (h HDBSCAN) minimumSpanningTree(points [][]float64, dist DistanceFunc) []mstEdge {
	n := len(points)

	pair := make([][]float64, n)
	for i := range pair {
		pair[i] = make([]float64, n)
	}

	for i := range n {
		for j := i + 1; j < n; j++ {
			d := dist(points[i], points[j])
			pair[i][j], pair[j][i] = d, d
		}
	}

	k := min(max(1, h.MinSamples), n)
	core := make([]float64, n)
	row := make([]float64, n)

	for i := range n {
		copy(row, pair[i])
		slices.Sort(row)
		core[i] = row[k-1]
	}

	reach := func(i, j int) float64 {
		return math.Max(pair[i][j], math.Max(core[i], core[j]))
	}

	inTree := make([]bool, n)
	best := make([]float64, n)
	from := make([]int, n)

	for i := range best {
		best[i] = math.Inf(1)
	}

	edges := make([]mstEdge, 0, n-1)
	current := 0
	inTree[0] = true

	for len(edges) < n-1 {
		next := -1

		for j := range n {
			if inTree[j] {
				continue
			}

			if d := reach(current, j); d < best[j] {
				best[j] = d
				from[j] = current
			}

			if next < 0 || best[j] < best[next] {
				next = j
			}
		}

		inTree[next] = true
		edges = append(edges, mstEdge{a: from[next], b: next, dist: best[next]})
		current = next
	}

	return edges
}

func singleLinkage(edges []mstEdge, n int) []linkage {
	sorted := slices.Clone(edges)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].dist < sorted[j].dist })

	parent := make([]int, 2*n-1)
	size := make([]int, 2*n-1)

	for i := range parent {
		parent[i] = i
		if i < n {
			size[i] = 1
		}
	}

	find := func(x int) int {
		root := x
		for parent[root] != root {
			root = parent[root]
		}

		for parent[x] != root {
			parent[x], x = root, parent[x]
		}

		return root
	}

	tree := make([]linkage, len(sorted))

	for step, e := range sorted {
		ra, rb := find(e.a), find(e.b)
		node := n + step

		size[node] = size[ra] + size[rb]
		parent[ra], parent[rb] = node, node
		tree[step] = linkage{left: ra, right: rb, dist: e.dist, size: size[node]}
	}

	return tree
}

// condense walks the single-linkage tree from the root and keeps only splits
// where both sides have at least mcs points. Cluster labels start at n (the root).
func condense(tree []linkage, n, mcs int) []condensedRow {
	root := 2*n - 2

	maxLambda := 0.0
	for _, t := range tree {
		if t.dist > 0 {
			maxLambda = math.Max(maxLambda, 1/t.dist)
		}
	}

	if maxLambda == 0 {
		maxLambda = 1
	}

	lambdaOf := func(d float64) float64 {
		if d <= 0 {
			return maxLambda
		}

		return math.Min(1/d, maxLambda)
	}

	sizeOf := func(node int) int {
		if node < n {
			return 1
		}

		return tree[node-n].size
	}

	leaves := func(node int) []int {
		var out []int

		stack := []int{node}
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if top < n {
				out = append(out, top)
				continue
			}

			t := tree[top-n]
			stack = append(stack, t.right, t.left)
		}

		return out
	}

	relabel := map[int]int{root: n}
	nextLabel := n + 1

	var rows []condensedRow

	fallOut := func(parentLabel, node int, lambda float64) {
		for _, leaf := range leaves(node) {
			rows = append(rows, condensedRow{parent: parentLabel, child: leaf, lambda: lambda, size: 1})
		}
	}

	queue := []int{root}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		t := tree[node-n]
		label := relabel[node]
		lambda := lambdaOf(t.dist)
		leftSize, rightSize := sizeOf(t.left), sizeOf(t.right)

		switch {
		case leftSize >= mcs && rightSize >= mcs:
			for _, child := range []int{t.left, t.right} {
				relabel[child] = nextLabel
				rows = append(rows, condensedRow{parent: label, child: nextLabel, lambda: lambda, size: sizeOf(child)})
				nextLabel++
				queue = append(queue, child)
			}
		case leftSize < mcs && rightSize < mcs:
			fallOut(label, t.left, lambda)
			fallOut(label, t.right, lambda)
		case leftSize < mcs:
			fallOut(label, t.left, lambda)
			relabel[t.right] = label
			queue = append(queue, t.right)
		default:
			fallOut(label, t.right, lambda)
			relabel[t.left] = label
			queue = append(queue, t.left)
		}
	}

	return rows
}

// selectClusters applies excess-of-mass selection and returns the chosen
// cluster labels in ascending order. The root is never chosen.
func selectClusters(rows []condensedRow, n int) []int {
	birth := map[int]float64{n: 0}
	children := make(map[int][]int)

	for _, r := range rows {
		if r.child >= n {
			birth[r.child] = r.lambda
			children[r.parent] = append(children[r.parent], r.child)
		}
	}

	stability := make(map[int]float64, len(birth))
	for _, r := range rows {
		stability[r.parent] += (r.lambda - birth[r.parent]) * float64(r.size)
	}

	labels := make([]int, 0, len(birth))
	for c := range birth {
		if c != n {
			labels = append(labels, c)
		}
	}

	slices.Sort(labels)

	selected := make(map[int]bool, len(labels))

	var unselect func(c int)
	unselect = func(c int) {
		for _, child := range children[c] {
			selected[child] = false
			unselect(child)
		}
	}

	for i := len(labels) - 1; i >= 0; i-- {
		c := labels[i]

		var subtree float64
		for _, child := range children[c] {
			subtree += stability[child]
		}

		if len(children[c]) > 0 && subtree > stability[c] {
			selected[c] = false
			stability[c] = subtree

			continue
		}

		selected[c] = true
		unselect(c)
	}

	var out []int

	for _, c := range labels {
		if selected[c] {
			out = append(out, c)
		}
	}

	return out
}

// labelPoints maps every point to the selected cluster enclosing it, or Noise.
// Output labels are 0..len(selected)-1 in ascending cluster order.
func labelPoints(rows []condensedRow, n int, selected []int) []int {
	parentOf := make(map[int]int, len(rows))
	for _, r := range rows {
		parentOf[r.child] = r.parent
	}

	index := make(map[int]int, len(selected))
	for i, c := range selected {
		index[c] = i
	}

	labels := make([]int, n)

	for p := range n {
		labels[p] = Noise

		c, ok := parentOf[p]
		for ok {
			if idx, hit := index[c]; hit {
				labels[p] = idx
				break
			}

			c, ok = parentOf[c]
		}
	}

	return labels
}
