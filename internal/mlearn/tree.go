package mlearn

import (
	"math/rand"
	"sort"
)

// Node is one node of a CART tree. Leaves carry the mean target of their
// training samples; internal nodes route on Feature < Threshold. Fields are
// exported for gob serialization.
type Node struct {
	Leaf      bool
	Value     float64
	Feature   int
	Threshold float64
	Left      *Node
	Right     *Node
}

// treeParams control a single tree fit.
type treeParams struct {
	maxDepth    int
	minSplit    int // minimum samples to consider splitting a node
	minLeaf     int // minimum samples on each side of a split
	maxFeatures int // candidate features per split; 0 means all
}

// treeBuilder fits one regression tree by variance reduction and accumulates
// per-feature impurity decrease into importance.
type treeBuilder struct {
	x          [][]float64
	y          []float64
	params     treeParams
	rng        *rand.Rand
	importance []float64
}

// fitTree builds a tree over the given sample indices. Classification trees
// are the same structure fit on 0/1 targets: leaf means are probabilities and
// variance reduction coincides with Gini gain for binary targets.
func fitTree(x [][]float64, y []float64, idx []int, params treeParams, rng *rand.Rand) (*Node, []float64) {
	b := &treeBuilder{
		x:          x,
		y:          y,
		params:     params,
		rng:        rng,
		importance: make([]float64, len(x[0])),
	}
	root := b.build(idx, 0)
	return root, b.importance
}

func (b *treeBuilder) build(idx []int, depth int) *Node {
	mean, sse := meanSSE(b.y, idx)
	if depth >= b.params.maxDepth || len(idx) < b.params.minSplit || sse == 0 {
		return &Node{Leaf: true, Value: mean}
	}

	feature, threshold, gain := b.bestSplit(idx, sse)
	if gain <= 0 {
		return &Node{Leaf: true, Value: mean}
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] < threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < b.params.minLeaf || len(right) < b.params.minLeaf {
		return &Node{Leaf: true, Value: mean}
	}

	b.importance[feature] += gain
	return &Node{
		Feature:   feature,
		Threshold: threshold,
		Left:      b.build(left, depth+1),
		Right:     b.build(right, depth+1),
	}
}

// bestSplit scans candidate features for the threshold with the largest SSE
// reduction, honoring the min-leaf constraint.
func (b *treeBuilder) bestSplit(idx []int, parentSSE float64) (feature int, threshold, gain float64) {
	feature = -1
	for _, f := range b.candidateFeatures() {
		t, g, ok := b.bestThreshold(idx, f, parentSSE)
		if ok && g > gain {
			feature, threshold, gain = f, t, g
		}
	}
	return feature, threshold, gain
}

// candidateFeatures returns the features considered at this split: all of
// them, or a random subset of maxFeatures when feature sampling is on.
func (b *treeBuilder) candidateFeatures() []int {
	d := len(b.x[0])
	if b.params.maxFeatures <= 0 || b.params.maxFeatures >= d {
		all := make([]int, d)
		for i := range all {
			all[i] = i
		}
		return all
	}
	perm := b.rng.Perm(d)
	return perm[:b.params.maxFeatures]
}

// bestThreshold finds the best split point for one feature by a sorted
// prefix-sum sweep.
func (b *treeBuilder) bestThreshold(idx []int, f int, parentSSE float64) (threshold, gain float64, ok bool) {
	n := len(idx)
	type pair struct{ v, y float64 }
	pairs := make([]pair, n)
	for i, j := range idx {
		pairs[i] = pair{b.x[j][f], b.y[j]}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].v < pairs[j].v })

	var totalSum, totalSq float64
	for _, p := range pairs {
		totalSum += p.y
		totalSq += p.y * p.y
	}

	var leftSum, leftSq float64
	for i := 0; i < n-1; i++ {
		leftSum += pairs[i].y
		leftSq += pairs[i].y * pairs[i].y
		if pairs[i].v == pairs[i+1].v {
			continue
		}
		nl, nr := i+1, n-i-1
		if nl < b.params.minLeaf || nr < b.params.minLeaf {
			continue
		}
		sseLeft := leftSq - leftSum*leftSum/float64(nl)
		rightSum := totalSum - leftSum
		sseRight := (totalSq - leftSq) - rightSum*rightSum/float64(nr)
		g := parentSSE - sseLeft - sseRight
		if g > gain {
			gain = g
			threshold = (pairs[i].v + pairs[i+1].v) / 2
			ok = true
		}
	}
	return threshold, gain, ok
}

// Eval routes a row to its leaf value.
func (n *Node) Eval(row []float64) float64 {
	for !n.Leaf {
		if row[n.Feature] < n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

// leafFor returns the leaf node a row lands in, for post-fit leaf adjustment.
func (n *Node) leafFor(row []float64) *Node {
	for !n.Leaf {
		if row[n.Feature] < n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n
}

func meanSSE(y []float64, idx []int) (mean, sse float64) {
	if len(idx) == 0 {
		return 0, 0
	}
	var sum, sq float64
	for _, i := range idx {
		sum += y[i]
		sq += y[i] * y[i]
	}
	n := float64(len(idx))
	mean = sum / n
	sse = sq - sum*sum/n
	if sse < 0 {
		sse = 0 // guard against negative drift in the subtraction
	}
	return mean, sse
}
