package mlearn

import (
	"errors"
	"math"
	"math/rand"
)

// GBMParams parametrize a gradient-boosting fit.
type GBMParams struct {
	Rounds       int
	MaxDepth     int
	LearningRate float64
	Subsample    float64 // row fraction per round
	ColSample    float64 // candidate-feature fraction per split
	Seed         int64
}

// DefaultGBMParams returns the fixed boosting configuration.
func DefaultGBMParams() GBMParams {
	return GBMParams{
		Rounds:       100,
		MaxDepth:     6,
		LearningRate: 0.1,
		Subsample:    0.8,
		ColSample:    0.8,
		Seed:         42,
	}
}

// GBM is the shared boosted ensemble: a base score plus learning-rate-scaled
// tree corrections.
type GBM struct {
	Base         float64
	LearningRate float64
	Trees        []*Node
	Features     int
	Importance   []float64
}

// GBMClassifier boosts regression trees on the logistic loss; its raw output
// is a log-odds score mapped through the sigmoid.
type GBMClassifier struct{ GBM }

// GBMRegressor boosts regression trees on the squared loss.
type GBMRegressor struct{ GBM }

// FitGBMClassifier fits gradient-boosted trees on a 0/1 target. Leaf values
// are set by a single Newton step on the logistic loss.
func FitGBMClassifier(x [][]float64, y []float64, p GBMParams) (*GBMClassifier, error) {
	if err := checkBinaryTarget(y); err != nil {
		return nil, err
	}
	if p.Rounds <= 0 {
		p = DefaultGBMParams()
	}

	pos := 0.0
	for _, v := range y {
		pos += v
	}
	pbar := clampProb(pos / float64(len(y)))
	base := math.Log(pbar / (1 - pbar))

	m := newGBMFit(x, p, base)
	score := make([]float64, len(y))
	for i := range score {
		score[i] = base
	}

	residual := make([]float64, len(y))
	for round := 0; round < p.Rounds; round++ {
		for i := range y {
			residual[i] = y[i] - sigmoidScore(score[i])
		}
		rng := rand.New(rand.NewSource(p.Seed + int64(round)))
		idx := subsample(len(y), p.Subsample, rng)
		tree, imp := fitTree(x, residual, idx, m.treeParams, rng)
		newtonLeaves(tree, x, residual, score, idx)
		m.add(tree, imp)
		for i := range score {
			score[i] += p.LearningRate * tree.Eval(x[i])
		}
	}

	return &GBMClassifier{GBM: m.finish()}, nil
}

// FitGBMRegressor fits gradient-boosted trees on a continuous target.
func FitGBMRegressor(x [][]float64, y []float64, p GBMParams) (*GBMRegressor, error) {
	if len(y) == 0 {
		return nil, errors.New("empty target vector")
	}
	if len(x) != len(y) {
		return nil, errors.New("features and target have mismatched lengths")
	}
	if p.Rounds <= 0 {
		p = DefaultGBMParams()
	}

	base := 0.0
	for _, v := range y {
		base += v
	}
	base /= float64(len(y))

	m := newGBMFit(x, p, base)
	score := make([]float64, len(y))
	for i := range score {
		score[i] = base
	}

	residual := make([]float64, len(y))
	for round := 0; round < p.Rounds; round++ {
		for i := range y {
			residual[i] = y[i] - score[i]
		}
		rng := rand.New(rand.NewSource(p.Seed + int64(round)))
		idx := subsample(len(y), p.Subsample, rng)
		tree, imp := fitTree(x, residual, idx, m.treeParams, rng)
		m.add(tree, imp)
		for i := range score {
			score[i] += p.LearningRate * tree.Eval(x[i])
		}
	}

	return &GBMRegressor{GBM: m.finish()}, nil
}

// gbmFit accumulates the ensemble during boosting.
type gbmFit struct {
	treeParams treeParams
	out        GBM
}

func newGBMFit(x [][]float64, p GBMParams, base float64) *gbmFit {
	d := len(x[0])
	maxFeatures := int(math.Ceil(p.ColSample * float64(d)))
	if maxFeatures < 1 || maxFeatures > d {
		maxFeatures = d
	}
	return &gbmFit{
		treeParams: treeParams{
			maxDepth:    p.MaxDepth,
			minSplit:    2,
			minLeaf:     1,
			maxFeatures: maxFeatures,
		},
		out: GBM{
			Base:         base,
			LearningRate: p.LearningRate,
			Features:     d,
			Importance:   make([]float64, d),
		},
	}
}

func (m *gbmFit) add(tree *Node, imp []float64) {
	m.out.Trees = append(m.out.Trees, tree)
	for i, v := range imp {
		m.out.Importance[i] += v
	}
}

func (m *gbmFit) finish() GBM {
	m.out.Importance = normalize(m.out.Importance)
	return m.out
}

// newtonLeaves replaces each leaf's mean-residual value with the one-step
// Newton estimate sum(r) / sum(p(1-p)) over the samples routed to it.
func newtonLeaves(root *Node, x [][]float64, residual, score []float64, idx []int) {
	num := make(map[*Node]float64)
	den := make(map[*Node]float64)
	for _, i := range idx {
		leaf := root.leafFor(x[i])
		p := sigmoidScore(score[i])
		num[leaf] += residual[i]
		den[leaf] += p * (1 - p)
	}
	for leaf, n := range num {
		d := den[leaf]
		if d < 1e-12 {
			leaf.Value = 0
			continue
		}
		leaf.Value = n / d
	}
}

// subsample draws a row fraction without replacement.
func subsample(n int, frac float64, rng *rand.Rand) []int {
	if frac <= 0 || frac >= 1 {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	k := int(float64(n) * frac)
	if k < 1 {
		k = 1
	}
	return rng.Perm(n)[:k]
}

func (m *GBM) raw(row []float64) float64 {
	s := m.Base
	for _, t := range m.Trees {
		s += m.LearningRate * t.Eval(row)
	}
	return s
}

func (m *GBM) NumFeatures() int             { return m.Features }
func (m *GBM) FeatureImportance() []float64 { return m.Importance }

// PredictProba maps the boosted log-odds score through the sigmoid.
func (c *GBMClassifier) PredictProba(row []float64) float64 { return sigmoidScore(c.raw(row)) }

// Predict returns the hard label at the 0.5 threshold.
func (c *GBMClassifier) Predict(row []float64) float64 {
	if c.PredictProba(row) >= 0.5 {
		return 1
	}
	return 0
}

// Predict returns the boosted prediction.
func (r *GBMRegressor) Predict(row []float64) float64 { return r.raw(row) }

func sigmoidScore(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func clampProb(p float64) float64 {
	const eps = 1e-6
	if p < eps {
		return eps
	}
	if p > 1-eps {
		return 1 - eps
	}
	return p
}
