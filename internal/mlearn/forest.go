package mlearn

import (
	"errors"
	"math"
	"math/rand"
	"runtime"
	"sync"
)

// ForestParams parametrize a random forest fit. The zero value is replaced by
// DefaultForestParams so every invocation trains the same way.
type ForestParams struct {
	Trees    int
	MaxDepth int
	MinSplit int
	MinLeaf  int
	Seed     int64
}

// DefaultForestParams returns the fixed forest configuration.
func DefaultForestParams() ForestParams {
	return ForestParams{Trees: 100, MaxDepth: 15, MinSplit: 5, MinLeaf: 2, Seed: 42}
}

// Forest is the shared bagged-tree ensemble.
type Forest struct {
	Trees      []*Node
	Features   int
	Importance []float64
}

// ForestClassifier is a bagged tree ensemble over a binary target. Its
// probability output is the mean of per-tree leaf class-1 proportions.
type ForestClassifier struct{ Forest }

// ForestRegressor is a bagged tree ensemble over a continuous target.
type ForestRegressor struct{ Forest }

// FitForestClassifier fits a random forest on a 0/1 target. Each split
// considers sqrt(d) candidate features.
func FitForestClassifier(x [][]float64, y []float64, p ForestParams) (*ForestClassifier, error) {
	if err := checkBinaryTarget(y); err != nil {
		return nil, err
	}
	maxFeatures := int(math.Sqrt(float64(len(x[0]))))
	if maxFeatures < 1 {
		maxFeatures = 1
	}
	f, err := fitForest(x, y, p, maxFeatures)
	if err != nil {
		return nil, err
	}
	return &ForestClassifier{Forest: *f}, nil
}

// FitForestRegressor fits a random forest on a continuous target. Every split
// considers all features.
func FitForestRegressor(x [][]float64, y []float64, p ForestParams) (*ForestRegressor, error) {
	if len(y) == 0 {
		return nil, errors.New("empty target vector")
	}
	f, err := fitForest(x, y, p, 0)
	if err != nil {
		return nil, err
	}
	return &ForestRegressor{Forest: *f}, nil
}

// fitForest builds the trees in parallel. Each tree draws its bootstrap
// sample and feature subsets from its own seed (base seed + tree index), so
// the result is independent of scheduling.
func fitForest(x [][]float64, y []float64, p ForestParams, maxFeatures int) (*Forest, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, errors.New("features and target have mismatched lengths")
	}
	if p.Trees <= 0 {
		p = DefaultForestParams()
	}

	tp := treeParams{
		maxDepth:    p.MaxDepth,
		minSplit:    p.MinSplit,
		minLeaf:     p.MinLeaf,
		maxFeatures: maxFeatures,
	}

	trees := make([]*Node, p.Trees)
	importances := make([][]float64, p.Trees)

	var wg sync.WaitGroup
	sem := make(chan struct{}, runtime.NumCPU())
	for t := 0; t < p.Trees; t++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(t int) {
			defer wg.Done()
			defer func() { <-sem }()
			rng := rand.New(rand.NewSource(p.Seed + int64(t)))
			idx := bootstrap(len(x), rng)
			trees[t], importances[t] = fitTree(x, y, idx, tp, rng)
		}(t)
	}
	wg.Wait()

	total := make([]float64, len(x[0]))
	for _, imp := range importances {
		for i, v := range imp {
			total[i] += v
		}
	}

	return &Forest{
		Trees:      trees,
		Features:   len(x[0]),
		Importance: normalize(total),
	}, nil
}

func bootstrap(n int, rng *rand.Rand) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.Intn(n)
	}
	return idx
}

func (f *Forest) mean(row []float64) float64 {
	sum := 0.0
	for _, t := range f.Trees {
		sum += t.Eval(row)
	}
	return sum / float64(len(f.Trees))
}

func (f *Forest) NumFeatures() int             { return f.Features }
func (f *Forest) FeatureImportance() []float64 { return f.Importance }

// PredictProba returns the mean class-1 proportion across trees.
func (c *ForestClassifier) PredictProba(row []float64) float64 { return c.mean(row) }

// Predict returns the hard label at the 0.5 threshold.
func (c *ForestClassifier) Predict(row []float64) float64 {
	if c.PredictProba(row) >= 0.5 {
		return 1
	}
	return 0
}

// Predict returns the mean prediction across trees.
func (r *ForestRegressor) Predict(row []float64) float64 { return r.mean(row) }

// checkBinaryTarget rejects classification targets with fewer than two
// distinct classes.
func checkBinaryTarget(y []float64) error {
	if len(y) == 0 {
		return errors.New("empty target vector")
	}
	first := y[0]
	for _, v := range y[1:] {
		if v != first {
			return nil
		}
	}
	return errors.New("target vector has fewer than two distinct classes")
}
