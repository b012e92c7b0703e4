package mlearn

import (
	"errors"
	"math"
	"math/rand"
)

// EBMParams parametrize the interpretable additive-boosting fit.
type EBMParams struct {
	Sweeps       int // boosting passes over the feature cycle
	MaxLeaves    int // leaves per single-feature stump
	LearningRate float64
	Seed         int64
}

// DefaultEBMParams returns the fixed additive-boosting configuration.
func DefaultEBMParams() EBMParams {
	return EBMParams{Sweeps: 40, MaxLeaves: 4, LearningRate: 0.05, Seed: 42}
}

// EBM is an additive model: a base score plus one learned shape function per
// feature, each built by cyclic boosting of single-feature stumps. Because
// every stump sees exactly one feature, per-feature contributions are exact
// and the model stays interpretable.
type EBM struct {
	Base         float64
	LearningRate float64
	Shapes       [][]*Node // Shapes[f] are the stumps for feature f
	Features     int
	Importance   []float64
}

// EBMClassifier is the additive model on the logistic loss.
type EBMClassifier struct{ EBM }

// EBMRegressor is the additive model on the squared loss.
type EBMRegressor struct{ EBM }

// FitEBMClassifier fits the additive model on a 0/1 target.
func FitEBMClassifier(x [][]float64, y []float64, p EBMParams) (*EBMClassifier, error) {
	if err := checkBinaryTarget(y); err != nil {
		return nil, err
	}
	m := fitEBM(x, y, p, true)
	return &EBMClassifier{EBM: m}, nil
}

// FitEBMRegressor fits the additive model on a continuous target.
func FitEBMRegressor(x [][]float64, y []float64, p EBMParams) (*EBMRegressor, error) {
	if len(y) == 0 {
		return nil, errors.New("empty target vector")
	}
	if len(x) != len(y) {
		return nil, errors.New("features and target have mismatched lengths")
	}
	m := fitEBM(x, y, p, false)
	return &EBMRegressor{EBM: m}, nil
}

func fitEBM(x [][]float64, y []float64, p EBMParams, logistic bool) EBM {
	if p.Sweeps <= 0 {
		p = DefaultEBMParams()
	}
	d := len(x[0])
	n := len(y)

	base := 0.0
	if logistic {
		pos := 0.0
		for _, v := range y {
			pos += v
		}
		pbar := clampProb(pos / float64(n))
		base = math.Log(pbar / (1 - pbar))
	} else {
		for _, v := range y {
			base += v
		}
		base /= float64(n)
	}

	m := EBM{
		Base:         base,
		LearningRate: p.LearningRate,
		Shapes:       make([][]*Node, d),
		Features:     d,
	}

	// Stump depth bounding MaxLeaves: 2^depth leaves max.
	depth := 1
	for 1<<depth < p.MaxLeaves {
		depth++
	}
	tp := treeParams{maxDepth: depth, minSplit: 2, minLeaf: 1}

	// Single-column views, one per feature.
	cols := make([][][]float64, d)
	for f := 0; f < d; f++ {
		col := make([][]float64, n)
		for i := range col {
			col[i] = []float64{x[i][f]}
		}
		cols[f] = col
	}

	all := make([]int, n)
	for i := range all {
		all[i] = i
	}

	score := make([]float64, n)
	for i := range score {
		score[i] = base
	}
	residual := make([]float64, n)
	rng := rand.New(rand.NewSource(p.Seed))

	for sweep := 0; sweep < p.Sweeps; sweep++ {
		for f := 0; f < d; f++ {
			for i := range y {
				if logistic {
					residual[i] = y[i] - sigmoidScore(score[i])
				} else {
					residual[i] = y[i] - score[i]
				}
			}
			stump, _ := fitTree(cols[f], residual, all, tp, rng)
			if logistic {
				newtonLeaves(stump, cols[f], residual, score, all)
			}
			m.Shapes[f] = append(m.Shapes[f], stump)
			for i := range score {
				score[i] += p.LearningRate * stump.Eval(cols[f][i])
			}
		}
	}

	m.Importance = ebmImportance(&m, x)
	return m
}

// ebmImportance scores each feature by the mean absolute contribution of its
// shape function over the training rows, normalized to sum to 1.
func ebmImportance(m *EBM, x [][]float64) []float64 {
	imp := make([]float64, m.Features)
	for f := 0; f < m.Features; f++ {
		total := 0.0
		for _, row := range x {
			total += math.Abs(m.contribution(f, row[f]))
		}
		imp[f] = total / float64(len(x))
	}
	return normalize(imp)
}

// contribution evaluates feature f's shape function at value v.
func (m *EBM) contribution(f int, v float64) float64 {
	point := []float64{v}
	sum := 0.0
	for _, stump := range m.Shapes[f] {
		sum += m.LearningRate * stump.Eval(point)
	}
	return sum
}

func (m *EBM) raw(row []float64) float64 {
	s := m.Base
	for f := 0; f < m.Features; f++ {
		s += m.contribution(f, row[f])
	}
	return s
}

func (m *EBM) NumFeatures() int             { return m.Features }
func (m *EBM) FeatureImportance() []float64 { return m.Importance }

// PredictProba maps the additive log-odds score through the sigmoid.
func (c *EBMClassifier) PredictProba(row []float64) float64 { return sigmoidScore(c.raw(row)) }

// Predict returns the hard label at the 0.5 threshold.
func (c *EBMClassifier) Predict(row []float64) float64 {
	if c.PredictProba(row) >= 0.5 {
		return 1
	}
	return 0
}

// Predict returns the additive prediction.
func (r *EBMRegressor) Predict(row []float64) float64 { return r.raw(row) }
