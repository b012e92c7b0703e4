// Package eval computes task-appropriate performance metrics for fitted
// models against held-out data. Evaluation is a pure computation: no retries,
// and any shape mismatch is fatal to the call.
package eval

import (
	"fmt"
	"math"
	"sort"

	"github.com/pvoronin/underwriter/internal/features"
	"github.com/pvoronin/underwriter/internal/mlearn"
	"github.com/pvoronin/underwriter/internal/model"
)

// EvaluateClassifier scores a classifier on a held-out set: accuracy plus
// weighted precision/recall/F1 over the observed classes, and ROC-AUC only
// when the test target has exactly two distinct classes.
func EvaluateClassifier(key model.ModelKey, c mlearn.Classifier, x features.Matrix, y []float64) (model.Performance, error) {
	if err := checkShape(key, c.NumFeatures(), x, y); err != nil {
		return model.Performance{}, err
	}

	pred := make([]float64, len(y))
	proba := make([]float64, len(y))
	for i, row := range x.Rows {
		pred[i] = c.Predict(row)
		proba[i] = c.PredictProba(row)
	}

	perf := model.Performance{Model: key}
	perf.Accuracy = accuracy(y, pred)
	perf.Precision, perf.Recall, perf.F1 = weightedPRF(y, pred)

	if len(distinct(y)) == 2 {
		auc := rocAUC(y, proba)
		perf.ROCAUC = &auc
	}
	return perf, nil
}

// EvaluateRegressor scores a regressor on a held-out set: MSE, RMSE, MAE, R².
func EvaluateRegressor(key model.ModelKey, r mlearn.Regressor, x features.Matrix, y []float64) (model.Performance, error) {
	if err := checkShape(key, r.NumFeatures(), x, y); err != nil {
		return model.Performance{}, err
	}

	perf := model.Performance{Model: key}
	var sse, sae float64
	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))

	var tss float64
	for i, row := range x.Rows {
		diff := y[i] - r.Predict(row)
		sse += diff * diff
		sae += math.Abs(diff)
		tss += (y[i] - mean) * (y[i] - mean)
	}

	n := float64(len(y))
	perf.MSE = sse / n
	perf.RMSE = math.Sqrt(perf.MSE)
	perf.MAE = sae / n
	if tss > 0 {
		perf.R2 = 1 - sse/tss
	}
	return perf, nil
}

func checkShape(key model.ModelKey, want int, x features.Matrix, y []float64) error {
	if len(x.Rows) == 0 || len(x.Rows) != len(y) {
		return &model.EvaluationError{
			Model:  key.String(),
			Reason: fmt.Sprintf("test set has %d rows and %d targets", len(x.Rows), len(y)),
		}
	}
	if got := len(x.Rows[0]); got != want {
		return &model.EvaluationError{
			Model:  key.String(),
			Reason: fmt.Sprintf("model expects %d features, test set has %d", want, got),
		}
	}
	return nil
}

func accuracy(y, pred []float64) float64 {
	correct := 0
	for i := range y {
		if y[i] == pred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(y))
}

// weightedPRF computes precision, recall and F1 per observed class and
// averages them weighted by class support.
func weightedPRF(y, pred []float64) (precision, recall, f1 float64) {
	classes := distinct(y)
	n := float64(len(y))
	for _, c := range classes {
		var tp, fp, fn, support float64
		for i := range y {
			switch {
			case y[i] == c && pred[i] == c:
				tp++
			case y[i] != c && pred[i] == c:
				fp++
			case y[i] == c && pred[i] != c:
				fn++
			}
			if y[i] == c {
				support++
			}
		}
		var p, r, f float64
		if tp+fp > 0 {
			p = tp / (tp + fp)
		}
		if tp+fn > 0 {
			r = tp / (tp + fn)
		}
		if p+r > 0 {
			f = 2 * p * r / (p + r)
		}
		w := support / n
		precision += w * p
		recall += w * r
		f1 += w * f
	}
	return precision, recall, f1
}

// rocAUC computes the area under the ROC curve by the rank-sum formulation,
// with average ranks for tied scores. Targets must be 0/1.
func rocAUC(y, proba []float64) float64 {
	n := len(y)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return proba[order[a]] < proba[order[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && proba[order[j]] == proba[order[i]] {
			j++
		}
		// Average rank over the tie group; ranks are 1-based.
		avg := float64(i+j+1) / 2.0
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		i = j
	}

	var posRankSum float64
	var pos, neg float64
	for i := range y {
		if y[i] == 1 {
			pos++
			posRankSum += ranks[i]
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0.5
	}
	return (posRankSum - pos*(pos+1)/2) / (pos * neg)
}

func distinct(y []float64) []float64 {
	seen := make(map[float64]bool)
	var out []float64
	for _, v := range y {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}
