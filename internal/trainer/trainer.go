// Package trainer fits the supported model families against prepared
// features and evaluates them on held-out data. Families for the same task
// are mutually independent: they train in parallel on the worker pool, and
// one family failing never aborts its siblings.
package trainer

import (
	"context"
	"errors"
	"fmt"

	"github.com/pvoronin/underwriter/internal/eval"
	"github.com/pvoronin/underwriter/internal/features"
	"github.com/pvoronin/underwriter/internal/mlearn"
	"github.com/pvoronin/underwriter/internal/model"
	"github.com/pvoronin/underwriter/internal/worker"
)

// Artifact is an opaque fitted model plus the metadata evaluation and
// inference need. Immutable once fit.
type Artifact struct {
	Key        model.ModelKey
	Classifier mlearn.Classifier // set iff Key.Task is classification
	Regressor  mlearn.Regressor  // set iff Key.Task is regression
	Features   []string
	Importance map[string]float64
}

// Fit trains one (family, task) pair with its fixed hyperparameters. A
// degenerate target (single class for classification, empty for regression)
// is a TrainingError.
func Fit(family model.Family, task model.Task, x features.Matrix, y []float64) (*Artifact, error) {
	key := model.ModelKey{Family: family, Task: task}
	a := &Artifact{Key: key, Features: x.Names}

	var imp []float64
	var err error
	switch task {
	case model.TaskClassification:
		var c mlearn.Classifier
		c, err = fitClassifier(family, x.Rows, y)
		if err == nil {
			a.Classifier = c
			imp = c.FeatureImportance()
		}
	case model.TaskRegression:
		var r mlearn.Regressor
		r, err = fitRegressor(family, x.Rows, y)
		if err == nil {
			a.Regressor = r
			imp = r.FeatureImportance()
		}
	default:
		err = fmt.Errorf("unsupported task type %q", task)
	}
	if err != nil {
		return nil, &model.TrainingError{Model: key.String(), Reason: err.Error()}
	}

	a.Importance = make(map[string]float64, len(x.Names))
	for i, name := range x.Names {
		a.Importance[name] = imp[i]
	}
	return a, nil
}

func fitClassifier(family model.Family, x [][]float64, y []float64) (mlearn.Classifier, error) {
	switch family {
	case model.FamilyRandomForest:
		return mlearn.FitForestClassifier(x, y, mlearn.DefaultForestParams())
	case model.FamilyGradientBoosting:
		return mlearn.FitGBMClassifier(x, y, mlearn.DefaultGBMParams())
	case model.FamilyExplainableBoosting:
		return mlearn.FitEBMClassifier(x, y, mlearn.DefaultEBMParams())
	default:
		return nil, fmt.Errorf("unknown model family %q", family)
	}
}

func fitRegressor(family model.Family, x [][]float64, y []float64) (mlearn.Regressor, error) {
	switch family {
	case model.FamilyRandomForest:
		return mlearn.FitForestRegressor(x, y, mlearn.DefaultForestParams())
	case model.FamilyGradientBoosting:
		return mlearn.FitGBMRegressor(x, y, mlearn.DefaultGBMParams())
	case model.FamilyExplainableBoosting:
		return mlearn.FitEBMRegressor(x, y, mlearn.DefaultEBMParams())
	default:
		return nil, fmt.Errorf("unknown model family %q", family)
	}
}

// Outcome is the result of training and evaluating one family.
type Outcome struct {
	Key         model.ModelKey
	Artifact    *Artifact
	Performance model.Performance
	TrainErr    error // degenerate target; siblings unaffected
}

// Err implements worker.Result.
func (o *Outcome) Err() error { return o.TrainErr }

// fitJob trains and evaluates one family on the pool.
type fitJob struct {
	family model.Family
	task   model.Task
	split  *features.Split
}

func (j *fitJob) Execute(_ context.Context) worker.Result {
	key := model.ModelKey{Family: j.family, Task: j.task}
	out := &Outcome{Key: key}

	a, err := Fit(j.family, j.task, j.split.XTrain, j.split.YTrain)
	if err != nil {
		out.TrainErr = err
		return out
	}
	out.Artifact = a

	switch j.task {
	case model.TaskClassification:
		out.Performance, err = eval.EvaluateClassifier(key, a.Classifier, j.split.XTest, j.split.YTest)
	default:
		out.Performance, err = eval.EvaluateRegressor(key, a.Regressor, j.split.XTest, j.split.YTest)
	}
	if err != nil {
		out.TrainErr = err
	}
	return out
}

// TrainAll fits and evaluates every family for one task on a pool of the
// given width. Per-family failures are reported in their Outcome, never
// propagated to siblings.
func TrainAll(task model.Task, split *features.Split, workers int) []*Outcome {
	pool := worker.NewPool(workers)
	pool.Start()
	for _, family := range model.Families {
		pool.Submit(&fitJob{family: family, task: task, split: split})
	}

	results := pool.Wait()
	byKey := make(map[model.ModelKey]*Outcome, len(results))
	for _, r := range results {
		o := r.(*Outcome)
		byKey[o.Key] = o
	}

	// Fixed family order regardless of completion order.
	outcomes := make([]*Outcome, 0, len(byKey))
	for _, family := range model.Families {
		if o, ok := byKey[model.ModelKey{Family: family, Task: task}]; ok {
			outcomes = append(outcomes, o)
		}
	}
	return outcomes
}

// IsTrainingError reports whether err is a per-family training failure.
func IsTrainingError(err error) bool {
	var te *model.TrainingError
	return errors.As(err, &te)
}
