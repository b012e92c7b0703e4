package mlearn

import (
	"bytes"
	"encoding/gob"
	"math"
	"math/rand"
	"testing"
)

// separable builds a noise-free binary problem: the label depends on the
// first two of four features, the rest are distractors.
func separable(n int, seed int64) (x [][]float64, y []float64) {
	rng := rand.New(rand.NewSource(seed))
	x = make([][]float64, n)
	y = make([]float64, n)
	for i := range x {
		row := []float64{rng.Float64(), rng.Float64(), rng.Float64(), rng.Float64()}
		x[i] = row
		if row[0]+row[1] > 1 {
			y[i] = 1
		}
	}
	return x, y
}

// linear builds a regression problem with a dominant linear signal.
func linear(n int, seed int64) (x [][]float64, y []float64) {
	rng := rand.New(rand.NewSource(seed))
	x = make([][]float64, n)
	y = make([]float64, n)
	for i := range x {
		row := []float64{rng.Float64(), rng.Float64(), rng.Float64()}
		x[i] = row
		y[i] = 10*row[0] + 3*row[1]
	}
	return x, y
}

func trainAccuracy(t *testing.T, c Classifier, x [][]float64, y []float64) float64 {
	t.Helper()
	correct := 0
	for i, row := range x {
		if c.Predict(row) == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(y))
}

func checkImportance(t *testing.T, name string, imp []float64, features int) {
	t.Helper()
	if len(imp) != features {
		t.Fatalf("%s: expected %d importance weights, got %d", name, features, len(imp))
	}
	sum := 0.0
	for i, v := range imp {
		if v < 0 {
			t.Errorf("%s: negative importance %g at feature %d", name, v, i)
		}
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("%s: importance sums to %g, expected 1", name, sum)
	}
}

func TestClassifiers_LearnSeparableSignal(t *testing.T) {
	x, y := separable(400, 1)

	fits := []struct {
		name string
		fit  func() (Classifier, error)
	}{
		{"forest", func() (Classifier, error) { return FitForestClassifier(x, y, DefaultForestParams()) }},
		{"gbm", func() (Classifier, error) { return FitGBMClassifier(x, y, DefaultGBMParams()) }},
		{"ebm", func() (Classifier, error) { return FitEBMClassifier(x, y, DefaultEBMParams()) }},
	}

	for _, tt := range fits {
		t.Run(tt.name, func(t *testing.T) {
			c, err := tt.fit()
			if err != nil {
				t.Fatalf("fit: %v", err)
			}
			if c.NumFeatures() != 4 {
				t.Errorf("expected 4 features, got %d", c.NumFeatures())
			}

			if acc := trainAccuracy(t, c, x, y); acc < 0.85 {
				t.Errorf("train accuracy %g below 0.85", acc)
			}
			for _, row := range x[:20] {
				p := c.PredictProba(row)
				if p < 0 || p > 1 {
					t.Fatalf("probability %g out of [0,1]", p)
				}
				label := c.Predict(row)
				if label != 0 && label != 1 {
					t.Fatalf("label %g not in {0,1}", label)
				}
			}

			imp := c.FeatureImportance()
			checkImportance(t, tt.name, imp, 4)
			if imp[0]+imp[1] <= imp[2]+imp[3] {
				t.Errorf("informative features underweighted: %v", imp)
			}
		})
	}
}

func TestClassifiers_SingleClassRejected(t *testing.T) {
	x, _ := separable(50, 2)
	y := make([]float64, len(x)) // all zeros

	if _, err := FitForestClassifier(x, y, DefaultForestParams()); err == nil {
		t.Error("forest: expected error for a single-class target")
	}
	if _, err := FitGBMClassifier(x, y, DefaultGBMParams()); err == nil {
		t.Error("gbm: expected error for a single-class target")
	}
	if _, err := FitEBMClassifier(x, y, DefaultEBMParams()); err == nil {
		t.Error("ebm: expected error for a single-class target")
	}
}

func TestRegressors_LearnLinearSignal(t *testing.T) {
	x, y := linear(400, 3)

	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))
	var tss float64
	for _, v := range y {
		tss += (v - mean) * (v - mean)
	}

	fits := []struct {
		name string
		fit  func() (Regressor, error)
	}{
		{"forest", func() (Regressor, error) { return FitForestRegressor(x, y, DefaultForestParams()) }},
		{"gbm", func() (Regressor, error) { return FitGBMRegressor(x, y, DefaultGBMParams()) }},
		{"ebm", func() (Regressor, error) { return FitEBMRegressor(x, y, DefaultEBMParams()) }},
	}

	for _, tt := range fits {
		t.Run(tt.name, func(t *testing.T) {
			r, err := tt.fit()
			if err != nil {
				t.Fatalf("fit: %v", err)
			}
			if r.NumFeatures() != 3 {
				t.Errorf("expected 3 features, got %d", r.NumFeatures())
			}

			var sse float64
			for i, row := range x {
				diff := y[i] - r.Predict(row)
				sse += diff * diff
			}
			if r2 := 1 - sse/tss; r2 < 0.6 {
				t.Errorf("train R2 %g below 0.6", r2)
			}

			imp := r.FeatureImportance()
			checkImportance(t, tt.name, imp, 3)
			if imp[0] <= imp[2] {
				t.Errorf("dominant feature underweighted: %v", imp)
			}
		})
	}
}

func TestFits_Deterministic(t *testing.T) {
	x, y := separable(200, 4)
	probe := []float64{0.3, 0.9, 0.5, 0.1}

	a, err := FitForestClassifier(x, y, DefaultForestParams())
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	b, err := FitForestClassifier(x, y, DefaultForestParams())
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if a.PredictProba(probe) != b.PredictProba(probe) {
		t.Error("forest: expected identical fits for identical inputs")
	}

	g1, _ := FitGBMClassifier(x, y, DefaultGBMParams())
	g2, _ := FitGBMClassifier(x, y, DefaultGBMParams())
	if g1.PredictProba(probe) != g2.PredictProba(probe) {
		t.Error("gbm: expected identical fits for identical inputs")
	}

	e1, _ := FitEBMClassifier(x, y, DefaultEBMParams())
	e2, _ := FitEBMClassifier(x, y, DefaultEBMParams())
	if e1.PredictProba(probe) != e2.PredictProba(probe) {
		t.Error("ebm: expected identical fits for identical inputs")
	}
}

func TestModels_GobRoundTrip(t *testing.T) {
	x, y := separable(200, 5)
	probe := []float64{0.7, 0.6, 0.2, 0.4}

	models := map[string]Classifier{}
	if c, err := FitForestClassifier(x, y, DefaultForestParams()); err == nil {
		models["forest"] = c
	}
	if c, err := FitGBMClassifier(x, y, DefaultGBMParams()); err == nil {
		models["gbm"] = c
	}
	if c, err := FitEBMClassifier(x, y, DefaultEBMParams()); err == nil {
		models["ebm"] = c
	}
	if len(models) != 3 {
		t.Fatalf("expected 3 fitted models, got %d", len(models))
	}

	for name, c := range models {
		var buf bytes.Buffer
		// Encode through the interface, the way artifacts are persisted.
		if err := gob.NewEncoder(&buf).Encode(&c); err != nil {
			t.Fatalf("%s: encode: %v", name, err)
		}
		var back Classifier
		if err := gob.NewDecoder(&buf).Decode(&back); err != nil {
			t.Fatalf("%s: decode: %v", name, err)
		}
		if got, want := back.PredictProba(probe), c.PredictProba(probe); got != want {
			t.Errorf("%s: round-tripped model predicts %g, original %g", name, got, want)
		}
		if back.NumFeatures() != c.NumFeatures() {
			t.Errorf("%s: feature count lost in round trip", name)
		}
	}
}

func TestEBM_ContributionsSumToPrediction(t *testing.T) {
	x, y := linear(200, 6)
	r, err := FitEBMRegressor(x, y, DefaultEBMParams())
	if err != nil {
		t.Fatalf("fit: %v", err)
	}

	row := []float64{0.5, 0.25, 0.75}
	total := r.Base
	for f := 0; f < r.Features; f++ {
		total += r.contribution(f, row[f])
	}
	if math.Abs(total-r.Predict(row)) > 1e-9 {
		t.Errorf("per-feature contributions sum to %g, prediction is %g", total, r.Predict(row))
	}
}
