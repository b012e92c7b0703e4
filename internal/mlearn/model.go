// Package mlearn implements the three supported model families on a shared
// CART tree core: bagged trees (random forest), gradient-boosted trees, and
// a per-feature additive boosting model. Every family is fit with fixed
// hyperparameters and a fixed seed, so identical inputs always produce
// numerically identical models.
package mlearn

import "encoding/gob"

// Classifier produces a calibrated class-1 probability for a feature row.
type Classifier interface {
	// PredictProba returns the probability of class 1.
	PredictProba(row []float64) float64
	// Predict returns the hard label (0 or 1) at the 0.5 threshold.
	Predict(row []float64) float64
	// NumFeatures returns the feature count the model was fit with.
	NumFeatures() int
	// FeatureImportance returns non-negative weights summing to 1, aligned
	// with the training feature order.
	FeatureImportance() []float64
}

// Regressor predicts a continuous target for a feature row.
type Regressor interface {
	Predict(row []float64) float64
	NumFeatures() int
	FeatureImportance() []float64
}

func init() {
	// Concrete model types cross the gob boundary inside artifacts.
	gob.Register(&ForestClassifier{})
	gob.Register(&ForestRegressor{})
	gob.Register(&GBMClassifier{})
	gob.Register(&GBMRegressor{})
	gob.Register(&EBMClassifier{})
	gob.Register(&EBMRegressor{})
}

// normalize scales weights in place to sum to 1, leaving all-zero inputs
// untouched.
func normalize(w []float64) []float64 {
	total := 0.0
	for _, v := range w {
		total += v
	}
	if total == 0 {
		return w
	}
	for i := range w {
		w[i] /= total
	}
	return w
}
