package model

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestModelKey_String(t *testing.T) {
	key := ModelKey{Family: FamilyRandomForest, Task: TaskClassification}
	if got := key.String(); got != "random_forest_classification" {
		t.Errorf("expected random_forest_classification, got %s", got)
	}

	key = ModelKey{Family: FamilyExplainableBoosting, Task: TaskRegression}
	if got := key.String(); got != "explainable_boosting_regression" {
		t.Errorf("expected explainable_boosting_regression, got %s", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Data.Samples != 15000 {
		t.Errorf("expected 15000 default samples, got %d", cfg.Data.Samples)
	}
	if cfg.Data.Seed != 42 {
		t.Errorf("expected default seed 42, got %d", cfg.Data.Seed)
	}
	if cfg.Training.TestFraction != 0.2 {
		t.Errorf("expected default test fraction 0.2, got %g", cfg.Training.TestFraction)
	}
	if cfg.Training.MinRegressionSamples != 100 {
		t.Errorf("expected default regression minimum 100, got %d", cfg.Training.MinRegressionSamples)
	}
	if cfg.Concurrency.Workers < 1 {
		t.Errorf("expected at least one worker, got %d", cfg.Concurrency.Workers)
	}
}

func TestPersistenceError_Unwrap(t *testing.T) {
	inner := errors.New("no such file")
	err := fmt.Errorf("loading: %w", &PersistenceError{Path: "models/metadata.json", Err: inner})

	var pe *PersistenceError
	if !errors.As(err, &pe) {
		t.Fatal("expected errors.As to find the PersistenceError")
	}
	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to reach the wrapped cause")
	}
	if !strings.Contains(pe.Error(), "metadata.json") {
		t.Errorf("expected the path in the message, got %q", pe.Error())
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&InvalidParameterError{Param: "seed", Reason: "must be non-negative"}, "invalid parameter seed"},
		{&InsufficientDataError{Need: 100, Got: 37}, "need at least 100"},
		{&TrainingError{Model: "gradient_boosting_classification", Reason: "single class"}, "gradient_boosting_classification"},
		{&EvaluationError{Model: "random_forest_regression", Reason: "shape"}, "random_forest_regression"},
		{&UnknownCategoryError{Category: "Hovercraft"}, "Hovercraft"},
	}
	for _, tt := range tests {
		if !strings.Contains(tt.err.Error(), tt.want) {
			t.Errorf("expected %q in %q", tt.want, tt.err.Error())
		}
	}
}
