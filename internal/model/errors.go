package model

import "fmt"

// InvalidParameterError reports a bad sample count, seed or threshold.
type InvalidParameterError struct {
	Param  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Param, e.Reason)
}

// InsufficientDataError signals that regression preparation produced fewer
// claim rows than the minimum threshold. Recoverable: the caller skips the
// regression stage instead of failing the run.
type InsufficientDataError struct {
	Need int
	Got  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: need at least %d samples, got %d", e.Need, e.Got)
}

// TrainingError reports a degenerate target vector for one model family.
// Fatal to that family only; sibling families keep training.
type TrainingError struct {
	Model  string
	Reason string
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("training %s: %s", e.Model, e.Reason)
}

// EvaluationError reports a shape mismatch between a fitted model and a test set.
type EvaluationError struct {
	Model  string
	Reason string
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluating %s: %s", e.Model, e.Reason)
}

// UnknownCategoryError reports a vehicle type outside the encoder's vocabulary
// at inference time. Never silently substituted.
type UnknownCategoryError struct {
	Category string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q", e.Category)
}

// PersistenceError wraps a missing or malformed artifact on load/save.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
