package model

// Task distinguishes the two prediction problems.
type Task string

const (
	TaskClassification Task = "classification" // predict claim occurrence
	TaskRegression     Task = "regression"     // predict claim cost
)

// Family identifies one of the three supported model families.
type Family string

const (
	FamilyRandomForest        Family = "random_forest"
	FamilyGradientBoosting    Family = "gradient_boosting"
	FamilyExplainableBoosting Family = "explainable_boosting"
)

// Families lists the model families in priority order. The order is the
// documented tie-break for best-model selection: on an exact ROC-AUC tie the
// earlier family wins.
var Families = []Family{
	FamilyRandomForest,
	FamilyGradientBoosting,
	FamilyExplainableBoosting,
}

// ModelKey names one trained (family, task) pair, e.g.
// "random_forest_classification".
type ModelKey struct {
	Family Family `json:"family"`
	Task   Task   `json:"task"`
}

func (k ModelKey) String() string {
	return string(k.Family) + "_" + string(k.Task)
}

// DefaultModel is the fallback when no classification model reports ROC-AUC.
var DefaultModel = ModelKey{Family: FamilyRandomForest, Task: TaskClassification}

// Performance holds the metrics for one evaluated model. Created once per
// evaluation; re-evaluation replaces the record wholesale.
type Performance struct {
	Model ModelKey `json:"model"`

	// Classification metrics (weighted over observed classes).
	Accuracy  float64  `json:"accuracy,omitempty"`
	Precision float64  `json:"precision,omitempty"`
	Recall    float64  `json:"recall,omitempty"`
	F1        float64  `json:"f1_score,omitempty"`
	ROCAUC    *float64 `json:"roc_auc,omitempty"` // only with exactly two test classes

	// Regression metrics.
	MSE  float64 `json:"mse,omitempty"`
	RMSE float64 `json:"rmse,omitempty"`
	MAE  float64 `json:"mae,omitempty"`
	R2   float64 `json:"r2_score,omitempty"`
}
