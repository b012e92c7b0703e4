package features

import (
	"math/rand"

	"github.com/pvoronin/underwriter/internal/model"
)

// FeatureNames is the fixed column order of every feature matrix. The
// claim-derived columns are never part of it.
var FeatureNames = []string{
	"Driver_Age",
	"Vehicle_Age",
	"Violations",
	"Accidents",
	"Prior_Claims",
	"Geographic_Risk",
	"Credit_Score",
	"Vehicle_Type_Encoded",
}

// Matrix is a numeric feature table paired with its column names. It is owned
// by a single training invocation and never shared across task types.
type Matrix struct {
	Names []string
	Rows  [][]float64
}

// Prepared is the output of Prepare: a feature matrix, its target vector and
// the encoder used for the categorical column.
type Prepared struct {
	X       Matrix
	Y       []float64
	Encoder *Encoder
	Task    model.Task
}

// MinRegressionSamples is the default minimum number of claim-positive rows
// required before regression training is attempted.
const MinRegressionSamples = 100

// Prepare converts records into a feature matrix and task-appropriate target.
// For classification the target is the has-claim indicator over all rows; for
// regression it is the claim cost over claim-positive rows only, and fewer
// than minSamples such rows is an InsufficientDataError. A nil encoder is fit
// on the full vehicle-type vocabulary.
func Prepare(records []model.Record, task model.Task, enc *Encoder, minSamples int) (*Prepared, error) {
	if enc == nil {
		enc = NewEncoder(model.VehicleTypes)
	}
	if minSamples <= 0 {
		minSamples = MinRegressionSamples
	}

	var rows [][]float64
	var y []float64
	for _, r := range records {
		if task == model.TaskRegression && !r.HasClaim {
			continue
		}
		row, err := Row(enc, r.DriverAge, r.VehicleAge, r.VehicleType,
			r.Violations, r.Accidents, r.PriorClaims, r.GeographicRisk, r.CreditScore)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
		switch task {
		case model.TaskRegression:
			y = append(y, r.ClaimCost)
		default:
			if r.HasClaim {
				y = append(y, 1)
			} else {
				y = append(y, 0)
			}
		}
	}

	if task == model.TaskRegression && len(rows) < minSamples {
		return nil, &model.InsufficientDataError{Need: minSamples, Got: len(rows)}
	}

	return &Prepared{
		X:       Matrix{Names: FeatureNames, Rows: rows},
		Y:       y,
		Encoder: enc,
		Task:    task,
	}, nil
}

// Row builds a single feature row in FeatureNames order.
func Row(enc *Encoder, driverAge, vehicleAge int, vtype model.VehicleType,
	violations, accidents, priorClaims int, geographicRisk float64, creditScore int) ([]float64, error) {

	code, err := enc.Encode(vtype)
	if err != nil {
		return nil, err
	}
	return []float64{
		float64(driverAge),
		float64(vehicleAge),
		float64(violations),
		float64(accidents),
		float64(priorClaims),
		geographicRisk,
		float64(creditScore),
		float64(code),
	}, nil
}

// ApplicantRow builds the inference-time feature row for an applicant.
func ApplicantRow(enc *Encoder, a model.Applicant) ([]float64, error) {
	return Row(enc, a.DriverAge, a.VehicleAge, a.VehicleType,
		a.Violations, a.Accidents, a.PriorClaims, a.GeographicRisk, a.CreditScore)
}

// Split holds a train/test partition of a prepared set.
type Split struct {
	XTrain, XTest Matrix
	YTrain, YTest []float64
}

// TrainTestSplit partitions rows with a seeded shuffle. Classification splits
// are stratified by class so each side sees both labels whenever the input
// does.
func TrainTestSplit(p *Prepared, testFraction float64, seed int64) *Split {
	if testFraction <= 0 || testFraction >= 1 {
		testFraction = 0.2
	}
	rng := rand.New(rand.NewSource(seed))

	var testIdx map[int]bool
	if p.Task == model.TaskClassification {
		testIdx = stratifiedTestIndices(p.Y, testFraction, rng)
	} else {
		testIdx = shuffledTestIndices(len(p.Y), testFraction, rng)
	}

	s := &Split{
		XTrain: Matrix{Names: p.X.Names},
		XTest:  Matrix{Names: p.X.Names},
	}
	for i, row := range p.X.Rows {
		if testIdx[i] {
			s.XTest.Rows = append(s.XTest.Rows, row)
			s.YTest = append(s.YTest, p.Y[i])
		} else {
			s.XTrain.Rows = append(s.XTrain.Rows, row)
			s.YTrain = append(s.YTrain, p.Y[i])
		}
	}
	return s
}

func shuffledTestIndices(n int, frac float64, rng *rand.Rand) map[int]bool {
	perm := rng.Perm(n)
	k := int(float64(n) * frac)
	test := make(map[int]bool, k)
	for _, i := range perm[:k] {
		test[i] = true
	}
	return test
}

func stratifiedTestIndices(y []float64, frac float64, rng *rand.Rand) map[int]bool {
	byClass := make(map[float64][]int)
	for i, v := range y {
		byClass[v] = append(byClass[v], i)
	}
	// Deterministic class order: negatives before positives.
	classes := make([]float64, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	for i := 0; i < len(classes); i++ {
		for j := i + 1; j < len(classes); j++ {
			if classes[j] < classes[i] {
				classes[i], classes[j] = classes[j], classes[i]
			}
		}
	}

	test := make(map[int]bool)
	for _, c := range classes {
		idx := byClass[c]
		perm := rng.Perm(len(idx))
		k := int(float64(len(idx)) * frac)
		for _, p := range perm[:k] {
			test[idx[p]] = true
		}
	}
	return test
}
