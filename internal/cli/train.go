package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pvoronin/underwriter/internal/model"
	"github.com/pvoronin/underwriter/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	trainData     string
	trainSamples  int
	trainSeed     int64
	trainModelDir string
	trainWorkers  int
	trainTestFrac float64
)

// trainCmd represents the train command
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train and evaluate all model families",
	Long: `Train runs the full pipeline: it loads a dataset (or generates one
when none exists), prepares features per task, fits the three model
families for claim prediction and claim-cost regression, evaluates each
on held-out data, and persists the fitted artifacts with metadata.

Model families train in parallel; one family failing does not stop the
others. Regression training is skipped when the dataset carries too few
claim rows.

Example:
  underwriter train
  underwriter train --data data/insurance_dataset.csv
  underwriter train --samples 15000 --seed 42 --model-dir models`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)

	defaults := model.DefaultConfig()
	trainCmd.Flags().StringVar(&trainData, "data", filepath.Join(defaults.Data.Dir, defaults.Data.Name), "dataset path (generated when missing)")
	trainCmd.Flags().IntVar(&trainSamples, "samples", defaults.Data.Samples, "records to generate when the dataset is missing")
	trainCmd.Flags().Int64Var(&trainSeed, "seed", defaults.Data.Seed, "generation seed")
	trainCmd.Flags().StringVar(&trainModelDir, "model-dir", defaults.Training.ModelDir, "artifact output directory")
	trainCmd.Flags().IntVar(&trainWorkers, "workers", defaults.Concurrency.Workers, "parallel training workers")
	trainCmd.Flags().Float64Var(&trainTestFrac, "test-fraction", defaults.Training.TestFraction, "held-out fraction")
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	f := cmd.Flags()
	if f.Changed("samples") {
		cfg.Data.Samples = trainSamples
	}
	if f.Changed("seed") {
		cfg.Data.Seed = trainSeed
	}
	if f.Changed("model-dir") {
		cfg.Training.ModelDir = trainModelDir
	}
	if f.Changed("test-fraction") {
		cfg.Training.TestFraction = trainTestFrac
	}
	if f.Changed("workers") {
		cfg.Concurrency.Workers = trainWorkers
	}

	p := pipeline.New(cfg)

	var state *pipeline.State
	var err error
	if _, statErr := os.Stat(trainData); statErr == nil {
		state, err = p.Load(trainData)
	} else {
		if verbose {
			fmt.Fprintf(os.Stderr, "Dataset %s not found, generating %d records...\n", trainData, cfg.Data.Samples)
		}
		state, err = p.Generate()
	}
	if err != nil {
		return err
	}

	state, err = p.Train(state)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	state, err = p.Persist(state)
	if err != nil {
		return fmt.Errorf("save artifacts: %w", err)
	}

	printPerformance(state)

	// Example assessment against the freshly trained models.
	applicant := model.Applicant{
		DriverAge:      25,
		VehicleAge:     3,
		VehicleType:    model.VehicleSportsCar,
		Violations:     2,
		Accidents:      1,
		PriorClaims:    0,
		GeographicRisk: 1.0,
		CreditScore:    700,
	}
	assessment, err := p.Predictor(state).PredictRisk(applicant)
	if err != nil {
		return fmt.Errorf("example prediction: %w", err)
	}
	fmt.Printf("\n=== Example Prediction ===\n")
	fmt.Printf("Applicant: age 25, Sports Car (3y), 2 violations, 1 accident\n")
	fmt.Printf("Model: %s\n", assessment.Model)
	fmt.Printf("Risk: %d/100 (%s), premium $%d (%s)\n",
		assessment.RiskScore, assessment.RiskCategory, assessment.SuggestedPremium, assessment.PremiumAdjustment)

	fmt.Printf("\nArtifacts saved to %s (run %s)\n", cfg.Training.ModelDir, state.RunID)
	return nil
}

func printPerformance(state *pipeline.State) {
	fmt.Printf("=== Model Performance Summary ===\n")

	keys := make([]model.ModelKey, 0, len(state.Performance))
	for k := range state.Performance {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	for _, k := range keys {
		perf := state.Performance[k]
		fmt.Printf("\n%s:\n", k)
		if k.Task == model.TaskClassification {
			fmt.Printf("  accuracy:  %.4f\n", perf.Accuracy)
			fmt.Printf("  precision: %.4f\n", perf.Precision)
			fmt.Printf("  recall:    %.4f\n", perf.Recall)
			fmt.Printf("  f1_score:  %.4f\n", perf.F1)
			if perf.ROCAUC != nil {
				fmt.Printf("  roc_auc:   %.4f\n", *perf.ROCAUC)
			}
		} else {
			fmt.Printf("  mse:  %.2f\n", perf.MSE)
			fmt.Printf("  rmse: %.2f\n", perf.RMSE)
			fmt.Printf("  mae:  %.2f\n", perf.MAE)
			fmt.Printf("  r2:   %.4f\n", perf.R2)
		}
	}

	for key, err := range state.Failed {
		fmt.Printf("\n%s: FAILED (%v)\n", key, err)
	}
	if state.RegressionSkipped {
		fmt.Printf("\nRegression skipped: not enough claim samples\n")
	}
}
