package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pvoronin/underwriter/internal/cache"
	"github.com/pvoronin/underwriter/internal/explain"
	"github.com/pvoronin/underwriter/internal/model"
	"github.com/pvoronin/underwriter/internal/predict"
	"github.com/pvoronin/underwriter/internal/store"
	"github.com/spf13/cobra"
)

var (
	predModelDir    string
	predOutJSON     string
	predDriverAge   int
	predVehicleAge  int
	predVehicleType string
	predViolations  int
	predAccidents   int
	predPriorClaims int
	predGeoRisk     float64
	predCredit      int
	llmEnabled      bool
	llmModel        string
	llmBaseURL      string
)

// predictCmd represents the predict command
var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Score one applicant with the trained models",
	Long: `Predict loads the trained artifacts, selects the best classification
model by held-out ROC-AUC, and converts its claim probability into a
risk score, risk category and suggested premium for the applicant
described by the flags.

An unknown vehicle type is an error: the category encoder is fixed at
training time and never substitutes silently.

Example:
  underwriter predict --age 25 --vehicle-age 3 --vehicle-type "Sports Car" --violations 2 --accidents 1
  underwriter predict --age 45 --vehicle-type Sedan --credit-score 720 --json assessment.json
  underwriter predict --age 25 --vehicle-type SUV --llm`,
	Args: cobra.NoArgs,
	RunE: runPredict,
}

func init() {
	rootCmd.AddCommand(predictCmd)

	defaults := model.DefaultConfig()
	predictCmd.Flags().StringVar(&predModelDir, "models", defaults.Training.ModelDir, "artifact directory")
	predictCmd.Flags().StringVar(&predOutJSON, "json", "", "write assessment JSON to this path")

	predictCmd.Flags().IntVar(&predDriverAge, "age", 0, "driver age (required)")
	predictCmd.Flags().IntVar(&predVehicleAge, "vehicle-age", 0, "vehicle age in years")
	predictCmd.Flags().StringVar(&predVehicleType, "vehicle-type", "", "vehicle type (required)")
	predictCmd.Flags().IntVar(&predViolations, "violations", 0, "violation count")
	predictCmd.Flags().IntVar(&predAccidents, "accidents", 0, "accident count")
	predictCmd.Flags().IntVar(&predPriorClaims, "prior-claims", 0, "prior claims count")
	predictCmd.Flags().Float64Var(&predGeoRisk, "geo-risk", 1.0, "geographic risk multiplier")
	predictCmd.Flags().IntVar(&predCredit, "credit-score", 700, "credit score")
	_ = predictCmd.MarkFlagRequired("age")
	_ = predictCmd.MarkFlagRequired("vehicle-type")

	predictCmd.Flags().BoolVar(&llmEnabled, "llm", false, "generate a plain-language explanation")
	predictCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
	predictCmd.Flags().StringVar(&llmBaseURL, "llm-base-url", "", "OpenAI-compatible base URL (e.g. a local endpoint)")
}

func runPredict(cmd *cobra.Command, args []string) error {
	bundle, err := store.LoadArtifacts(predModelDir)
	if err != nil {
		return fmt.Errorf("load artifacts: %w", err)
	}

	applicant := model.Applicant{
		DriverAge:      predDriverAge,
		VehicleAge:     predVehicleAge,
		VehicleType:    model.VehicleType(predVehicleType),
		Violations:     predViolations,
		Accidents:      predAccidents,
		PriorClaims:    predPriorClaims,
		GeographicRisk: predGeoRisk,
		CreditScore:    predCredit,
	}

	p := predict.New(bundle.Artifacts, bundle.Performance, bundle.Encoder)
	if cfg := loadConfig(); cfg.Cache.Enabled {
		p = p.WithCache(cache.NewLayered(cfg.Cache.Dir, cfg.Cache.TTL), cfg.Cache.TTL)
	}
	assessment, err := p.PredictRisk(applicant)
	if err != nil {
		return err
	}

	if llmEnabled {
		cfg := llmConfigFromEnv()
		explainer, err := explain.New(cfg)
		if err != nil {
			return err
		}
		text, err := explainer.Explain(context.Background(), applicant, assessment)
		if err != nil {
			// The assessment stands on its own; explanation failures warn.
			fmt.Fprintf(os.Stderr, "Warning: explanation failed: %v\n", err)
		} else {
			assessment.Explanation = text
		}
	}

	printAssessment(assessment)

	if predOutJSON != "" {
		raw, err := json.MarshalIndent(assessment, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal assessment: %w", err)
		}
		if err := os.WriteFile(predOutJSON, raw, 0o644); err != nil {
			return fmt.Errorf("write assessment: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Wrote JSON: %s\n", predOutJSON)
		}
	}
	return nil
}

func llmConfigFromEnv() model.LLMConfig {
	cfg := loadConfig().LLM
	cfg.Provider = "openai"
	cfg.Model = llmModel
	cfg.BaseURL = llmBaseURL
	cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	return cfg
}

func printAssessment(a *model.RiskAssessment) {
	fmt.Printf("Risk score:        %d/100\n", a.RiskScore)
	fmt.Printf("Risk category:     %s\n", a.RiskCategory)
	fmt.Printf("Claim probability: %.3f\n", a.ClaimProbability)
	fmt.Printf("Base premium:      $%.0f\n", a.BasePremium)
	fmt.Printf("Suggested premium: $%d (%s)\n", a.SuggestedPremium, a.PremiumAdjustment)
	fmt.Printf("Model:             %s\n", a.Model)
	if a.Explanation != "" {
		fmt.Printf("\n%s\n", a.Explanation)
	}
}
