package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/pvoronin/underwriter/internal/cache"
	"github.com/pvoronin/underwriter/internal/explain"
	"github.com/pvoronin/underwriter/internal/model"
	"github.com/pvoronin/underwriter/internal/predict"
	"github.com/pvoronin/underwriter/internal/store"
	"github.com/pvoronin/underwriter/internal/worker"
	"github.com/spf13/cobra"
)

var (
	batchModelDir  string
	batchOutputDir string
	batchWorkers   int
	batchNoCache   bool
	batchLLMRate   float64
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Score many applicants from a CSV in parallel",
	Long: `Batch scores every applicant in a CSV file concurrently:
- Read applicants (one per row) from the input file
- Score them in parallel with a configurable worker count
- Write one assessment JSON per applicant to the output directory

Assessments are cached in memory and on disk, so rerunning a batch
only scores the rows that changed. With --llm each assessment gains a plain-language
explanation; those calls are rate limited.

Example:
  underwriter batch applicants.csv
  underwriter batch applicants.csv --concurrency 8 --output-dir ./assessments
  underwriter batch applicants.csv --llm --llm-rate 0.5`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	defaults := model.DefaultConfig()
	batchCmd.Flags().StringVar(&batchModelDir, "models", defaults.Training.ModelDir, "artifact directory")
	batchCmd.Flags().StringVar(&batchOutputDir, "output-dir", "./assessments", "output directory")
	batchCmd.Flags().IntVar(&batchWorkers, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().BoolVar(&batchNoCache, "no-cache", false, "disable the assessment cache")

	batchCmd.Flags().BoolVar(&llmEnabled, "llm", false, "generate plain-language explanations")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
	batchCmd.Flags().StringVar(&llmBaseURL, "llm-base-url", "", "OpenAI-compatible base URL")
	batchCmd.Flags().Float64Var(&batchLLMRate, "llm-rate", 1, "LLM calls per second")
}

// batchJob scores one applicant and writes its assessment file.
type batchJob struct {
	index     int
	applicant model.Applicant
	predictor *predict.Predictor
	explainer *explain.Explainer
	outDir    string
}

// batchResult reports one scored applicant.
type batchResult struct {
	index int
	path  string
	err   error
}

func (r *batchResult) Err() error { return r.err }

func (j *batchJob) Execute(ctx context.Context) worker.Result {
	res := &batchResult{index: j.index}

	assessment, err := j.predictor.PredictRisk(j.applicant)
	if err != nil {
		res.err = fmt.Errorf("applicant %d: %w", j.index+1, err)
		return res
	}

	if j.explainer != nil {
		text, err := j.explainer.Explain(ctx, j.applicant, assessment)
		if err != nil {
			res.err = fmt.Errorf("applicant %d: explanation: %w", j.index+1, err)
			return res
		}
		assessment.Explanation = text
	}

	raw, err := json.MarshalIndent(assessment, "", "  ")
	if err != nil {
		res.err = fmt.Errorf("applicant %d: marshal: %w", j.index+1, err)
		return res
	}
	res.path = filepath.Join(j.outDir, fmt.Sprintf("applicant_%04d.json", j.index+1))
	if err := os.WriteFile(res.path, raw, 0o644); err != nil {
		res.err = fmt.Errorf("applicant %d: write: %w", j.index+1, err)
	}
	return res
}

func runBatch(cmd *cobra.Command, args []string) error {
	applicants, err := store.ReadApplicants(args[0])
	if err != nil {
		return fmt.Errorf("read applicants: %w", err)
	}
	if len(applicants) == 0 {
		return fmt.Errorf("no applicants in %s", args[0])
	}

	bundle, err := store.LoadArtifacts(batchModelDir)
	if err != nil {
		return fmt.Errorf("load artifacts: %w", err)
	}

	if err := os.MkdirAll(batchOutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	cfg := loadConfig()
	predictor := predict.New(bundle.Artifacts, bundle.Performance, bundle.Encoder)
	if cfg.Cache.Enabled && !batchNoCache {
		predictor = predictor.WithCache(cache.NewLayered(cfg.Cache.Dir, cfg.Cache.TTL), cfg.Cache.TTL)
	}

	var explainer *explain.Explainer
	if llmEnabled {
		llmCfg := llmConfigFromEnv()
		llmCfg.Rate = batchLLMRate
		explainer, err = explain.New(llmCfg)
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stderr, "Scoring %d applicants with %d workers...\n", len(applicants), batchWorkers)
	start := time.Now()

	pool := worker.NewPool(batchWorkers)
	pool.Start()
	for i, a := range applicants {
		pool.Submit(&batchJob{
			index:     i,
			applicant: a,
			predictor: predictor,
			explainer: explainer,
			outDir:    batchOutputDir,
		})
	}

	var failed int
	for _, r := range pool.Wait() {
		if err := r.Err(); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "  %v\n", err)
		}
	}

	fmt.Printf("Scored %d/%d applicants in %v\n", len(applicants)-failed, len(applicants), time.Since(start).Round(time.Millisecond))
	fmt.Printf("Assessments written to %s\n", batchOutputDir)
	if failed > 0 {
		return fmt.Errorf("%d applicants failed", failed)
	}
	return nil
}
