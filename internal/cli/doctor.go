package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pvoronin/underwriter/internal/model"
	"github.com/spf13/cobra"
)

// doctorCmd represents the doctor command
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the runtime environment",
	Long: `Doctor verifies the environment the pipeline runs in: the Go runtime
version, that the data and model directories are writable, and whether
an LLM API key is available for explanations. It verifies only; it
never installs or modifies anything.

Exits non-zero when a required check fails.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg := model.DefaultConfig()
	failures := 0

	fmt.Printf("Runtime: %s (%s/%s)\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fmt.Printf("CPUs:    %d\n\n", runtime.NumCPU())

	for _, dir := range []string{cfg.Data.Dir, cfg.Training.ModelDir} {
		if err := checkWritable(dir); err != nil {
			failures++
			fmt.Printf("✗ %s not writable: %v\n", dir, err)
		} else {
			fmt.Printf("✓ %s writable\n", dir)
		}
	}

	if os.Getenv("OPENAI_API_KEY") != "" {
		fmt.Printf("✓ OPENAI_API_KEY set (LLM explanations available)\n")
	} else {
		fmt.Printf("- OPENAI_API_KEY not set (LLM explanations disabled)\n")
	}

	if failures > 0 {
		return fmt.Errorf("%d checks failed", failures)
	}
	fmt.Printf("\nAll checks passed\n")
	return nil
}

// checkWritable probes dir by creating and removing a marker file. The
// directory is created if missing.
func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	probe := filepath.Join(dir, ".doctor-probe")
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		return err
	}
	return os.Remove(probe)
}
