package model

import (
	"runtime"
	"time"
)

// Config is the full runtime configuration, assembled from defaults, the
// config file, UNDERWRITER_* environment variables and CLI flags.
type Config struct {
	Data        DataConfig        `yaml:"data" mapstructure:"data"`
	Training    TrainingConfig    `yaml:"training" mapstructure:"training"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// DataConfig controls dataset generation and storage.
type DataConfig struct {
	Dir     string `yaml:"dir" mapstructure:"dir"`         // dataset directory
	Name    string `yaml:"name" mapstructure:"name"`       // dataset file name
	Samples int    `yaml:"samples" mapstructure:"samples"` // records to generate
	Seed    int64  `yaml:"seed" mapstructure:"seed"`
}

// TrainingConfig controls the train/evaluate stages.
type TrainingConfig struct {
	ModelDir             string  `yaml:"model_dir" mapstructure:"model_dir"`
	TestFraction         float64 `yaml:"test_fraction" mapstructure:"test_fraction"`
	SplitSeed            int64   `yaml:"split_seed" mapstructure:"split_seed"`
	MinRegressionSamples int     `yaml:"min_regression_samples" mapstructure:"min_regression_samples"`
}

// ConcurrencyConfig bounds parallel work.
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// CacheConfig controls assessment caching.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir     string        `yaml:"dir" mapstructure:"dir"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// LLMConfig configures the optional assessment explainer.
type LLMConfig struct {
	Provider  string  `yaml:"provider" mapstructure:"provider"` // "openai" or "" (disabled)
	Model     string  `yaml:"model" mapstructure:"model"`
	APIKey    string  `yaml:"-" mapstructure:"-"` // env only, never persisted
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	Timeout   int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Rate      float64 `yaml:"rate" mapstructure:"rate"`   // calls per second in batch mode
	Burst     int     `yaml:"burst" mapstructure:"burst"` // burst allowance
}

// OutputConfig controls reporting verbosity.
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Dir:     "data",
			Name:    "insurance_dataset.csv",
			Samples: 15000,
			Seed:    42,
		},
		Training: TrainingConfig{
			ModelDir:             "models",
			TestFraction:         0.2,
			SplitSeed:            42,
			MinRegressionSamples: 100,
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".underwriter-cache",
			TTL:     24 * time.Hour,
		},
		LLM: LLMConfig{
			Provider:  "",
			Timeout:   30,
			MaxTokens: 400,
			Rate:      1,
			Burst:     2,
		},
		Output: OutputConfig{},
	}
}
