package config

import (
	"fmt"
	"os"

	"github.com/modfall/toxiscan/pkg/models"
)

// Config represents the complete application configuration.
type Config struct {
	Analysis   AnalysisConfig   `toml:"analysis"`
	Classifier ClassifierConfig `toml:"classifier"`
	Prefilter  PrefilterConfig  `toml:"prefilter"`
	Report     ReportConfig     `toml:"report"`
	Metrics    MetricsConfig    `toml:"metrics"`
}

// AnalysisConfig holds settings for the batch analysis loop.
type AnalysisConfig struct {
	BatchSize         int    `toml:"batch_size"`  // comments per classifier call
	MaxBatches        int    `toml:"max_batches"` // processing ceiling for a run
	OutputPath        string `toml:"output_path"`
	ResumeFromSession string `toml:"resume_from_session"` // session directory to resume (e.g. "session_2025-10-27T12-34-56")
	OnFailure         string `toml:"on_failure"`          // prompt, skip, or abort
}

// ClassifierConfig holds settings for the remote classification endpoint.
type ClassifierConfig struct {
	BaseURL               string  `toml:"base_url"`
	ModelName             string  `toml:"model_name"`
	Temperature           float64 `toml:"temperature"`
	MaxOutputTokens       int     `toml:"max_output_tokens"`
	RateLimitPerMinute    int     `toml:"rate_limit_per_minute"`
	HTTPTimeoutSeconds    int     `toml:"http_timeout_seconds"`
	MaxAttempts           int     `toml:"max_attempts"` // automatic attempts before escalating
	BaseRetryDelaySeconds int     `toml:"base_retry_delay_seconds"`
}

// PrefilterConfig holds settings for the local profanity prefilter.
type PrefilterConfig struct {
	Enabled    bool     `toml:"enabled"`
	ExtraWords []string `toml:"extra_words"` // additional tokens on top of the built-in list
}

// ReportConfig holds post-hoc reporting defaults (not part of the run loop).
type ReportConfig struct {
	TopSevere      int    `toml:"top_severe"`
	FilterType     string `toml:"filter_type"`
	CompareSamples int    `toml:"compare_samples"` // 0 = minimum of both files
}

// MetricsConfig holds the optional Prometheus exposition settings.
type MetricsConfig struct {
	ListenAddr string `toml:"listen_addr"` // empty disables the endpoint
}

// Failure escalation policies.
const (
	OnFailurePrompt = "prompt"
	OnFailureSkip   = "skip"
	OnFailureAbort  = "abort"
)

const (
	// MaxBatchSize is the upper bound on comments per classifier call.
	MaxBatchSize = 500
	// MaxAttemptsCeiling bounds the automatic retry budget.
	MaxAttemptsCeiling = 10
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Analysis.BatchSize < 1 {
		return fmt.Errorf("analysis.batch_size must be at least 1")
	}
	if c.Analysis.BatchSize > MaxBatchSize {
		return fmt.Errorf("analysis.batch_size must not exceed %d (got %d)", MaxBatchSize, c.Analysis.BatchSize)
	}
	if c.Analysis.MaxBatches < 1 {
		return fmt.Errorf("analysis.max_batches must be at least 1")
	}
	if c.Analysis.OutputPath == "" {
		return fmt.Errorf("analysis.output_path is required")
	}
	switch c.Analysis.OnFailure {
	case OnFailurePrompt, OnFailureSkip, OnFailureAbort:
	default:
		return fmt.Errorf("analysis.on_failure must be one of: prompt, skip, abort (got %q)", c.Analysis.OnFailure)
	}

	if c.Classifier.BaseURL == "" {
		return fmt.Errorf("classifier.base_url is required")
	}
	if c.Classifier.ModelName == "" {
		return fmt.Errorf("classifier.model_name is required")
	}
	if c.Classifier.Temperature < 0 || c.Classifier.Temperature > 2 {
		return fmt.Errorf("classifier.temperature must be between 0 and 2")
	}
	if c.Classifier.MaxOutputTokens < 1 {
		return fmt.Errorf("classifier.max_output_tokens must be at least 1")
	}
	if c.Classifier.RateLimitPerMinute < 1 {
		return fmt.Errorf("classifier.rate_limit_per_minute must be at least 1")
	}
	if c.Classifier.MaxAttempts < 1 || c.Classifier.MaxAttempts > MaxAttemptsCeiling {
		return fmt.Errorf("classifier.max_attempts must be between 1 and %d (got %d)", MaxAttemptsCeiling, c.Classifier.MaxAttempts)
	}
	if c.Classifier.BaseRetryDelaySeconds < 1 {
		return fmt.Errorf("classifier.base_retry_delay_seconds must be at least 1")
	}

	if c.Report.FilterType != "" && !models.OffenseType(c.Report.FilterType).Valid() {
		return fmt.Errorf("report.filter_type must be one of: hate speech, toxicity, profanity, harassment (got %q)", c.Report.FilterType)
	}
	if c.Report.TopSevere < 0 {
		return fmt.Errorf("report.top_severe must not be negative")
	}
	if c.Report.CompareSamples < 0 {
		return fmt.Errorf("report.compare_samples must not be negative")
	}

	return nil
}

// Secrets holds sensitive credentials loaded from environment variables.
type Secrets struct {
	APIKey string
}

// LoadSecrets reads the classifier credential from the environment.
// A generic API_KEY takes precedence over provider-specific variables.
func LoadSecrets() *Secrets {
	for _, name := range []string{"API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY", "OPENAI_API_KEY"} {
		if key := os.Getenv(name); key != "" {
			return &Secrets{APIKey: key}
		}
	}
	return &Secrets{}
}
