package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Default returns a configuration populated with defaults. Loading a
// config file overlays it, so absent keys keep their default values
// (this is also how prefilter.enabled defaults to true even though the
// TOML zero value is false).
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			BatchSize:  20,
			MaxBatches: 50,
			OutputPath: "analyzed_comments.csv",
			OnFailure:  OnFailurePrompt,
		},
		Classifier: ClassifierConfig{
			Temperature:           0.2,
			MaxOutputTokens:       4096,
			RateLimitPerMinute:    15,
			HTTPTimeoutSeconds:    120,
			MaxAttempts:           3,
			BaseRetryDelaySeconds: 2,
		},
		Prefilter: PrefilterConfig{
			Enabled: true,
		},
		Report: ReportConfig{
			TopSevere: 10,
		},
	}
}

// Load reads and parses the configuration file and environment variables.
func Load(configPath string) (*Config, *Secrets, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, LoadSecrets(), nil
}
