package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validConfig = `
[analysis]
batch_size = 10
max_batches = 5
output_path = "out.csv"
on_failure = "skip"

[classifier]
base_url = "https://example.com/v1"
model_name = "test-model"
`

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Analysis.BatchSize != 10 {
		t.Errorf("BatchSize = %d, want 10", cfg.Analysis.BatchSize)
	}
	if cfg.Classifier.MaxAttempts != 3 {
		t.Errorf("MaxAttempts default = %d, want 3", cfg.Classifier.MaxAttempts)
	}
	if cfg.Classifier.BaseRetryDelaySeconds != 2 {
		t.Errorf("BaseRetryDelaySeconds default = %d, want 2", cfg.Classifier.BaseRetryDelaySeconds)
	}
	if !cfg.Prefilter.Enabled {
		t.Error("Prefilter.Enabled default = false, want true")
	}
	if cfg.Report.TopSevere != 10 {
		t.Errorf("Report.TopSevere default = %d, want 10", cfg.Report.TopSevere)
	}
}

func TestLoadPrefilterCanBeDisabled(t *testing.T) {
	path := writeConfig(t, validConfig+`
[prefilter]
enabled = false
`)

	cfg, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Prefilter.Enabled {
		t.Error("Prefilter.Enabled = true, want false")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("Load() with missing file should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero batch size", func(c *Config) { c.Analysis.BatchSize = 0 }},
		{"oversized batch", func(c *Config) { c.Analysis.BatchSize = MaxBatchSize + 1 }},
		{"zero max batches", func(c *Config) { c.Analysis.MaxBatches = 0 }},
		{"empty output path", func(c *Config) { c.Analysis.OutputPath = "" }},
		{"bad on_failure", func(c *Config) { c.Analysis.OnFailure = "retry" }},
		{"missing base url", func(c *Config) { c.Classifier.BaseURL = "" }},
		{"missing model", func(c *Config) { c.Classifier.ModelName = "" }},
		{"zero attempts", func(c *Config) { c.Classifier.MaxAttempts = 0 }},
		{"attempts over ceiling", func(c *Config) { c.Classifier.MaxAttempts = MaxAttemptsCeiling + 1 }},
		{"zero retry delay", func(c *Config) { c.Classifier.BaseRetryDelaySeconds = 0 }},
		{"bad filter type", func(c *Config) { c.Report.FilterType = "spam" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Classifier.BaseURL = "https://example.com/v1"
			cfg.Classifier.ModelName = "test-model"
			if err := cfg.Validate(); err != nil {
				t.Fatalf("baseline config invalid: %v", err)
			}

			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

func TestLoadSecretsPrecedence(t *testing.T) {
	t.Setenv("API_KEY", "generic")
	t.Setenv("GEMINI_API_KEY", "gemini")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	if got := LoadSecrets().APIKey; got != "generic" {
		t.Errorf("APIKey = %q, want %q", got, "generic")
	}

	t.Setenv("API_KEY", "")
	if got := LoadSecrets().APIKey; got != "gemini" {
		t.Errorf("APIKey = %q, want %q", got, "gemini")
	}
}
