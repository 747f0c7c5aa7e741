package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/modfall/toxiscan/internal/api"
	"github.com/modfall/toxiscan/internal/checkpoint"
	"github.com/modfall/toxiscan/internal/config"
	"github.com/modfall/toxiscan/internal/dataset"
	"github.com/modfall/toxiscan/internal/metrics"
	"github.com/modfall/toxiscan/internal/orchestrator"
	"github.com/modfall/toxiscan/internal/prefilter"
	"github.com/modfall/toxiscan/internal/report"
	"github.com/modfall/toxiscan/internal/retry"
	"github.com/modfall/toxiscan/internal/writer"
	"github.com/modfall/toxiscan/pkg/models"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	configPath  string
	envFile     string
	outputPath  string
	maxBatches  int
	noPrefilter bool
	apiKeyFlag  string
	resumeFrom  string
	verbose     bool

	topSevere  int
	filterType string
	samples    int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "toxiscan",
		Short: "toxiscan - LLM-backed offensive comment analyzer",
		Long: `toxiscan classifies user comments for hate speech, toxicity,
profanity, and harassment using a remote LLM endpoint, with batch
checkpointing so interrupted runs resume where they left off.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze <input-file>",
		Short: "Analyze a comment file",
		Long: `Analyze every comment in a CSV file:
1. Prefilter comments with no profanity signal (optional)
2. Classify the rest in batches via the configured endpoint
3. Checkpoint after every batch
4. Write the combined results to the output file`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalysis,
	}

	analyzeCmd.Flags().StringVar(&configPath, "config", "config.toml", "Path to configuration file")
	analyzeCmd.Flags().StringVar(&envFile, "env-file", ".env", "Path to environment file")
	analyzeCmd.Flags().StringVar(&outputPath, "output", "", "Result file path (overrides config)")
	analyzeCmd.Flags().IntVar(&maxBatches, "max-batches", 0, "Batch ceiling for this run (overrides config)")
	analyzeCmd.Flags().BoolVar(&noPrefilter, "no-prefilter", false, "Send every comment to the classifier")
	analyzeCmd.Flags().StringVar(&apiKeyFlag, "api-key", "", "Classifier API key (overrides environment)")
	analyzeCmd.Flags().StringVar(&resumeFrom, "resume", "", "Session directory to resume (e.g. session_2025-10-27T12-34-56)")
	analyzeCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	reportCmd := &cobra.Command{
		Use:   "report <result-file>",
		Short: "Summarize a result file",
		Long:  "Print offense counts, the per-type breakdown, and the most severe comments from a result file",
		Args:  cobra.ExactArgs(1),
		RunE:  runReport,
	}

	reportCmd.Flags().IntVar(&topSevere, "top-severe", 10, "How many of the most severe comments to list")
	reportCmd.Flags().StringVar(&filterType, "filter-type", "", "Restrict the severe listing to one offense type")

	compareCmd := &cobra.Command{
		Use:   "compare <current-file> <original-file>",
		Short: "Compare two result files over the same input",
		Long:  "Join two result files on comment id and report agreement metrics between their offensive/non-offensive calls",
		Args:  cobra.ExactArgs(2),
		RunE:  runCompare,
	}

	compareCmd.Flags().IntVar(&samples, "samples", 5, "Disagreement rows to list per class")

	// Checkpoint management commands
	checkpointCmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Manage checkpoints",
		Long:  "Manage analysis checkpoints for resuming interrupted sessions",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all available checkpoint sessions",
		Long:  "List all session directories in the output folder that contain checkpoints",
		RunE:  listCheckpoints,
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect <session-dir>",
		Short: "Inspect a checkpoint",
		Long:  "Display the records captured in a session's checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectCheckpoint,
	}

	checkpointCmd.AddCommand(listCmd)
	checkpointCmd.AddCommand(inspectCmd)

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(checkpointCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runAnalysis(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	// Load environment variables from file if it exists
	if envFile != "" {
		if err := loadEnvFile(envFile); err != nil {
			if !os.IsNotExist(err) {
				fmt.Fprintf(os.Stderr, "Warning: failed to load env file: %v\n", err)
			}
		} else if verbose {
			fmt.Fprintf(os.Stderr, "Loaded env file: %s\n", envFile)
		}
	}

	cfg, secrets, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Flag overrides
	if outputPath != "" {
		cfg.Analysis.OutputPath = outputPath
	}
	if maxBatches > 0 {
		cfg.Analysis.MaxBatches = maxBatches
	}
	if noPrefilter {
		cfg.Prefilter.Enabled = false
	}
	if resumeFrom != "" {
		cfg.Analysis.ResumeFromSession = resumeFrom
	}
	if apiKeyFlag != "" {
		secrets.APIKey = apiKeyFlag
	}
	if secrets.APIKey == "" {
		return fmt.Errorf("no API key found: set API_KEY (or GEMINI_API_KEY, GOOGLE_API_KEY, OPENAI_API_KEY) or pass --api-key")
	}

	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	resumeMode := cfg.Analysis.ResumeFromSession != ""

	sessionMgr, err := writer.NewSessionManager(slog.Default(), cfg.Analysis.ResumeFromSession)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	logger, logFile, err := writer.SetupLogger(sessionMgr, logLevel)
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	defer func() {
		if logFile != nil {
			_ = logFile.Sync()
			_ = logFile.Close()
		}
	}()

	logger.Info("toxiscan starting",
		"version", Version,
		"config", configPath,
		"input", inputPath,
		"session_dir", sessionMgr.SessionDir(),
		"resume_mode", resumeMode)

	// Backup config if not resuming
	if !resumeMode {
		if err := sessionMgr.BackupConfig(configPath); err != nil {
			return fmt.Errorf("failed to backup config: %w", err)
		}
	}

	if cfg.Metrics.ListenAddr != "" {
		srv := metrics.Serve(cfg.Metrics.ListenAddr, logger)
		defer srv.Close()
	}
	mc := metrics.NewCollector(logger)

	comments, err := dataset.LoadComments(inputPath)
	if err != nil {
		return err
	}
	if len(comments) == 0 {
		logger.Warn("Input file contains no comments", "path", inputPath)
		return writer.WriteResults(cfg.Analysis.OutputPath, nil, logger)
	}

	client := api.NewClient(cfg.Classifier, secrets.APIKey, mc, logger)

	var decider retry.Decider
	switch cfg.Analysis.OnFailure {
	case config.OnFailureSkip:
		decider = retry.StaticDecider(retry.DecisionSkip)
	case config.OnFailureAbort:
		decider = retry.StaticDecider(retry.DecisionAbort)
	default:
		decider = retry.PromptDecider(os.Stdin, os.Stderr)
	}

	ctrl := retry.NewController(
		cfg.Classifier.MaxAttempts,
		time.Duration(cfg.Classifier.BaseRetryDelaySeconds)*time.Second,
		decider, mc, logger)

	pre := prefilter.New(cfg.Prefilter.Enabled, cfg.Prefilter.ExtraWords)
	store := checkpoint.NewStore(sessionMgr.CheckpointPath(), logger)

	orch := orchestrator.New(cfg, client, ctrl, pre, store, mc, logger, true)

	// Run with signal-aware context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, runErr := orch.Run(ctx, comments)

	// Whatever completed before a failure is still worth delivering.
	if result.Len() > 0 {
		if err := writer.WriteResults(cfg.Analysis.OutputPath, result.Records, logger); err != nil {
			if runErr != nil {
				logger.Error("Failed to write partial results", "error", err)
				return runErr
			}
			return err
		}
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			sessionDir := filepath.Base(sessionMgr.SessionDir())
			logger.Warn("Analysis interrupted - resume from checkpoint",
				"session_dir", sessionDir,
				"resume_command", fmt.Sprintf("toxiscan analyze %s --resume %s", inputPath, sessionDir))
			return fmt.Errorf("analysis interrupted (resume with --resume %s)", sessionDir)
		}
		var fatal *retry.FatalBatchError
		if errors.As(runErr, &fatal) {
			sessionDir := filepath.Base(sessionMgr.SessionDir())
			logger.Error("Analysis aborted by operator",
				"batch", fatal.Batch,
				"session_dir", sessionDir,
				"resume_command", fmt.Sprintf("toxiscan analyze %s --resume %s", inputPath, sessionDir))
		}
		return fmt.Errorf("analysis failed: %w", runErr)
	}

	stats := orch.Stats()
	logger.Info("Analysis complete",
		"total_comments", stats.TotalComments,
		"analyzed", stats.Analyzed,
		"prefiltered", stats.Prefiltered,
		"skipped", stats.Skipped,
		"unprocessed", stats.Unprocessed,
		"duration", stats.TotalDuration,
		"output", cfg.Analysis.OutputPath,
		"session_dir", sessionMgr.SessionDir())

	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	recs, err := dataset.ReadRecordsFile(args[0])
	if err != nil {
		return err
	}

	opts := report.Options{TopSevere: topSevere}
	if filterType != "" {
		t := models.OffenseType(filterType)
		if !t.Valid() || t == models.OffenseNone {
			return fmt.Errorf("invalid offense type %q", filterType)
		}
		opts.FilterType = t
	}

	return report.Generate(os.Stdout, recs, opts)
}

func runCompare(cmd *cobra.Command, args []string) error {
	current, err := dataset.ReadRecordsFile(args[0])
	if err != nil {
		return err
	}
	original, err := dataset.ReadRecordsFile(args[1])
	if err != nil {
		return err
	}

	return report.Compare(os.Stdout, current, original, samples)
}

// loadEnvFile loads environment variables from a file
func loadEnvFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		// Skip comments and empty lines
		if line == "" || line[0] == '#' {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = trimQuotes(strings.TrimSpace(value))
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}

	return nil
}

func trimQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// listCheckpoints lists all session directories and their checkpoints
func listCheckpoints(cmd *cobra.Command, args []string) error {
	entries, err := os.ReadDir(writer.OutputDir)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("No output directory found. Run an analysis first.")
			return nil
		}
		return fmt.Errorf("failed to read output directory: %w", err)
	}

	type session struct {
		name       string
		hasCheckpt bool
		records    int
	}
	var sessions []session

	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "session_") {
			continue
		}

		s := session{name: entry.Name()}
		checkpointPath := filepath.Join(writer.OutputDir, entry.Name(), "checkpoint.csv")
		if recs, err := dataset.ReadRecordsFile(checkpointPath); err == nil {
			s.hasCheckpt = true
			s.records = len(recs)
		}
		sessions = append(sessions, s)
	}

	if len(sessions) == 0 {
		fmt.Println("No session directories found.")
		return nil
	}

	fmt.Println("Available sessions:")
	fmt.Println()
	fmt.Printf("%-35s %-12s %s\n", "SESSION", "CHECKPOINT", "RECORDS")
	fmt.Println(strings.Repeat("-", 60))

	for _, s := range sessions {
		status := "No"
		records := "-"
		if s.hasCheckpt {
			status = "Yes"
			records = fmt.Sprintf("%d", s.records)
		}
		fmt.Printf("%-35s %-12s %s\n", s.name, status, records)
	}

	return nil
}

// inspectCheckpoint summarizes the records captured in a checkpoint
func inspectCheckpoint(cmd *cobra.Command, args []string) error {
	sessionDir := args[0]

	if err := writer.ValidateSessionPath(sessionDir); err != nil {
		return fmt.Errorf("invalid session directory: %w", err)
	}

	checkpointPath := filepath.Join(writer.OutputDir, sessionDir, "checkpoint.csv")
	recs, err := dataset.ReadRecordsFile(checkpointPath)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}

	fmt.Printf("Checkpoint for: %s\n", sessionDir)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Records:  %d\n", len(recs))
	fmt.Println()
	if err := report.Generate(os.Stdout, recs, report.Options{}); err != nil {
		return err
	}
	fmt.Println()
	fmt.Println("To resume this session, run:")
	fmt.Printf("  toxiscan analyze <input-file> --resume %s\n", sessionDir)

	return nil
}
