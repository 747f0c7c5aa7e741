// Package orchestrator drives the batch analysis run: it partitions
// the input into batches, routes each batch through the prefilter and
// the classifier, merges verdicts back in input order, and checkpoints
// after every batch.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"github.com/modfall/toxiscan/internal/checkpoint"
	"github.com/modfall/toxiscan/internal/config"
	"github.com/modfall/toxiscan/internal/metrics"
	"github.com/modfall/toxiscan/internal/prefilter"
	"github.com/modfall/toxiscan/internal/retry"
	"github.com/modfall/toxiscan/pkg/models"
)

// Classifier produces one verdict per comment, in order. It makes a
// single attempt; retry policy lives in the controller wrapping it.
type Classifier interface {
	Classify(ctx context.Context, comments []models.Comment) ([]models.Verdict, error)
}

// Orchestrator coordinates a full analysis run.
type Orchestrator struct {
	cfg        *config.Config
	classifier Classifier
	ctrl       *retry.Controller
	pre        *prefilter.Filter
	store      *checkpoint.Store
	metrics    *metrics.Collector
	logger     *slog.Logger
	stats      models.RunStats
	progress   bool
}

// New creates an orchestrator.
func New(cfg *config.Config, classifier Classifier, ctrl *retry.Controller, pre *prefilter.Filter, store *checkpoint.Store, mc *metrics.Collector, logger *slog.Logger, progress bool) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		classifier: classifier,
		ctrl:       ctrl,
		pre:        pre,
		store:      store,
		metrics:    mc,
		logger:     logger,
		progress:   progress,
	}
}

// Stats returns the stats of the last run.
func (o *Orchestrator) Stats() models.RunStats {
	return o.stats
}

// Run analyzes comments batch by batch. Batches are processed strictly
// in input order and the checkpoint is rewritten after each one, so a
// crash or abort loses at most the in-flight batch. The returned result
// is valid even when err is non-nil; it holds everything completed
// before the failure.
func (o *Orchestrator) Run(ctx context.Context, comments []models.Comment) (*models.AnalysisResult, error) {
	o.stats = models.RunStats{
		RunID:         uuid.New().String(),
		StartTime:     time.Now(),
		TotalComments: len(comments),
	}

	result := o.store.Load()
	if result.Len() > 0 {
		if !result.PrefixOf(comments) {
			return &models.AnalysisResult{}, fmt.Errorf("checkpoint does not match input: %d checkpointed records are not a prefix of the %d input comments", result.Len(), len(comments))
		}
		o.logger.Info("Resuming from checkpoint",
			"run_id", o.stats.RunID,
			"checkpointed", result.Len(),
			"remaining", len(comments)-result.Len())
	}

	batchSize := o.cfg.Analysis.BatchSize
	totalBatches := (len(comments) + batchSize - 1) / batchSize
	planned := totalBatches
	if o.cfg.Analysis.MaxBatches > 0 && planned > o.cfg.Analysis.MaxBatches {
		planned = o.cfg.Analysis.MaxBatches
	}
	o.stats.BatchesPlanned = planned
	processable := planned * batchSize
	if processable > len(comments) {
		processable = len(comments)
	}
	o.stats.Unprocessed = len(comments) - processable

	o.logger.Info("Starting analysis run",
		"run_id", o.stats.RunID,
		"comments", len(comments),
		"batch_size", batchSize,
		"batches", planned,
		"prefilter", o.pre.Enabled())

	startIdx := result.Len()
	var bar *progressbar.ProgressBar
	if o.progress {
		bar = progressbar.Default(int64(planned), "Analyzing")
		if done := startIdx / batchSize; done > 0 {
			bar.Add(done)
		}
	}

	for b := 0; b < planned; b++ {
		start := b * batchSize
		end := start + batchSize
		if end > len(comments) {
			end = len(comments)
		}
		if end <= startIdx {
			continue // fully checkpointed
		}
		if start < startIdx {
			start = startIdx
		}

		batch := comments[start:end]
		if err := o.processBatch(ctx, b+1, batch, result); err != nil {
			o.finish(models.PhaseAborted)
			// Everything not in the result is unprocessed once the run
			// stops early.
			o.stats.Unprocessed = len(comments) - result.Len()
			o.logger.Warn("Analysis run stopped",
				"run_id", o.stats.RunID,
				"analyzed", o.stats.Analyzed,
				"prefiltered", o.stats.Prefiltered,
				"skipped", o.stats.Skipped,
				"unprocessed", o.stats.Unprocessed,
				"duration", o.stats.TotalDuration)
			return result, err
		}

		o.stats.BatchesCompleted++
		if bar != nil {
			bar.Add(1)
		}
	}

	o.finish(models.PhaseDone)
	if o.stats.Unprocessed > 0 {
		o.logger.Warn("Batch ceiling reached before input was exhausted",
			"unprocessed", o.stats.Unprocessed,
			"max_batches", o.cfg.Analysis.MaxBatches)
	}
	o.logger.Info("Analysis run complete",
		"run_id", o.stats.RunID,
		"analyzed", o.stats.Analyzed,
		"prefiltered", o.stats.Prefiltered,
		"skipped", o.stats.Skipped,
		"unprocessed", o.stats.Unprocessed,
		"duration", o.stats.TotalDuration)
	return result, nil
}

// processBatch runs one batch through prefilter, classifier, merge, and
// checkpoint.
func (o *Orchestrator) processBatch(ctx context.Context, batchNum int, batch []models.Comment, result *models.AnalysisResult) error {
	o.logger.Debug("Processing batch", "batch", batchNum, "phase", models.PhasePrefiltering, "comments", len(batch))

	sendMask := make([]bool, len(batch))
	pending := make([]models.Comment, 0, len(batch))
	for i, c := range batch {
		sendMask[i] = o.pre.ShouldQuery(c.Text)
		if sendMask[i] {
			pending = append(pending, c)
		}
	}
	prefiltered := len(batch) - len(pending)

	verdicts := make([]models.Verdict, len(batch))
	skipped := false

	if len(pending) == 0 {
		// Whole batch synthesized, the classifier is never invoked.
		for i := range batch {
			verdicts[i] = models.PrefilteredVerdict()
		}
		o.metrics.RecordBatch(metrics.BatchSynthesized)
	} else {
		o.logger.Debug("Classifying batch", "batch", batchNum, "phase", models.PhaseClassifying, "pending", len(pending), "prefiltered", prefiltered)

		got, err := o.ctrl.Call(ctx, batchNum, pending, o.classifier.Classify)
		switch {
		case err == nil:
			o.metrics.RecordBatch(metrics.BatchAnalyzed)
		case errors.Is(err, retry.ErrBatchSkipped):
			// Only the classifier-bound comments lose their verdicts;
			// prefiltered ones keep their synthesized verdict below.
			skipped = true
			o.metrics.RecordBatch(metrics.BatchSkipped)
			o.logger.Warn("Batch skipped, recording sentinel verdicts", "batch", batchNum, "comments", len(pending))
		default:
			return err
		}

		pi := 0
		for i := range batch {
			if !sendMask[i] {
				verdicts[i] = models.PrefilteredVerdict()
				continue
			}
			if skipped {
				verdicts[i] = models.SentinelVerdict("batch skipped after retries exhausted")
			} else {
				verdicts[i] = got[pi]
			}
			pi++
		}
	}

	o.logger.Debug("Merging batch", "batch", batchNum, "phase", models.PhaseMerging)
	recs := make([]models.Record, len(batch))
	for i := range batch {
		recs[i] = models.Record{Comment: batch[i], Verdict: verdicts[i]}
		if verdicts[i].IsOffensive {
			o.metrics.RecordVerdict(verdicts[i].Type)
		}
	}
	if err := result.Append(recs...); err != nil {
		return fmt.Errorf("batch %d: %w", batchNum, err)
	}

	if skipped {
		o.stats.Skipped += len(pending)
	} else {
		o.stats.Analyzed += len(pending)
	}
	o.stats.Prefiltered += prefiltered
	o.metrics.RecordPrefilterSkips(prefiltered)

	o.logger.Debug("Checkpointing", "batch", batchNum, "phase", models.PhaseCheckpointing, "records", result.Len())
	if err := o.store.Save(result); err != nil {
		return fmt.Errorf("batch %d: %w", batchNum, err)
	}

	return nil
}

func (o *Orchestrator) finish(phase models.RunPhase) {
	o.stats.EndTime = time.Now()
	o.stats.TotalDuration = o.stats.EndTime.Sub(o.stats.StartTime)
	o.logger.Debug("Run finished", "phase", phase)
}
