// Package retry wraps classifier calls with bounded automatic retries,
// exponential backoff, and an escalation path for when the automatic
// budget runs out.
package retry

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/modfall/toxiscan/internal/api"
	"github.com/modfall/toxiscan/internal/metrics"
	"github.com/modfall/toxiscan/pkg/models"
)

// Decision is the operator's choice when automatic retries are
// exhausted or a non-transient error occurs.
type Decision int

const (
	DecisionRetry Decision = iota
	DecisionSkip
	DecisionAbort
)

// Decider resolves an escalated batch failure. Implementations may
// block (interactive prompt) or apply a fixed policy.
type Decider interface {
	Decide(batchNum int, err error) Decision
}

// DeciderFunc adapts a function to the Decider interface.
type DeciderFunc func(batchNum int, err error) Decision

// Decide calls f.
func (f DeciderFunc) Decide(batchNum int, err error) Decision {
	return f(batchNum, err)
}

// StaticDecider always returns d, for non-interactive runs.
func StaticDecider(d Decision) Decider {
	return DeciderFunc(func(int, error) Decision { return d })
}

// PromptDecider asks the operator on each escalation. EOF on the input
// stream is treated as abort so a closed stdin cannot loop forever.
func PromptDecider(in io.Reader, out io.Writer) Decider {
	return &promptDecider{scanner: bufio.NewScanner(in), out: out}
}

type promptDecider struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func (d *promptDecider) Decide(batchNum int, err error) Decision {
	fmt.Fprintf(d.out, "\nBatch %d failed: %v\n", batchNum, err)
	for {
		fmt.Fprint(d.out, "[r]etry, [s]kip this batch, or [a]bort the run? ")
		if !d.scanner.Scan() {
			return DecisionAbort
		}
		switch strings.ToLower(strings.TrimSpace(d.scanner.Text())) {
		case "r", "retry":
			return DecisionRetry
		case "s", "skip":
			return DecisionSkip
		case "a", "abort":
			return DecisionAbort
		}
	}
}

// ErrBatchSkipped signals that the operator declined the batch; its
// comments should receive sentinel unanalyzed verdicts and the run
// should continue.
var ErrBatchSkipped = errors.New("batch skipped by operator")

// FatalBatchError is an escalated abort. The orchestrator stops the
// run and preserves everything checkpointed so far.
type FatalBatchError struct {
	Batch int
	Err   error
}

func (e *FatalBatchError) Error() string {
	return fmt.Sprintf("batch %d aborted: %v", e.Batch, e.Err)
}

func (e *FatalBatchError) Unwrap() error {
	return e.Err
}

// ClassifyFunc is the wrapped classifier call.
type ClassifyFunc func(ctx context.Context, comments []models.Comment) ([]models.Verdict, error)

// Controller drives a classifier call through the retry policy:
// transient failures back off base*2^(attempt-1) and retry up to
// maxAttempts total calls; non-transient failures and exhausted
// budgets escalate to the decider.
type Controller struct {
	maxAttempts int
	baseDelay   time.Duration
	decider     Decider
	metrics     *metrics.Collector
	logger      *slog.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewController creates a retry controller.
func NewController(maxAttempts int, baseDelay time.Duration, decider Decider, mc *metrics.Collector, logger *slog.Logger) *Controller {
	return &Controller{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		decider:     decider,
		metrics:     mc,
		logger:      logger,
		sleep:       sleepCtx,
	}
}

// Call runs fn for the batch. It returns the verdicts, ErrBatchSkipped
// when the operator declined the batch, a FatalBatchError when the
// operator aborted, or the context's error on cancellation.
func (c *Controller) Call(ctx context.Context, batchNum int, comments []models.Comment, fn ClassifyFunc) ([]models.Verdict, error) {
	for {
		var lastErr error

		for attempt := 1; attempt <= c.maxAttempts; attempt++ {
			verdicts, err := fn(ctx, comments)
			if err == nil {
				return verdicts, nil
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}

			lastErr = err
			c.metrics.RecordRetryAttempt(string(api.Kind(err)))

			if !api.IsTransient(err) {
				c.logger.Warn("Non-transient classifier error, escalating",
					"batch", batchNum,
					"attempt", attempt,
					"error", err)
				break
			}
			if attempt == c.maxAttempts {
				c.logger.Warn("Automatic retries exhausted, escalating",
					"batch", batchNum,
					"attempts", c.maxAttempts,
					"error", err)
				break
			}

			delay := c.baseDelay << (attempt - 1)
			c.logger.Warn("Retrying classifier call",
				"batch", batchNum,
				"attempt", attempt,
				"max_attempts", c.maxAttempts,
				"backoff", delay,
				"error", err)
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		switch c.decider.Decide(batchNum, lastErr) {
		case DecisionRetry:
			c.logger.Info("Operator chose to retry batch", "batch", batchNum)
		case DecisionSkip:
			c.logger.Info("Operator chose to skip batch", "batch", batchNum)
			return nil, fmt.Errorf("%w: %v", ErrBatchSkipped, lastErr)
		case DecisionAbort:
			c.logger.Info("Operator chose to abort run", "batch", batchNum)
			return nil, &FatalBatchError{Batch: batchNum, Err: lastErr}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
