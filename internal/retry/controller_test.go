package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/modfall/toxiscan/internal/api"
	"github.com/modfall/toxiscan/pkg/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestController replaces the real sleep with one that records the
// requested delays and returns immediately.
func newTestController(maxAttempts int, baseDelay time.Duration, decider Decider, delays *[]time.Duration) *Controller {
	c := NewController(maxAttempts, baseDelay, decider, nil, discardLogger())
	c.sleep = func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return c
}

func transientErr() error {
	return &api.ClassifierError{Kind: api.KindTransport, Message: "connection reset"}
}

var testBatch = []models.Comment{{ID: 0, Text: "hello"}}

func TestCallSucceedsWithinBudget(t *testing.T) {
	var delays []time.Duration
	calls := 0
	fn := func(ctx context.Context, comments []models.Comment) ([]models.Verdict, error) {
		calls++
		if calls < 3 {
			return nil, transientErr()
		}
		return []models.Verdict{{Type: models.OffenseNone}}, nil
	}

	escalated := false
	decider := DeciderFunc(func(int, error) Decision {
		escalated = true
		return DecisionAbort
	})

	ctrl := newTestController(3, time.Second, decider, &delays)
	verdicts, err := ctrl.Call(context.Background(), 1, testBatch, fn)
	if err != nil {
		t.Fatalf("Call() error: %v", err)
	}
	if len(verdicts) != 1 {
		t.Fatalf("got %d verdicts, want 1", len(verdicts))
	}
	if calls != 3 {
		t.Errorf("classifier called %d times, want 3", calls)
	}
	if escalated {
		t.Error("decider consulted despite eventual success")
	}
}

func TestCallBackoffDoubles(t *testing.T) {
	var delays []time.Duration
	fn := func(ctx context.Context, comments []models.Comment) ([]models.Verdict, error) {
		return nil, transientErr()
	}

	ctrl := newTestController(3, 2*time.Second, StaticDecider(DecisionSkip), &delays)
	_, err := ctrl.Call(context.Background(), 1, testBatch, fn)
	if !errors.Is(err, ErrBatchSkipped) {
		t.Fatalf("Call() error = %v, want ErrBatchSkipped", err)
	}

	// Two sleeps between three attempts; the last failure escalates
	// without sleeping.
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("got %d sleeps (%v), want %d", len(delays), delays, len(want))
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("sleep %d = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestCallNonTransientEscalatesImmediately(t *testing.T) {
	var delays []time.Duration
	calls := 0
	fn := func(ctx context.Context, comments []models.Comment) ([]models.Verdict, error) {
		calls++
		return nil, &api.ClassifierError{Kind: api.KindUnauthorized, Message: "bad key", StatusCode: 401}
	}

	ctrl := newTestController(3, time.Second, StaticDecider(DecisionAbort), &delays)
	_, err := ctrl.Call(context.Background(), 4, testBatch, fn)

	var fatal *FatalBatchError
	if !errors.As(err, &fatal) {
		t.Fatalf("Call() error = %v, want FatalBatchError", err)
	}
	if fatal.Batch != 4 {
		t.Errorf("FatalBatchError.Batch = %d, want 4", fatal.Batch)
	}
	if calls != 1 {
		t.Errorf("classifier called %d times, want 1 (no retries on auth failure)", calls)
	}
	if len(delays) != 0 {
		t.Errorf("slept %v, want no sleeps", delays)
	}
}

func TestCallDeciderRetryRestartsBudget(t *testing.T) {
	var delays []time.Duration
	calls := 0
	fn := func(ctx context.Context, comments []models.Comment) ([]models.Verdict, error) {
		calls++
		if calls < 4 {
			return nil, transientErr()
		}
		return []models.Verdict{{Type: models.OffenseNone}}, nil
	}

	decisions := 0
	decider := DeciderFunc(func(int, error) Decision {
		decisions++
		return DecisionRetry
	})

	ctrl := newTestController(3, time.Second, decider, &delays)
	if _, err := ctrl.Call(context.Background(), 1, testBatch, fn); err != nil {
		t.Fatalf("Call() error: %v", err)
	}
	if decisions != 1 {
		t.Errorf("decider consulted %d times, want 1", decisions)
	}
	if calls != 4 {
		t.Errorf("classifier called %d times, want 4 (3 + 1 after retry)", calls)
	}
}

func TestCallSkipWrapsCause(t *testing.T) {
	var delays []time.Duration
	fn := func(ctx context.Context, comments []models.Comment) ([]models.Verdict, error) {
		return nil, &api.ClassifierError{Kind: api.KindRateLimited, Message: "quota exceeded", StatusCode: 429}
	}

	ctrl := newTestController(2, time.Second, StaticDecider(DecisionSkip), &delays)
	_, err := ctrl.Call(context.Background(), 1, testBatch, fn)
	if !errors.Is(err, ErrBatchSkipped) {
		t.Fatalf("Call() error = %v, want ErrBatchSkipped", err)
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("skip error lost the cause: %v", err)
	}
}

func TestCallContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fn := func(ctx context.Context, comments []models.Comment) ([]models.Verdict, error) {
		return nil, ctx.Err()
	}

	ctrl := NewController(3, time.Second, StaticDecider(DecisionRetry), nil, discardLogger())
	_, err := ctrl.Call(ctx, 1, testBatch, fn)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Call() error = %v, want context.Canceled", err)
	}
}

func TestPromptDecider(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Decision
	}{
		{"retry", "r\n", DecisionRetry},
		{"skip full word", "skip\n", DecisionSkip},
		{"abort", "a\n", DecisionAbort},
		{"garbage then skip", "what\ns\n", DecisionSkip},
		{"eof aborts", "", DecisionAbort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := PromptDecider(strings.NewReader(tt.input), io.Discard)
			if got := d.Decide(1, transientErr()); got != tt.want {
				t.Errorf("Decide() = %v, want %v", got, tt.want)
			}
		})
	}
}
