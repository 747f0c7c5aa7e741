package api

import (
	"context"
	"testing"
)

func TestRateLimiterPoolReusesLimiter(t *testing.T) {
	pool := NewRateLimiterPool()

	first := pool.getOrCreate("https://example.com/v1:model-a", 60)
	second := pool.getOrCreate("https://example.com/v1:model-a", 60)
	if first != second {
		t.Error("same endpoint should resolve to the same limiter")
	}

	other := pool.getOrCreate("https://example.com/v1:model-b", 60)
	if other == first {
		t.Error("different endpoints must not share a limiter")
	}
}

func TestRateLimiterPoolFirstRateSticks(t *testing.T) {
	pool := NewRateLimiterPool()

	first := pool.getOrCreate("endpoint", 60)
	again := pool.getOrCreate("endpoint", 600)
	if first != again {
		t.Error("re-requesting an endpoint with a different rate must keep the existing limiter")
	}
	if got := pool.rates["endpoint"]; got != 60 {
		t.Errorf("recorded rate = %d, want the original 60", got)
	}
}

func TestRateLimiterPoolWaitHonorsContext(t *testing.T) {
	pool := NewRateLimiterPool()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Burst 1 lets the first request through; a cancelled context must
	// fail the second instead of blocking.
	if err := pool.Wait(context.Background(), "endpoint", 1); err != nil {
		t.Fatalf("first Wait() error: %v", err)
	}
	if err := pool.Wait(ctx, "endpoint", 1); err == nil {
		t.Error("Wait() with cancelled context should fail")
	}
}
