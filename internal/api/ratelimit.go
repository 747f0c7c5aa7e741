package api

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiterPool manages per-endpoint rate limiters. Each Client
// owns its own pool; the endpoint key keeps one budget per endpoint
// within that client no matter how often the pool is asked for it.
type RateLimiterPool struct {
	limiters map[string]*rate.Limiter
	rates    map[string]int
	mu       sync.Mutex
}

// NewRateLimiterPool creates a new rate limiter pool.
func NewRateLimiterPool() *RateLimiterPool {
	return &RateLimiterPool{
		limiters: make(map[string]*rate.Limiter),
		rates:    make(map[string]int),
	}
}

// getOrCreate returns an existing rate limiter or creates a new one.
// An existing limiter with a different rate wins: the first
// configuration sticks for the life of the pool.
func (p *RateLimiterPool) getOrCreate(endpointID string, requestsPerMinute int) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if limiter, exists := p.limiters[endpointID]; exists {
		if existing := p.rates[endpointID]; existing != requestsPerMinute {
			slog.Warn("Rate limiter already exists with different rate, keeping existing",
				"endpoint_id", endpointID,
				"existing_rpm", existing,
				"requested_rpm", requestsPerMinute)
		}
		return limiter
	}

	rps := float64(requestsPerMinute) / 60.0
	burst := max(1, requestsPerMinute/5)
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	p.limiters[endpointID] = limiter
	p.rates[endpointID] = requestsPerMinute

	slog.Debug("Created rate limiter",
		"endpoint_id", endpointID,
		"rpm", requestsPerMinute,
		"burst", burst)

	return limiter
}

// Wait blocks until the rate limiter allows the next request.
func (p *RateLimiterPool) Wait(ctx context.Context, endpointID string, requestsPerMinute int) error {
	return p.getOrCreate(endpointID, requestsPerMinute).Wait(ctx)
}
