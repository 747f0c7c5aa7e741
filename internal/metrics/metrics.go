package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/modfall/toxiscan/pkg/models"
)

var (
	classifierRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "toxiscan_classifier_request_duration_seconds",
			Help:    "Classifier request duration in seconds by model",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 0.1s to ~100s
		},
		[]string{"model", "status"},
	)

	rateLimiterWaitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "toxiscan_rate_limiter_wait_duration_seconds",
			Help:    "Rate limiter wait duration in seconds by model",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~32s
		},
		[]string{"model"},
	)

	batchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toxiscan_batches_total",
			Help: "Batches processed by outcome",
		},
		[]string{"outcome"}, // "analyzed", "skipped", "synthesized"
	)

	verdictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toxiscan_verdicts_total",
			Help: "Verdicts produced by offense type",
		},
		[]string{"offense_type"},
	)

	prefilterSkipsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "toxiscan_prefilter_skips_total",
			Help: "Comments not sent to the classifier by the prefilter",
		},
	)

	retryAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toxiscan_retry_attempts_total",
			Help: "Classifier retry attempts by error kind",
		},
		[]string{"kind"},
	)
)

// Batch outcomes.
const (
	BatchAnalyzed    = "analyzed"
	BatchSkipped     = "skipped"
	BatchSynthesized = "synthesized"
)

// Collector provides convenience methods for recording metrics. A nil
// Collector is valid and records nothing.
type Collector struct {
	logger *slog.Logger
}

// NewCollector creates a new metrics collector.
func NewCollector(logger *slog.Logger) *Collector {
	return &Collector{logger: logger}
}

// RecordClassifierRequest records a classifier request duration.
func (c *Collector) RecordClassifierRequest(model string, duration time.Duration, success bool) {
	if c == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	classifierRequestDuration.WithLabelValues(model, status).Observe(duration.Seconds())
}

// RecordRateLimiterWait records rate limiter wait time.
func (c *Collector) RecordRateLimiterWait(model string, duration time.Duration) {
	if c == nil {
		return
	}
	rateLimiterWaitDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordBatch increments the batch counter for an outcome.
func (c *Collector) RecordBatch(outcome string) {
	if c == nil {
		return
	}
	batchesTotal.WithLabelValues(outcome).Inc()
}

// RecordVerdict increments the verdict counter for an offense type.
func (c *Collector) RecordVerdict(t models.OffenseType) {
	if c == nil {
		return
	}
	verdictsTotal.WithLabelValues(string(t)).Inc()
}

// RecordPrefilterSkips adds to the prefilter skip counter.
func (c *Collector) RecordPrefilterSkips(n int) {
	if c == nil {
		return
	}
	prefilterSkipsTotal.Add(float64(n))
}

// RecordRetryAttempt increments the retry counter for an error kind.
func (c *Collector) RecordRetryAttempt(kind string) {
	if c == nil {
		return
	}
	retryAttemptsTotal.WithLabelValues(kind).Inc()
}

// Serve exposes /metrics on addr in a background goroutine and returns
// the server so the caller can shut it down.
func Serve(addr string, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Info("Metrics endpoint listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics endpoint failed", "error", err)
		}
	}()
	return srv
}
