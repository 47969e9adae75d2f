// Package fetcher provides bounded-concurrency HTTP batch fetching with
// per-endpoint retry, exponential backoff, and best-effort results.
package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// Prometheus metrics for fetch operations.
var (
	fetchRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scamfeed_fetch_requests_total",
		Help: "Total HTTP requests by outcome status",
	}, []string{"status"})

	fetchRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scamfeed_fetch_request_duration_seconds",
		Help:    "Single request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	})

	fetchRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scamfeed_fetch_retries_total",
		Help: "Total retry attempts by error class",
	}, []string{"error_class"})

	fetchRetryExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scamfeed_fetch_retry_exhausted_total",
		Help: "Endpoints that exhausted all retry attempts",
	})

	fetchBatchTimeoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scamfeed_fetch_batch_timeouts_total",
		Help: "Endpoints finalized with the sentinel due to batch deadline expiry",
	})

	fetchBatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scamfeed_fetch_batch_duration_seconds",
		Help:    "Whole-batch duration in seconds",
		Buckets: []float64{0.5, 1, 5, 15, 60, 120, 300},
	})
)

// Sentinel is the payload substituted for an endpoint that permanently
// failed within a batch. It is valid empty JSON so downstream parsing
// of the result map does not itself fail.
var Sentinel = []byte("{}")

// IsSentinel reports whether a result payload marks a failed endpoint.
func IsSentinel(body []byte) bool {
	return string(body) == string(Sentinel)
}

// Config holds the fetcher configuration.
type Config struct {
	// MaxConcurrent caps the number of in-flight requests per batch.
	MaxConcurrent int

	// MaxRetries is the number of attempts per endpoint before the
	// sentinel is returned.
	MaxRetries int

	// BackoffFactor is the base delay; attempt k failing waits
	// BackoffFactor * 2^(k-1) before attempt k+1.
	BackoffFactor time.Duration

	// PacingDelay is applied after slot acquisition, before the first
	// network call for an endpoint.
	PacingDelay time.Duration

	// BatchTimeout bounds the entire batch, not individual requests.
	BatchTimeout time.Duration

	// Headers are sent with every request. Nil means DefaultHeaders.
	Headers map[string]string

	// HTTPClient overrides the per-batch client when set (for testing).
	HTTPClient *http.Client
}

// DefaultConfig returns the default fetcher configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent: 5,
		MaxRetries:    5,
		BackoffFactor: 1 * time.Second,
		PacingDelay:   500 * time.Millisecond,
		BatchTimeout:  300 * time.Second,
	}
}

// DefaultHeaders returns the header set used when Config.Headers is nil.
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type":  "application/json",
		"Connection":    "keep-alive",
		"Cache-Control": "no-cache",
		"Accept":        "*/*",
	}
}

// Fetcher issues batches of GET requests under a shared concurrency cap.
type Fetcher struct {
	config  Config
	headers map[string]string
	logger  zerolog.Logger
}

// New creates a new Fetcher. Zero-valued config fields take their
// defaults; negative values are rejected.
func New(cfg Config) (*Fetcher, error) {
	def := DefaultConfig()

	if cfg.MaxConcurrent < 0 {
		return nil, fmt.Errorf("max_concurrent must be positive (got %d)", cfg.MaxConcurrent)
	}
	if cfg.MaxConcurrent == 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}

	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be positive (got %d)", cfg.MaxRetries)
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = def.MaxRetries
	}

	if cfg.BackoffFactor < 0 || cfg.PacingDelay < 0 || cfg.BatchTimeout < 0 {
		return nil, fmt.Errorf("durations must not be negative")
	}
	if cfg.BackoffFactor == 0 {
		cfg.BackoffFactor = def.BackoffFactor
	}
	if cfg.PacingDelay == 0 {
		cfg.PacingDelay = def.PacingDelay
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = def.BatchTimeout
	}

	headers := cfg.Headers
	if headers == nil {
		headers = DefaultHeaders()
	}

	return &Fetcher{
		config:  cfg,
		headers: headers,
		logger:  log.With().Str("component", "fetcher").Logger(),
	}, nil
}

// result pairs an endpoint with its final payload.
type result struct {
	endpoint string
	body     []byte
}

// Fetch requests every distinct endpoint concurrently, bounded by the
// configured cap, and returns a mapping that contains exactly the
// deduplicated input set. Failed endpoints map to Sentinel; Fetch never
// fails as a whole.
func (f *Fetcher) Fetch(ctx context.Context, endpoints []string) map[string][]byte {
	start := time.Now()
	defer func() {
		fetchBatchDuration.Observe(time.Since(start).Seconds())
	}()

	unique := dedupe(endpoints)
	results := make(map[string][]byte, len(unique))
	if len(unique) == 0 {
		return results
	}

	ctx, cancel := context.WithTimeout(ctx, f.config.BatchTimeout)
	defer cancel()

	// One connection context per batch, dropped when the batch ends.
	client := f.config.HTTPClient
	if client == nil {
		transport := &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConnsPerHost: f.config.MaxConcurrent,
			IdleConnTimeout:     90 * time.Second,
		}
		defer transport.CloseIdleConnections()
		client = &http.Client{Transport: transport}
	}

	f.logger.Info().
		Int("batch_size", len(unique)).
		Int("max_concurrent", f.config.MaxConcurrent).
		Msg("Starting batch fetch")

	sem := semaphore.NewWeighted(int64(f.config.MaxConcurrent))
	resultCh := make(chan result, len(unique))

	for _, endpoint := range unique {
		go func(endpoint string) {
			resultCh <- result{endpoint, f.fetchOne(ctx, client, sem, endpoint)}
		}(endpoint)
	}

	// Assemble in completion order; content is order-independent.
	for range unique {
		r := <-resultCh
		results[r.endpoint] = r.body
	}

	failed := 0
	for _, body := range results {
		if IsSentinel(body) {
			failed++
		}
	}

	f.logger.Info().
		Int("batch_size", len(unique)).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Batch fetch complete")

	return results
}

// fetchOne holds a concurrency slot for the full retry loop of a single
// endpoint. The slot is released whatever the outcome, so it never leaks.
func (f *Fetcher) fetchOne(ctx context.Context, client *http.Client, sem *semaphore.Weighted, endpoint string) []byte {
	if err := sem.Acquire(ctx, 1); err != nil {
		fetchBatchTimeoutsTotal.Inc()
		f.logger.Error().
			Str("endpoint", endpoint).
			Msg("Batch deadline exceeded before dispatch")
		return Sentinel
	}
	defer sem.Release(1)

	// Pacing so a freed slot does not burst the target server.
	if !sleepContext(ctx, f.config.PacingDelay) {
		fetchBatchTimeoutsTotal.Inc()
		f.logger.Error().
			Str("endpoint", endpoint).
			Msg("Batch deadline exceeded before dispatch")
		return Sentinel
	}

	return f.fetchWithRetry(ctx, client, endpoint)
}

// dedupe collapses duplicates while keeping first-seen order.
func dedupe(endpoints []string) []string {
	seen := make(map[string]struct{}, len(endpoints))
	unique := make([]string, 0, len(endpoints))
	for _, endpoint := range endpoints {
		if _, ok := seen[endpoint]; ok {
			continue
		}
		seen[endpoint] = struct{}{}
		unique = append(unique, endpoint)
	}
	return unique
}

// sleepContext waits for d, returning false if ctx expires first.
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
