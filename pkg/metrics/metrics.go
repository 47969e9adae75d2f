// Package metrics provides the centralized Prometheus registry reference
// for the scamfeed scraper. The metrics themselves are defined in their
// owning packages (fetcher, cache) to avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by scamfeed.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Fetch Metrics (pkg/fetcher):
//   - scamfeed_fetch_requests_total{status} (Counter): Requests by outcome status
//   - scamfeed_fetch_request_duration_seconds (Histogram): Single request duration
//   - scamfeed_fetch_retries_total{error_class} (Counter): Retry attempts by error class
//   - scamfeed_fetch_retry_exhausted_total (Counter): Endpoints that used all attempts
//   - scamfeed_fetch_batch_timeouts_total (Counter): Endpoints finalized by the batch deadline
//   - scamfeed_fetch_batch_duration_seconds (Histogram): Whole-batch duration
//
// Cache Metrics (pkg/cache):
//   - scamfeed_cache_hits_total (Counter): Response cache hits
//   - scamfeed_cache_misses_total (Counter): Response cache misses
//   - scamfeed_cache_size_bytes (Gauge): Bytes written into the response cache
//   - scamfeed_cache_errors_total (Counter): Cache operation errors
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(scamfeed_cache_hits_total[5m])) /
//   (sum(rate(scamfeed_cache_hits_total[5m])) + sum(rate(scamfeed_cache_misses_total[5m])))
//
//   # Share of endpoints giving up after max attempts
//   rate(scamfeed_fetch_retry_exhausted_total[15m]) /
//   rate(scamfeed_fetch_requests_total[15m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(scamfeed_fetch_request_duration_seconds_bucket[5m]))
//
//   # Batches coming close to the deadline
//   histogram_quantile(0.99, rate(scamfeed_fetch_batch_duration_seconds_bucket[1h]))
