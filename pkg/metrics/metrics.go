// Package metrics provides the centralized Prometheus metrics registry for
// the extraction pipeline and query service. All metrics are defined in their
// respective packages (client, cache, ratelimit, extract, filter, api) to
// maintain modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used across the module.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Quota Metrics (pkg/ratelimit):
//   - ghusers_quota_remaining (Gauge): Calls remaining in the current rate limit window
//   - ghusers_quota_suspensions_total (Counter): Times extraction suspended waiting for reset
//   - ghusers_quota_wait_seconds (Histogram): Duration of quota suspensions
//
// Cache Metrics (pkg/cache):
//   - ghusers_cache_hits_total{layer="redis"} (Counter): Cache hits by layer
//   - ghusers_cache_misses_total (Counter): Cache misses
//   - ghusers_304_responses_total (Counter): 304 Not Modified responses served from cache
//   - ghusers_conditional_requests_total (Counter): Conditional requests sent with If-None-Match
//   - ghusers_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - ghusers_requests_total{endpoint, status} (Counter): Total requests by endpoint and HTTP status
//   - ghusers_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - ghusers_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Retry Metrics (pkg/client):
//   - ghusers_retries_total{error_class} (Counter): Retry attempts by error class
//   - ghusers_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - ghusers_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Extraction Metrics (pkg/extract):
//   - ghusers_pages_fetched_total (Counter): Listing pages fetched across extraction runs
//   - ghusers_users_collected_total (Counter): User summaries collected across extraction runs
//   - ghusers_enriched_total (Counter): Records successfully enriched with profile details
//   - ghusers_partial_records_total (Counter): Records kept in summary shape after a failed detail fetch
//
// Filter Metrics (pkg/filter):
//   - ghusers_filter_passed_total (Counter): Records passing all filter criteria
//   - ghusers_filter_dropped_total{reason} (Counter): Records dropped by criterion
//
// Query Service Metrics (pkg/api):
//   - ghusers_auth_failures_total (Counter): Rejected requests on protected routes
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(ghusers_cache_hits_total[5m])) /
//   (sum(rate(ghusers_cache_hits_total[5m])) + sum(rate(ghusers_cache_misses_total[5m])))
//
//   # Quota Headroom
//   ghusers_quota_remaining < 5
//
//   # Partial Record Ratio
//   rate(ghusers_partial_records_total[5m]) / rate(ghusers_enriched_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(ghusers_request_duration_seconds_bucket[5m]))
//
//   # 304 Response Rate
//   rate(ghusers_304_responses_total[5m]) / rate(ghusers_requests_total[5m])
