// Package cache provides a Redis-backed response cache for the upstream
// directory API with ETag support for conditional requests. A 304 Not
// Modified answer is much cheaper than a full fetch and, on GitHub, does not
// consume rate limit quota, so the cache directly stretches the extraction
// call budget.
package cache

import (
	"net/http"
	"time"
)

// Entry is a cached upstream response.
type Entry struct {
	// Data is the response body.
	Data []byte `json:"data"`

	// ETag for conditional requests (If-None-Match). GitHub serves strong
	// ETags on user documents.
	ETag string `json:"etag"`

	// LastModified is taken from the Last-Modified header when present.
	LastModified time.Time `json:"last_modified"`

	// StatusCode is the HTTP status code of the cached response.
	StatusCode int `json:"status_code"`

	// Headers are the response headers.
	Headers http.Header `json:"headers"`

	// FetchedAt is when the response was fetched from upstream.
	FetchedAt time.Time `json:"fetched_at"`

	// ExpiresAt is when the entry becomes stale. The upstream API does not
	// publish document lifetimes, so this comes from the configured TTL.
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired returns true if the entry has passed its expiry time.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}

// TTL returns the time until expiry, or 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.ExpiresAt)
	if ttl < 0 {
		return 0
	}
	return ttl
}
