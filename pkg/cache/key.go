package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Key uniquely identifies a cached upstream response.
type Key struct {
	// Endpoint is the upstream path (e.g. "/users/octocat").
	Endpoint string

	// QueryParams are the query parameters (e.g. {"since": "30000000"}).
	QueryParams url.Values
}

// String generates a deterministic cache key string.
// Format: ghusers:endpoint:param1=val1:param2=val2
//
// Example:
//
//	ghusers:users:per_page=100:since=30000000
func (k Key) String() string {
	parts := []string{"ghusers"}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	// Query params sorted for determinism.
	if len(k.QueryParams) > 0 {
		keys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.QueryParams.Get(key)))
		}
	}

	return strings.Join(parts, ":")
}
