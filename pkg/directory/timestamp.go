package directory

import (
	"fmt"
	"time"
)

// parseTimestamp parses upstream timestamps, which are RFC 3339 in UTC
// (e.g. "2011-01-25T18:44:36Z").
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
