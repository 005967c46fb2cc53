// Package ratelimit tracks the upstream directory API call quota. It parses
// the X-RateLimit-Remaining and X-RateLimit-Reset headers and suspends the
// extraction flow until the reset time when the quota runs out, so a run
// pauses instead of failing or dropping work.
package ratelimit

import (
	"time"
)

// DefaultSafetyThreshold is the remaining-call count at or below which the
// extraction flow suspends until the quota window resets.
const DefaultSafetyThreshold = 1

// QuotaState is the last known upstream quota, taken from response headers.
// It is an explicit value threaded through the extraction run, not shared
// process state.
type QuotaState struct {
	// Remaining is the number of calls left in the current window,
	// from the X-RateLimit-Remaining header.
	Remaining int `json:"remaining"`

	// ResetAt is when the quota window resets, from the X-RateLimit-Reset
	// header (unix epoch seconds).
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was last refreshed from headers.
	LastUpdate time.Time `json:"last_update"`
}

// Exhausted reports whether the remaining quota is at or below the given
// safety threshold.
func (s *QuotaState) Exhausted(threshold int) bool {
	return s.Remaining <= threshold
}

// TimeUntilReset returns the duration until the quota window resets relative
// to now. Returns 0 if the reset time has already passed.
func (s *QuotaState) TimeUntilReset(now time.Time) time.Duration {
	d := s.ResetAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// IsStale returns true if the state is older than the given duration and
// should be refreshed from a fresh response before being trusted.
func (s *QuotaState) IsStale(now time.Time, maxAge time.Duration) bool {
	return now.Sub(s.LastUpdate) > maxAge
}
