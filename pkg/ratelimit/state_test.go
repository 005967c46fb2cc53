package ratelimit

import (
	"testing"
	"time"
)

func TestQuotaState_Exhausted(t *testing.T) {
	tests := []struct {
		name      string
		remaining int
		threshold int
		expected  bool
	}{
		{
			name:      "well above threshold",
			remaining: 50,
			threshold: 1,
			expected:  false,
		},
		{
			name:      "just above threshold",
			remaining: 2,
			threshold: 1,
			expected:  false,
		},
		{
			name:      "at threshold",
			remaining: 1,
			threshold: 1,
			expected:  true,
		},
		{
			name:      "zero remaining",
			remaining: 0,
			threshold: 1,
			expected:  true,
		},
		{
			name:      "higher configured threshold",
			remaining: 5,
			threshold: 10,
			expected:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &QuotaState{Remaining: tt.remaining}
			if got := s.Exhausted(tt.threshold); got != tt.expected {
				t.Errorf("Exhausted(%d) = %v, want %v", tt.threshold, got, tt.expected)
			}
		})
	}
}

func TestQuotaState_TimeUntilReset(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		resetAt  time.Time
		expected time.Duration
	}{
		{
			name:     "future reset",
			resetAt:  now.Add(90 * time.Second),
			expected: 90 * time.Second,
		},
		{
			name:     "reset already passed",
			resetAt:  now.Add(-time.Minute),
			expected: 0,
		},
		{
			name:     "reset exactly now",
			resetAt:  now,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &QuotaState{ResetAt: tt.resetAt}
			if got := s.TimeUntilReset(now); got != tt.expected {
				t.Errorf("TimeUntilReset() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestQuotaState_IsStale(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		lastUpdate time.Time
		maxAge     time.Duration
		expected   bool
	}{
		{
			name:       "fresh state",
			lastUpdate: now.Add(-time.Second),
			maxAge:     5 * time.Minute,
			expected:   false,
		},
		{
			name:       "stale state",
			lastUpdate: now.Add(-10 * time.Minute),
			maxAge:     5 * time.Minute,
			expected:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &QuotaState{LastUpdate: tt.lastUpdate}
			if got := s.IsStale(now, tt.maxAge); got != tt.expected {
				t.Errorf("IsStale() = %v, want %v", got, tt.expected)
			}
		})
	}
}
