package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeClock advances instantly on After, recording the requested waits, so
// suspension behavior is testable without real delays.
type fakeClock struct {
	now   time.Time
	waits []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.waits = append(c.waits, d)
	c.now = c.now.Add(d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

func quotaHeaders(remaining int, resetAt time.Time) http.Header {
	h := http.Header{}
	h.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
	h.Set("X-RateLimit-Reset", fmt.Sprintf("%d", resetAt.Unix()))
	return h
}

func TestTracker_UpdateFromHeaders(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	tracker := NewTracker(1, clock, zerolog.Nop())

	resetAt := clock.now.Add(30 * time.Minute)
	if err := tracker.UpdateFromHeaders(quotaHeaders(42, resetAt)); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	state := tracker.State()
	if state.Remaining != 42 {
		t.Errorf("Remaining = %d, want 42", state.Remaining)
	}
	if state.ResetAt.Unix() != resetAt.Unix() {
		t.Errorf("ResetAt = %v, want %v", state.ResetAt, resetAt)
	}
}

func TestTracker_UpdateFromHeaders_MissingHeadersIgnored(t *testing.T) {
	tracker := NewTracker(1, &fakeClock{now: time.Now()}, zerolog.Nop())

	before := tracker.State()
	if err := tracker.UpdateFromHeaders(http.Header{}); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v, want nil for headerless response", err)
	}
	if tracker.State() != before {
		t.Error("state changed on response without rate limit headers")
	}
}

func TestTracker_UpdateFromHeaders_Invalid(t *testing.T) {
	tracker := NewTracker(1, &fakeClock{now: time.Now()}, zerolog.Nop())

	tests := []struct {
		name    string
		headers http.Header
	}{
		{
			name: "non-numeric remaining",
			headers: http.Header{
				"X-Ratelimit-Remaining": []string{"abc"},
				"X-Ratelimit-Reset":     []string{"1714564800"},
			},
		},
		{
			name: "missing reset",
			headers: http.Header{
				"X-Ratelimit-Remaining": []string{"10"},
			},
		},
		{
			name: "non-numeric reset",
			headers: http.Header{
				"X-Ratelimit-Remaining": []string{"10"},
				"X-Ratelimit-Reset":     []string{"soon"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tracker.UpdateFromHeaders(tt.headers); err == nil {
				t.Error("UpdateFromHeaders() = nil, want error")
			}
		})
	}
}

func TestTracker_WaitIfExhausted_SuspendsUntilReset(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start}
	tracker := NewTracker(1, clock, zerolog.Nop())

	// Quota exhausted, reset 2 seconds in the future.
	resetAt := start.Add(2 * time.Second)
	if err := tracker.UpdateFromHeaders(quotaHeaders(0, resetAt)); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	if err := tracker.WaitIfExhausted(context.Background()); err != nil {
		t.Fatalf("WaitIfExhausted() error = %v", err)
	}

	if len(clock.waits) != 1 {
		t.Fatalf("expected exactly one suspension, got %d", len(clock.waits))
	}
	want := 2*time.Second + ResetGrace
	if clock.waits[0] != want {
		t.Errorf("suspended for %v, want %v", clock.waits[0], want)
	}

	// A second call must not suspend again: the window is assumed open.
	if err := tracker.WaitIfExhausted(context.Background()); err != nil {
		t.Fatalf("WaitIfExhausted() error = %v", err)
	}
	if len(clock.waits) != 1 {
		t.Errorf("resumed tracker suspended again: %d waits", len(clock.waits))
	}
}

func TestTracker_WaitIfExhausted_HealthyQuotaDoesNotWait(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	tracker := NewTracker(1, clock, zerolog.Nop())

	if err := tracker.UpdateFromHeaders(quotaHeaders(30, clock.now.Add(time.Hour))); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	if err := tracker.WaitIfExhausted(context.Background()); err != nil {
		t.Fatalf("WaitIfExhausted() error = %v", err)
	}
	if len(clock.waits) != 0 {
		t.Errorf("healthy quota suspended: %d waits", len(clock.waits))
	}
}

func TestTracker_WaitIfExhausted_ResetAlreadyPassed(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start}
	tracker := NewTracker(1, clock, zerolog.Nop())

	if err := tracker.UpdateFromHeaders(quotaHeaders(0, start.Add(-time.Minute))); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	if err := tracker.WaitIfExhausted(context.Background()); err != nil {
		t.Fatalf("WaitIfExhausted() error = %v", err)
	}
	if len(clock.waits) != 0 {
		t.Errorf("suspended for an already-passed reset: %d waits", len(clock.waits))
	}
}

func TestTracker_WaitIfExhausted_ContextCancelled(t *testing.T) {
	// Real clock with a far-away reset: cancellation must win.
	tracker := NewTracker(1, RealClock(), zerolog.Nop())
	if err := tracker.UpdateFromHeaders(quotaHeaders(0, time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := tracker.WaitIfExhausted(ctx); err != context.Canceled {
		t.Errorf("WaitIfExhausted() = %v, want context.Canceled", err)
	}
}
