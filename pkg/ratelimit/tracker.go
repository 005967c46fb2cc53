package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for quota tracking.
var (
	quotaRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ghusers_quota_remaining",
		Help: "Calls remaining in the current upstream rate limit window",
	})

	quotaSuspensionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ghusers_quota_suspensions_total",
		Help: "Total number of times extraction suspended waiting for quota reset",
	})

	quotaWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ghusers_quota_wait_seconds",
		Help:    "Duration of quota suspensions in seconds",
		Buckets: []float64{1, 5, 30, 60, 300, 900, 3600},
	})
)

// Clock abstracts time for the tracker so quota suspension is testable
// without real delays.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock returns a Clock backed by the time package.
func RealClock() Clock { return realClock{} }

// ResetGrace is added on top of the reported reset time before resuming,
// to absorb clock skew between this host and the upstream service.
const ResetGrace = 5 * time.Second

// Tracker holds the quota state for one extraction run and gates requests
// against it.
type Tracker struct {
	mu        sync.Mutex
	state     QuotaState
	threshold int
	clock     Clock
	logger    zerolog.Logger
}

// NewTracker creates a quota tracker with the given safety threshold.
// A nil clock defaults to the real clock.
func NewTracker(threshold int, clock Clock, logger zerolog.Logger) *Tracker {
	if clock == nil {
		clock = realClock{}
	}
	if threshold < 0 {
		threshold = DefaultSafetyThreshold
	}
	return &Tracker{
		// Assume a healthy quota until the first response tells us otherwise.
		state: QuotaState{
			Remaining: 60,
		},
		threshold: threshold,
		clock:     clock,
		logger:    logger,
	}
}

// State returns a copy of the current quota state.
func (t *Tracker) State() QuotaState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// UpdateFromHeaders parses the upstream rate limit headers and updates the
// tracked state. Responses without the headers leave the state untouched.
func (t *Tracker) UpdateFromHeaders(headers http.Header) error {
	remainStr := headers.Get("X-RateLimit-Remaining")
	if remainStr == "" {
		return nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return fmt.Errorf("parse X-RateLimit-Remaining header: %w", err)
	}

	resetStr := headers.Get("X-RateLimit-Reset")
	if resetStr == "" {
		return fmt.Errorf("X-RateLimit-Reset header missing")
	}

	resetEpoch, err := strconv.ParseInt(resetStr, 10, 64)
	if err != nil {
		return fmt.Errorf("parse X-RateLimit-Reset header: %w", err)
	}

	now := t.clock.Now()

	t.mu.Lock()
	t.state = QuotaState{
		Remaining:  remain,
		ResetAt:    time.Unix(resetEpoch, 0),
		LastUpdate: now,
	}
	exhausted := t.state.Exhausted(t.threshold)
	resetAt := t.state.ResetAt
	t.mu.Unlock()

	quotaRemaining.Set(float64(remain))

	if exhausted {
		t.logger.Warn().
			Int("remaining", remain).
			Time("reset_at", resetAt).
			Msg("Upstream quota exhausted - next request will suspend until reset")
	} else {
		t.logger.Debug().
			Int("remaining", remain).
			Time("reset_at", resetAt).
			Msg("Quota state updated")
	}

	return nil
}

// WaitIfExhausted blocks until the quota window resets when the remaining
// quota is at or below the safety threshold. It never drops work: the caller
// resumes exactly where it left off once the window opens. Returns early
// with the context error if the context is cancelled during the wait.
func (t *Tracker) WaitIfExhausted(ctx context.Context) error {
	t.mu.Lock()
	state := t.state
	t.mu.Unlock()

	if !state.Exhausted(t.threshold) {
		return nil
	}

	now := t.clock.Now()
	wait := state.TimeUntilReset(now)
	if wait > 0 {
		wait += ResetGrace
	}

	if wait <= 0 {
		// Reset time already passed; allow the next request to refresh state.
		return nil
	}

	quotaSuspensionsTotal.Inc()
	quotaWaitSeconds.Observe(wait.Seconds())

	t.logger.Info().
		Int("remaining", state.Remaining).
		Time("reset_at", state.ResetAt).
		Dur("wait", wait).
		Msg("Quota exhausted - suspending until reset")

	select {
	case <-ctx.Done():
		t.logger.Warn().Msg("Context cancelled during quota suspension")
		return ctx.Err()
	case <-t.clock.After(wait):
	}

	// Assume the window reopened; the next response refreshes the real count.
	t.mu.Lock()
	t.state.Remaining = t.threshold + 1
	t.mu.Unlock()

	t.logger.Info().Msg("Quota window reset - resuming")
	return nil
}
