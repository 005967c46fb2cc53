// Package extract implements the extraction stage: walking the paginated
// directory listing under the upstream quota and enriching each summary row
// with its full profile.
package extract

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/mila1515/github-users/pkg/directory"
	"github.com/mila1515/github-users/pkg/model"
	"github.com/mila1515/github-users/pkg/ratelimit"
)

// DefaultOrigin is the id the listing walk starts from when none is
// configured. The directory serves ids strictly greater than the origin.
const DefaultOrigin = 30000000

// Prometheus metrics for the extraction stage.
var (
	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ghusers_pages_fetched_total",
		Help: "Total listing pages fetched across extraction runs",
	})

	usersCollectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ghusers_users_collected_total",
		Help: "Total user summaries collected across extraction runs",
	})
)

// Cursor is the resumption point of an extraction run: the last id the
// listing walk completed, how many summaries were already collected, and how
// many listing calls the run has spent. It exists only for the duration of
// one run.
type Cursor struct {
	Since     int64 `json:"since"`
	Retrieved int   `json:"retrieved"`
	QuotaUsed int   `json:"quota_used"`
}

// PaginationFailure is returned when a page could not be fetched after the
// retry budget. It carries the last good cursor so a caller can resume the
// walk instead of restarting from the origin.
type PaginationFailure struct {
	Cursor Cursor
	Err    error
}

// Error implements the error interface.
func (e *PaginationFailure) Error() string {
	return fmt.Sprintf("pagination failed at since=%d after %d users (%d pages): %v",
		e.Cursor.Since, e.Cursor.Retrieved, e.Cursor.QuotaUsed, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *PaginationFailure) Unwrap() error {
	return e.Err
}

// Paginator walks the directory listing page by page, suspending on quota
// exhaustion instead of dropping work.
type Paginator struct {
	svc    *directory.Service
	quota  *ratelimit.Tracker
	origin int64
	logger zerolog.Logger
}

// NewPaginator creates a paginator starting at origin. An origin of 0 uses
// DefaultOrigin.
func NewPaginator(svc *directory.Service, quota *ratelimit.Tracker, origin int64, logger zerolog.Logger) *Paginator {
	if origin <= 0 {
		origin = DefaultOrigin
	}
	return &Paginator{
		svc:    svc,
		quota:  quota,
		origin: origin,
		logger: logger.With().Str("component", "paginator").Logger(),
	}
}

// Extract collects up to maxUsers summary records, walking pages of pageSize
// in ascending id order. It stops early when the directory runs out of
// entries. The quota check runs between pages: when the remaining budget is
// at or below the safety threshold the walk blocks until the reset time and
// then resumes exactly where it stopped.
//
// The paginator performs no storage writes; the caller owns persistence.
func (p *Paginator) Extract(ctx context.Context, maxUsers, pageSize int) ([]model.UserRecord, error) {
	if maxUsers <= 0 {
		return nil, fmt.Errorf("max users must be positive, got %d", maxUsers)
	}
	if pageSize <= 0 {
		pageSize = 30
	}

	users := make([]model.UserRecord, 0, maxUsers)
	cursor := Cursor{Since: p.origin}

	for len(users) < maxUsers {
		if err := p.quota.WaitIfExhausted(ctx); err != nil {
			return users, &PaginationFailure{Cursor: cursor, Err: err}
		}

		p.logger.Debug().
			Int64("since", cursor.Since).
			Int("collected", len(users)).
			Msg("Fetching listing page")

		page, err := p.svc.ListUsers(ctx, cursor.Since, pageSize)
		if err != nil {
			// Page retry budget exhausted inside the client; surface the
			// last good cursor for resumption.
			p.logger.Error().
				Err(err).
				Int64("since", cursor.Since).
				Int("collected", len(users)).
				Msg("Listing page failed after retries")
			return users, &PaginationFailure{Cursor: cursor, Err: err}
		}

		cursor.QuotaUsed++
		pagesFetchedTotal.Inc()

		if len(page) == 0 {
			p.logger.Info().
				Int("collected", len(users)).
				Msg("Empty page - end of directory")
			break
		}

		appended := 0
		for _, u := range page {
			if len(users) >= maxUsers {
				break
			}
			users = append(users, u)
			cursor.Retrieved++
			appended++
		}
		usersCollectedTotal.Add(float64(appended))

		cursor.Since = page[len(page)-1].ID
	}

	p.logger.Info().
		Int("users", len(users)).
		Int("pages", cursor.QuotaUsed).
		Msg("Extraction pagination complete")

	return users, nil
}
