// Package filter implements the deterministic filtering stage: dedup by
// login, then per-record inclusion predicates combined with logical AND. The
// filter is stable: surviving records keep the snapshot's relative order.
package filter

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/mila1515/github-users/pkg/model"
)

var (
	recordsDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ghusers_filter_dropped_total",
		Help: "Records dropped by the filter stage by reason",
	}, []string{"reason"})

	recordsPassedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ghusers_filter_passed_total",
		Help: "Records passing all filter criteria",
	})
)

// DefaultCreatedAfter is the default account creation cutoff: accounts
// created before it are dropped. A business default, not a protocol value;
// override it through Criteria.
var DefaultCreatedAfter = time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)

// Predicate is a named pure boolean test on one record. Predicates must not
// depend on aggregate statistics of the batch, so filtering stays streamable
// and testable record by record.
type Predicate struct {
	Name  string
	Match func(model.UserRecord) bool
}

// Criteria configures the filter run. Each active criterion must hold for a
// record to survive (logical AND).
type Criteria struct {
	// RequireBio drops records whose bio is absent or blank after trimming.
	RequireBio bool

	// RequireAvatar drops records lacking a usable avatar URL.
	RequireAvatar bool

	// CreatedAfter drops records whose creation date is missing or earlier
	// than this cutoff. Zero disables the bound.
	CreatedAfter time.Time

	// Extra holds additional composable predicates, evaluated after the
	// built-in ones.
	Extra []Predicate
}

// DefaultCriteria returns the standard profile-completeness policy.
func DefaultCriteria() Criteria {
	return Criteria{
		RequireBio:    true,
		RequireAvatar: true,
		CreatedAfter:  DefaultCreatedAfter,
	}
}

// predicates expands the criteria into the fixed evaluation order.
func (c Criteria) predicates() []Predicate {
	var preds []Predicate

	if c.RequireBio {
		preds = append(preds, Predicate{
			Name:  "non_empty_bio",
			Match: func(u model.UserRecord) bool { return u.HasBio() },
		})
	}
	if c.RequireAvatar {
		preds = append(preds, Predicate{
			Name:  "avatar_present",
			Match: func(u model.UserRecord) bool { return u.HasAvatar() },
		})
	}
	if !c.CreatedAfter.IsZero() {
		cutoff := c.CreatedAfter
		preds = append(preds, Predicate{
			Name: "created_after",
			Match: func(u model.UserRecord) bool {
				return u.CreatedAt != nil && !u.CreatedAt.Before(cutoff)
			},
		})
	}

	return append(preds, c.Extra...)
}

// Engine applies the filtering policy to a snapshot.
type Engine struct {
	logger zerolog.Logger
}

// NewEngine creates a filter engine.
func NewEngine(logger zerolog.Logger) *Engine {
	return &Engine{
		logger: logger.With().Str("component", "filter").Logger(),
	}
}

// Run deduplicates the records by login (first occurrence wins) and applies
// the criteria to each survivor. The output keeps the input order and is
// byte-identical across reruns with the same inputs.
func (e *Engine) Run(records []model.UserRecord, criteria Criteria) []model.FilteredUserRecord {
	preds := criteria.predicates()
	seen := make(map[string]struct{}, len(records))
	filtered := make([]model.FilteredUserRecord, 0, len(records))

	dropped := 0
	for i := range records {
		u := &records[i]

		// Duplicate logins keep their first occurrence.
		if _, dup := seen[u.Login]; dup {
			recordsDroppedTotal.WithLabelValues("duplicate_login").Inc()
			dropped++
			continue
		}
		seen[u.Login] = struct{}{}

		if reason, ok := matchAll(u, preds); !ok {
			recordsDroppedTotal.WithLabelValues(reason).Inc()
			e.logger.Debug().
				Str("login", u.Login).
				Str("reason", reason).
				Msg("Record dropped")
			dropped++
			continue
		}

		filtered = append(filtered, u.Subset())
		recordsPassedTotal.Inc()
	}

	e.logger.Info().
		Int("input", len(records)).
		Int("dropped", dropped).
		Int("passed", len(filtered)).
		Msg("Filter run complete")

	return filtered
}

func matchAll(u *model.UserRecord, preds []Predicate) (string, bool) {
	for _, p := range preds {
		if !p.Match(*u) {
			return p.Name, false
		}
	}
	return "", true
}
