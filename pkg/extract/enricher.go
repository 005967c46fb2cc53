package extract

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/mila1515/github-users/pkg/directory"
	"github.com/mila1515/github-users/pkg/model"
)

// DefaultWorkers is the enrichment worker pool size. Kept small to respect
// the upstream's concurrent-connection expectations.
const DefaultWorkers = 5

var (
	enrichedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ghusers_enriched_total",
		Help: "Total records successfully enriched with profile details",
	})

	partialRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ghusers_partial_records_total",
		Help: "Total records kept in summary shape after enrichment failed",
	})
)

// Enricher merges the full profile onto each summary record using a bounded
// worker pool. A failed detail fetch keeps the summary row, flagged partial;
// one bad record never voids the batch.
type Enricher struct {
	svc     *directory.Service
	workers int
	logger  zerolog.Logger
}

// NewEnricher creates an enricher with the given worker count.
// A count <= 0 uses DefaultWorkers.
func NewEnricher(svc *directory.Service, workers int, logger zerolog.Logger) *Enricher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Enricher{
		svc:     svc,
		workers: workers,
		logger:  logger.With().Str("component", "enricher").Logger(),
	}
}

// Enrich fetches the full profile for one summary record and merges it.
// Re-enriching an already-detailed record is a no-op merge. On failure the
// input record is returned flagged partial, together with the cause.
func (e *Enricher) Enrich(ctx context.Context, summary model.UserRecord) (model.UserRecord, error) {
	detail, err := e.svc.GetUser(ctx, summary.Login)
	if err != nil {
		summary.Partial = true
		return summary, err
	}

	summary.Merge(*detail)
	return summary, nil
}

// EnrichAll enriches every summary with a bounded worker pool. Results are
// written back by index, so the output order always matches the input order
// regardless of completion order. The returned slice has exactly one entry
// per input summary.
func (e *Enricher) EnrichAll(ctx context.Context, summaries []model.UserRecord) []model.UserRecord {
	out := make([]model.UserRecord, len(summaries))
	copy(out, summaries)

	if len(summaries) == 0 {
		return out
	}

	indexes := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				enriched, err := e.Enrich(ctx, out[i])
				if err != nil {
					e.logger.Warn().
						Err(err).
						Str("login", out[i].Login).
						Msg("Detail fetch failed - keeping summary record as partial")
					partialRecordsTotal.Inc()
				} else {
					enrichedTotal.Inc()
				}
				out[i] = enriched
			}
		}()
	}

	for i := range summaries {
		select {
		case <-ctx.Done():
			// Stop feeding; drains leave the remaining records untouched in
			// summary shape.
			close(indexes)
			wg.Wait()
			return out
		case indexes <- i:
		}
	}
	close(indexes)
	wg.Wait()

	e.logger.Info().
		Int("records", len(out)).
		Msg("Enrichment complete")

	return out
}
