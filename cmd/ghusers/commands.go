package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/mila1515/github-users/pkg/api"
	"github.com/mila1515/github-users/pkg/client"
	"github.com/mila1515/github-users/pkg/directory"
	"github.com/mila1515/github-users/pkg/extract"
	"github.com/mila1515/github-users/pkg/filter"
	"github.com/mila1515/github-users/pkg/logging"
	"github.com/mila1515/github-users/pkg/snapshot"
)

func commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "extract",
			Usage: "Walk the user directory and write an enriched snapshot.",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "max-users", Value: 120, Usage: "maximum number of users to collect"},
				&cli.IntFlag{Name: "page-size", Value: 30, Usage: "users requested per listing page"},
				&cli.Int64Flag{Name: "since", Value: extract.DefaultOrigin, Usage: "user ID to start pagination after"},
				&cli.IntFlag{Name: "workers", Value: extract.DefaultWorkers, Usage: "concurrent detail fetches"},
				&cli.StringFlag{Name: "output", Value: "users.json", Usage: "snapshot file to write"},
			},
			Action: runExtract,
		},
		{
			Name:  "filter",
			Usage: "Reduce a snapshot to the records matching the completeness criteria.",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "input", Value: "users.json", Usage: "snapshot file to read"},
				&cli.StringFlag{Name: "output", Value: "filtered_users.json", Usage: "filtered collection file to write"},
				&cli.StringFlag{Name: "created-after", Value: "2015-01-01", Usage: "keep accounts created on or after this date (YYYY-MM-DD)"},
			},
			Action: runFilter,
		},
		{
			Name:  "serve",
			Usage: "Serve a filtered collection over HTTP.",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "addr", Value: ":8000", Usage: "listen address"},
				&cli.StringFlag{Name: "filtered", Value: "filtered_users.json", Usage: "filtered collection file to serve"},
			},
			Action: runServe,
		},
	}
}

// newClient builds the directory client from the environment. REDIS_URL is
// optional: without it the client runs uncached and every request goes
// upstream.
func newClient(logger zerolog.Logger) (*client.Client, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return nil, errors.New("GITHUB_TOKEN is not set")
	}

	cfg := client.DefaultConfig(token)

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: redisURL})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping %s: %w", redisURL, err)
		}
		logger.Info().Str("redis", redisURL).Msg("Response cache enabled")
		cfg.Redis = redisClient
	}

	return client.New(cfg)
}

func runExtract(c *cli.Context) error {
	logger := logging.NewLogger("extract-cmd")

	gh, err := newClient(logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return extractToSnapshot(ctx, gh, extractOptions{
		maxUsers: c.Int("max-users"),
		pageSize: c.Int("page-size"),
		since:    c.Int64("since"),
		workers:  c.Int("workers"),
		output:   c.String("output"),
	}, logger)
}

type extractOptions struct {
	maxUsers int
	pageSize int
	since    int64
	workers  int
	output   string
}

// externalAbort reports whether a pagination failure came from this run being
// cancelled rather than from the upstream. Cancellation can surface either as
// the raw context error or wrapped by the retry loop.
func externalAbort(ctx context.Context, pf *extract.PaginationFailure) bool {
	return ctx.Err() != nil ||
		errors.Is(pf.Err, context.Canceled) ||
		errors.Is(pf.Err, context.DeadlineExceeded) ||
		errors.Is(pf.Err, client.ErrContextCancelled)
}

// extractToSnapshot runs the extraction pipeline and commits the result to
// opts.output. An externally aborted run writes nothing, so the previous
// snapshot stays intact. An upstream failure persists the partial batch to a
// side path instead of replacing the last good snapshot.
func extractToSnapshot(ctx context.Context, gh *client.Client, opts extractOptions, logger zerolog.Logger) error {
	svc := directory.NewService(gh)
	paginator := extract.NewPaginator(svc, gh.Quota(), opts.since, logger)
	enricher := extract.NewEnricher(svc, opts.workers, logger)

	users, err := paginator.Extract(ctx, opts.maxUsers, opts.pageSize)

	var pf *extract.PaginationFailure
	if errors.As(err, &pf) {
		if externalAbort(ctx, pf) {
			logger.Warn().
				Int64("since", pf.Cursor.Since).
				Int("retrieved", pf.Cursor.Retrieved).
				Msg("Extraction aborted, previous snapshot left intact")
			return pf
		}

		partialPath := opts.output + ".partial"
		logger.Error().
			Int64("since", pf.Cursor.Since).
			Int("retrieved", pf.Cursor.Retrieved).
			Err(pf.Err).
			Msg("Extraction interrupted, partial batch written aside")
		users = enricher.EnrichAll(ctx, users)
		if werr := snapshot.Write(partialPath, users); werr != nil {
			return werr
		}
		return cli.Exit(fmt.Sprintf("extraction incomplete: partial batch at %s, resume with --since %d",
			partialPath, pf.Cursor.Since), 1)
	}
	if err != nil {
		return err
	}

	users = enricher.EnrichAll(ctx, users)

	if err := snapshot.Write(opts.output, users); err != nil {
		return err
	}

	logger.Info().
		Int("users", len(users)).
		Str("output", opts.output).
		Msg("Snapshot written")
	return nil
}

func runFilter(c *cli.Context) error {
	logger := logging.NewLogger("filter-cmd")

	records, err := snapshot.Load(c.String("input"))
	if err != nil {
		return err
	}

	criteria := filter.DefaultCriteria()
	cutoff, err := time.Parse("2006-01-02", c.String("created-after"))
	if err != nil {
		return fmt.Errorf("invalid --created-after: %w", err)
	}
	criteria.CreatedAfter = cutoff.UTC()

	filtered := filter.NewEngine(logger).Run(records, criteria)

	if err := snapshot.WriteFiltered(c.String("output"), filtered); err != nil {
		return err
	}

	logger.Info().
		Int("input", len(records)).
		Int("passed", len(filtered)).
		Str("output", c.String("output")).
		Msg("Filtered collection written")
	return nil
}

func runServe(c *cli.Context) error {
	logger := logging.NewLogger("serve-cmd")

	store, err := api.LoadStore(c.String("filtered"))
	if err != nil {
		return err
	}

	server := api.NewServer(store, api.Config{
		AccessPassword: os.Getenv("API_ACCESS_TOKEN"),
	})

	router := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET"}),
	)(server.Router())

	httpServer := &http.Server{
		Addr:              c.String("addr"),
		Handler:           handlers.CombinedLoggingHandler(os.Stdout, router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", c.String("addr")).
			Int("users", store.Len()).
			Msg("Query service listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info().Msg("Shutting down")
	return httpServer.Shutdown(shutdownCtx)
}
