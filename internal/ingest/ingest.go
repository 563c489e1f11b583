// Package ingest drives batch resolution: it normalizes raw source records
// and feeds them through the resolver under bounded concurrency, surviving
// malformed rows so one bad record never kills a run.
package ingest

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/capturelab/capture/internal/normalize"
	"github.com/capturelab/capture/internal/resolver"
	"github.com/capturelab/capture/store"
)

// Report summarizes one batch run.
type Report struct {
	RunID       uuid.UUID `json:"runId"`
	Processed   int       `json:"processed"`
	Created     int       `json:"created"`
	Merged      int       `json:"merged"`
	NeedsReview int       `json:"needsReview"`
	Skipped     int       `json:"skipped"`

	mu sync.Mutex
}

func (r *Report) record(res *resolver.Resolution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Processed++
	switch res.Status {
	case resolver.StatusCreated:
		r.Created++
	case resolver.StatusMerged:
		r.Merged++
	case resolver.StatusNeedsReview:
		r.NeedsReview++
	}
}

func (r *Report) skip() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Processed++
	r.Skipped++
}

type Options struct {
	// Workers bounds concurrent record processing. Defaults to 4.
	Workers int
	// RatePerSec throttles record starts. Zero disables the throttle.
	RatePerSec int
	// Logger receives per-record warnings and run progress. Defaults to
	// slog.Default.
	Logger *slog.Logger
}

type Runner struct {
	normalizer *normalize.Normalizer
	resolver   *resolver.Resolver
	opts       Options
}

func New(n *normalize.Normalizer, r *resolver.Resolver, opts Options) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Runner{normalizer: n, resolver: r, opts: opts}
}

// Run resolves every raw record against the store. Records that fail to
// normalize or resolve are logged and counted as skipped; the run only fails
// when the context is canceled.
func (r *Runner) Run(ctx context.Context, kind store.EntityKind, schema string, records []map[string]string) (*Report, error) {
	report := &Report{RunID: uuid.New()}
	logger := r.opts.Logger.With(slog.String("runId", report.RunID.String()), slog.String("schema", schema))
	logger.Info("ingest run started", slog.Int("records", len(records)), slog.Int("workers", r.opts.Workers))

	var limiter *rate.Limiter
	if r.opts.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(r.opts.RatePerSec), r.opts.RatePerSec)
	}

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(r.opts.Workers)
	for i, raw := range records {
		i, raw := i, raw
		group.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return errors.Wrap(err, "ingest throttle interrupted")
				}
			}

			rec, err := r.normalizer.Normalize(raw, schema)
			if err != nil {
				if errors.Is(err, normalize.ErrUnsupportedSource) {
					return err
				}
				logger.Warn("skipping record", slog.Int("index", i), slog.Any("err", err))
				report.skip()
				return nil
			}

			res, err := r.resolver.Resolve(ctx, rec, kind)
			if err != nil {
				logger.Warn("skipping record", slog.Int("index", i), slog.String("localId", rec.LocalID), slog.Any("err", err))
				report.skip()
				return nil
			}
			report.record(res)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	logger.Info("ingest run finished",
		slog.Int("processed", report.Processed),
		slog.Int("created", report.Created),
		slog.Int("merged", report.Merged),
		slog.Int("needsReview", report.NeedsReview),
		slog.Int("skipped", report.Skipped))
	return report, nil
}
