// Package batch runs independent container jobs on a bounded worker pool.
package batch

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Runner executes jobs concurrently.
type Runner struct {
	workers int // 0 = GOMAXPROCS, <0 = serial, >0 = fixed count
	logger  *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers sets the number of concurrent jobs.
// Values < 0 force serial processing. Zero uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		r.workers = n
	}
}

// WithLogger sets the logger for job diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner returns a Runner configured by opts.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// log returns the logger, falling back to a discard logger if nil.
func (r *Runner) log() *slog.Logger {
	if r.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.logger
}

// Workers returns the effective worker count.
func (r *Runner) Workers() int {
	switch {
	case r.workers < 0:
		return 1
	case r.workers == 0:
		return runtime.GOMAXPROCS(0)
	default:
		return r.workers
	}
}

// Run calls fn for every job index in [0, n). The first error cancels the
// context passed to the remaining jobs and is returned once all started
// jobs return.
func (r *Runner) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	if n <= 0 {
		return nil
	}
	workers := min(r.Workers(), n)
	r.log().Debug("running batch", "jobs", n, "workers", workers)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i := range n {
		if ctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(ctx, i)
		})
	}
	return eg.Wait()
}
