package extractkit

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultRunner returns a runner bounded to runtime.NumCPU() tasks.
func DefaultRunner(ctx context.Context) Runner {
	return newErrGroupRunner(ctx, runtime.NumCPU())
}

// NewLimitedRunner creates a runner with bounded concurrency. n <= 0 means
// runtime.NumCPU().
func NewLimitedRunner(ctx context.Context, n int) Runner {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return newErrGroupRunner(ctx, n)
}

// errGroupRunner schedules batch documents on an errgroup.Group. The first
// task error cancels ctx for the rest.
type errGroupRunner struct {
	ctx context.Context // derived ctx shared by all tasks
	eg  *errgroup.Group
}

func newErrGroupRunner(parent context.Context, n int) *errGroupRunner {
	eg, ctx := errgroup.WithContext(parent)
	eg.SetLimit(n)
	return &errGroupRunner{ctx: ctx, eg: eg}
}

// Go blocks while n tasks are already running.
func (r *errGroupRunner) Go(fn func() error) { r.eg.Go(fn) }

func (r *errGroupRunner) Wait() error { return r.eg.Wait() }
