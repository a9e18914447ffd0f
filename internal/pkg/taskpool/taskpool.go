// Package taskpool runs a batch of indexed tasks with a bounded number in
// flight. Failures are collected per task, not propagated as a batch abort,
// so callers can apply best-effort policies.
package taskpool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Run executes task(ctx, i) for i in [0, n) with at most limit tasks running
// concurrently. Completion of any task immediately admits the next queued
// index. The returned slice holds one entry per task; nil means success.
// Tasks not started before ctx is canceled report the context error.
func Run(ctx context.Context, limit, n int, task func(ctx context.Context, i int) error) []error {
	if n <= 0 {
		return nil
	}
	if limit <= 0 {
		limit = 1
	}

	errs := make([]error, n)
	var g errgroup.Group
	g.SetLimit(limit)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			// Each goroutine writes a distinct index, no lock needed.
			errs[i] = task(ctx, i)
			return nil
		})
	}
	_ = g.Wait()
	return errs
}
