// Package pool drains a build's queued steps and fans each step's
// independent tasks out across a fixed-size worker pool, stopping as soon
// as one task fails. The first-error-wins cooperative abort is built on
// golang.org/x/sync/errgroup rather than hand-rolled mutex+flag polling.
package pool

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/bobsh/bob/internal/buildstep"
)

// Run executes every step in q strictly in enqueue order, one at a time (a
// link step must not race the compile step that produces its inputs).
// Parallelism happens inside a step, across its merged data entries, via
// ForEach. The first failing step aborts the run; later steps never start.
func Run(ctx context.Context, q *buildstep.Queue, workers int) error {
	for _, step := range q.Steps() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step.Run(step.Data); err != nil {
			return err
		}
	}
	return nil
}

// ForEach runs fn over n items across up to workers goroutines, returning
// the first error. Items already dispatched when a failure occurs finish;
// no new ones start once the derived context is canceled. Build-step
// runners use this for their per-source-file tasks, which are independent
// of each other within one step (each handles its own include-deps,
// compilation, and cookie install).
func ForEach(ctx context.Context, workers, n int, fn func(i int) error) error {
	if workers < 1 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return fn(i)
		})
	}

	return g.Wait()
}
