package engine

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunWithTasks runs the engine's hot loop alongside any number of
// auxiliary goroutines — a split-mode async-adapter pump, a periodic
// stats exporter — under one cancellation signal. Run always returns a
// non-nil error (including context.Canceled on a clean stop), so the
// errgroup's derived context is cancelled the moment the hot loop
// exits for any reason, and every task is expected to return promptly
// once it observes that. The first error any goroutine returns is
// reported, except that a first error of context.Canceled (a clean
// shutdown) reports nil.
func (e *Engine) RunWithTasks(ctx context.Context, callback func(*Batch), tasks ...func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return e.Run(gctx, callback)
	})
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			return task(gctx)
		})
	}

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
