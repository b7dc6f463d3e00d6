// Package runctl provides cooperative cancellation for CAST's worker
// lanes: a signal-derived context for the CLI entry point, and a fan-out
// helper for the container driver's block-level worker pool.
package runctl

import (
	"context"
	"os"
	"os/signal"

	"golang.org/x/sync/errgroup"
)

// WithInterrupt returns a context cancelled on the first os.Interrupt and
// a stop func the caller must defer, mirroring the signal-to-cancel
// wiring of a long-running service's Start loop, adapted here for a
// one-shot compress/decompress run rather than a blocking server.
func WithInterrupt(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	notify := make(chan os.Signal, 1)
	signal.Notify(notify, os.Interrupt)

	stopped := make(chan struct{})
	go func() {
		select {
		case <-notify:
			cancel()
		case <-ctx.Done():
		}
		close(stopped)
	}()

	return ctx, func() {
		signal.Stop(notify)
		cancel()
		<-stopped
	}
}

// RunAll fans runs out across an errgroup sharing one cancellable
// context: the first failure (or the parent context's own cancellation)
// stops the rest. Used to drive CAST's bounded block-level worker lanes
// (§5 "N worker threads consume them from a bounded queue").
func RunAll(ctx context.Context, runs ...func(ctx context.Context) error) error {
	group, gctx := errgroup.WithContext(ctx)
	for _, run := range runs {
		run := run
		group.Go(func() error { return run(gctx) })
	}
	return group.Wait()
}
