package cmd

import (
	"context"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/404FoundingFather/ollama-model-manager/manager"
	"github.com/404FoundingFather/ollama-model-manager/progress"
)

type progressEvent struct {
	Message string
	Percent int
}

// runWithProgress runs op on a worker goroutine and renders its checkpoint
// events on the calling goroutine until the worker finishes. The worker
// observes cancellation at its next checkpoint once ctx is done.
func runWithProgress(ctx context.Context, initial string, op func(ctx context.Context, fn manager.ProgressFunc) error) error {
	p := progress.NewProgress(os.Stderr)
	defer p.Stop()

	bar := progress.NewBar(initial)
	p.Add(bar)

	events := make(chan progressEvent)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(events)
		return op(gctx, func(message string, percent int) bool {
			select {
			case events <- progressEvent{message, percent}:
			case <-gctx.Done():
				return false
			}
			return gctx.Err() == nil
		})
	})

	for ev := range events {
		bar.Set(ev.Message, ev.Percent)
	}

	return g.Wait()
}
