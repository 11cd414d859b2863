// Package worker provides a bounded worker pool for fan-out over a
// fixed item list. Each item is handled by exactly one worker, so
// per-item ordering inside the handler is preserved while items
// interleave freely.
package worker

import (
	"context"
	"sync"
)

// Map runs fn over every item using at most workers goroutines. The
// first error cancels the remaining work and is returned. A workers
// value below one runs sequentially.
func Map[T any](ctx context.Context, workers int, items []T, fn func(context.Context, T) error) error {
	if workers < 1 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}
	if len(items) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	feed := make(chan T)
	errOnce := sync.Once{}
	var firstErr error

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range feed {
				if ctx.Err() != nil {
					return
				}
				if err := fn(ctx, item); err != nil {
					errOnce.Do(func() {
						firstErr = err
						cancel()
					})
					return
				}
			}
		}()
	}

	for _, item := range items {
		select {
		case feed <- item:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(feed)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
