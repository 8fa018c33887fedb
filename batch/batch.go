// Package batch runs a transform over a sequence of items with bounded
// concurrency. Items are partitioned into fixed-size batches in input order;
// up to MaxConcurrentBatches batches run at once and every item inside a
// batch runs on its own goroutine. A failing item is counted and excluded
// from the results without disturbing its siblings.
package batch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

type Config struct {
	BatchSize            int
	MaxConcurrentBatches int
}

// Stats aggregates item outcomes for a whole run. Processed counts every
// completed item, success or failure.
type Stats struct {
	Processed int64
	Failed    int64
}

// Hooks carries optional per-item callbacks. OnProgress fires after every
// item completes; OnError fires for each failed item with its input index.
// Both may be called from multiple goroutines.
type Hooks struct {
	OnProgress func(processed, total, failed int64)
	OnError    func(index int, err error)
}

// Run applies transform to every item and returns the successful results in
// input order. The only error returned is a context cancellation; item
// failures are reported through hooks and the returned Stats.
func Run[In, Out any](ctx context.Context, items []In, cfg Config, transform func(context.Context, In) (Out, error), hooks Hooks) ([]Out, Stats, error) {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	if cfg.MaxConcurrentBatches < 1 {
		cfg.MaxConcurrentBatches = 1
	}

	total := int64(len(items))
	slots := make([]*Out, len(items))

	var processed, failed atomic.Int64
	sem := semaphore.NewWeighted(int64(cfg.MaxConcurrentBatches))

	var wg sync.WaitGroup
	for start := 0; start < len(items); start += cfg.BatchSize {
		end := start + cfg.BatchSize
		if end > len(items) {
			end = len(items)
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			defer sem.Release(1)

			var itemWG sync.WaitGroup
			for i := start; i < end; i++ {
				itemWG.Add(1)
				go func(i int) {
					defer itemWG.Done()
					out, err := runOne(ctx, items[i], transform)
					if err != nil {
						failed.Add(1)
						if hooks.OnError != nil {
							hooks.OnError(i, err)
						}
					} else {
						slots[i] = &out
					}
					done := processed.Add(1)
					if hooks.OnProgress != nil {
						hooks.OnProgress(done, total, failed.Load())
					}
				}(i)
			}
			itemWG.Wait()
		}(start, end)
	}

	wg.Wait()

	stats := Stats{Processed: processed.Load(), Failed: failed.Load()}
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	results := make([]Out, 0, len(items))
	for _, slot := range slots {
		if slot != nil {
			results = append(results, *slot)
		}
	}
	return results, stats, nil
}

// runOne isolates a single transform call, converting a panic into an error
// so one bad item cannot take down the run.
func runOne[In, Out any](ctx context.Context, item In, transform func(context.Context, In) (Out, error)) (out Out, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transform panicked: %v", r)
		}
	}()
	return transform(ctx, item)
}
