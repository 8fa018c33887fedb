// Package retry provides bounded exponential backoff with jitter for
// transient I/O failures (storage deletes, external API calls).
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Do calls fn up to attempts times, sleeping between failures with a delay
// that doubles on every attempt plus up to 50% random jitter. The last error
// is returned once attempts are exhausted. Context cancellation aborts the
// wait immediately.
func Do(ctx context.Context, attempts int, baseDelay time.Duration, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	delay := baseDelay

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		jitter := time.Duration(rand.Int63n(int64(delay)/2 + 1))
		select {
		case <-time.After(delay + jitter):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}

	return fmt.Errorf("giving up after %d attempts: %w", attempts, lastErr)
}
