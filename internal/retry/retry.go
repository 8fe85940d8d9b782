// Package retry builds the bounded exponential backoff policies used by
// every stage of the pipeline.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy returns a context-aware exponential backoff that makes at most
// 1+maxRetries attempts, starting at base and capped at max per interval.
func Policy(ctx context.Context, base, max time.Duration, maxRetries int) backoff.BackOff {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = base
	expo.MaxInterval = max
	// Attempts are bounded by count, not wall clock.
	expo.MaxElapsedTime = 0

	if maxRetries < 0 {
		maxRetries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(expo, uint64(maxRetries)), ctx)
}

// Do runs op under the given policy parameters. Permanent errors (wrapped
// with backoff.Permanent) stop immediately.
func Do(ctx context.Context, base, max time.Duration, maxRetries int, op func() error) error {
	return backoff.Retry(op, Policy(ctx, base, max, maxRetries))
}
