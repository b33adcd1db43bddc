// Package retry runs an operation a bounded number of times.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/wltoplevel/internal/logger"
	"github.com/cenkalti/backoff/v4"
)

// Do calls op until it succeeds, up to attempts times, waiting delay
// between tries. The last error is returned wrapped with what; a cancelled
// ctx ends the wait early with ctx's error.
func Do(ctx context.Context, what string, attempts int, delay time.Duration, op func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), uint64(attempts-1)),
		ctx,
	)

	tried := 0
	err := backoff.RetryNotify(func() error {
		tried++
		return op()
	}, policy, func(err error, next time.Duration) {
		logger.Warnf("%s failed (attempt %d/%d): %v, retrying in %s", what, tried, attempts, err, next)
	})
	if err != nil {
		return fmt.Errorf("%s failed after %d attempt(s): %w", what, tried, err)
	}
	return nil
}
