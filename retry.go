package idxstore

import (
	"context"
	log "log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// Retry executes task with Fibonacci backoff starting at base, up to maxRetries retries.
// Every error returned by task is treated as retryable.
func Retry(ctx context.Context, base time.Duration, maxRetries uint64, task func(ctx context.Context) error) error {
	b := retry.WithMaxRetries(maxRetries, retry.NewFibonacci(base))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		if err := task(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		log.Warn(err.Error() + ", gave up")
	}
	return err
}
