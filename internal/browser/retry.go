package browser

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// WithRetry wraps launch so failed starts are retried up to maxRetries times,
// doubling the wait from base after each attempt. Cancellation is never retried.
func WithRetry(launch Launcher, maxRetries int, base time.Duration, logger *slog.Logger) Launcher {
	if maxRetries <= 0 {
		return launch
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context) (Driver, error) {
		var lastErr error
		for attempt := 0; attempt <= maxRetries; attempt++ {
			d, err := launch(ctx)
			if err == nil {
				return d, nil
			}
			lastErr = err

			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return nil, err
			}

			if attempt < maxRetries {
				backoff := base * time.Duration(1<<uint(attempt))
				logger.Warn("browser failed to start, retrying", "attempt", attempt+1, "backoff", backoff, "err", err)
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(backoff):
				}
			}
		}
		return nil, lastErr
	}
}
