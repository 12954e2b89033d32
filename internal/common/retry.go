package common

import (
	"context"
	"log/slog"
	"time"
)

// DefaultRetryDelay is the base delay between checkin attempts.
// Attempt n waits n * DefaultRetryDelay before the next try.
const DefaultRetryDelay = 2 * time.Second

// Sleeper suspends the caller for the given duration, honoring ctx
// cancellation. Tests substitute a recording implementation.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext waits for d or until ctx is canceled, whichever comes first.
func SleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// WithRetry executes operation up to maxAttempts times, waiting
// baseDelay * attemptNumber between failed attempts. The final attempt's
// error is returned unchanged so callers can inspect its kind.
// A maxAttempts of 0 or 1 means a single attempt with no retry.
func WithRetry(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration, sleep Sleeper) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if sleep == nil {
		sleep = SleepContext
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = operation()
		if err == nil {
			return nil
		}

		if attempt == maxAttempts {
			break
		}

		slog.Warn("Attempt failed, retrying",
			"attempt", attempt,
			"remaining", maxAttempts-attempt,
			"error", err)

		if serr := sleep(ctx, baseDelay*time.Duration(attempt)); serr != nil {
			return serr
		}
	}

	return err
}
