package retry

import (
	"context"
	"time"
)

// MaxBackoff caps the delay returned by ExponentialBackoff.
const MaxBackoff = time.Minute

// ExponentialBackoff returns delay based on attempt number.
// The delay doubles with each attempt: base * 2^attempt, up to MaxBackoff.
func ExponentialBackoff(attempt int, base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 62 || base > MaxBackoff>>attempt {
		return MaxBackoff
	}
	return base << attempt
}

// Do calls fn until it succeeds or attempts are used up, sleeping with
// exponential backoff between tries. It returns the last error.
func Do(ctx context.Context, attempts int, base time.Duration, fn func(context.Context) error) error {
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(ExponentialBackoff(attempt, base)):
		}
	}
	return err
}
