package base

import (
	"context"
	"math/rand"
	"time"
)

const (
	// InitialBackoff is the wait time before the second attempt
	InitialBackoff = 50 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Retry calls fn until it succeeds or attempts calls have failed. Between
// attempts it sleeps with exponential backoff starting at initial. attempt
// passed to fn is zero based. The last error of fn is returned, or the
// context error if ctx ends while waiting.
func Retry(ctx context.Context, attempts int, initial time.Duration, fn func(attempt int) error) error {
	if attempts < 1 {
		attempts = 1
	}
	if initial <= 0 {
		initial = InitialBackoff
	}

	backoff := initial
	var lastErr error
	for i := 0; i < attempts; i++ {
		if lastErr = fn(i); lastErr == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		// Exponential backoff with a small random jitter (+-10%)
		jitter := float64(backoff) * (0.9 + 0.2*rand.Float64())
		timer := time.NewTimer(time.Duration(jitter))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	return lastErr
}
