package errors

import (
	"context"
	"math/rand/v2"
	"time"
)

// RetryConfig describes how often and how patiently a transient failure
// is retried.
type RetryConfig struct {
	MaxRetries int           // Retries after the first attempt
	BaseDelay  time.Duration // Delay before the first retry, doubled for each one after
	MaxDelay   time.Duration // Cap on a single delay
	Jitter     float64       // Spread of the delay, 0.4 gives [0.8, 1.2] times the delay

	// OnRetry, when set, is called before sleeping ahead of each retry.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// PushRetryConfig is the retry policy for best-effort pushes. It is short:
// the watch loop is blocked while a push is retried.
func PushRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		BaseDelay:  2 * time.Second,
		MaxDelay:   10 * time.Second,
		Jitter:     0.4,
	}
}

// Backoff returns the delay ahead of retry number attempt (starting at 0).
func (c RetryConfig) Backoff(attempt int) time.Duration {
	delay := c.BaseDelay
	for i := 0; i < attempt && delay < c.MaxDelay; i++ {
		delay *= 2
	}
	if delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	if c.Jitter <= 0 {
		return delay
	}
	return time.Duration(float64(delay) * (1 - c.Jitter/2 + c.Jitter*rand.Float64()))
}

// Retry calls fn until it succeeds, fails with an error IsRetryable rejects,
// the retries are used up or ctx is done. It returns the last error.
func Retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		switch {
		case err == nil:
			return nil
		case !IsRetryable(err):
			return err
		case attempt == cfg.MaxRetries:
			return Wrapf(err, "failed after %d retries", cfg.MaxRetries)
		}

		delay := cfg.Backoff(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Wrapf(err, "gave up after attempt %d", attempt+1)
		case <-timer.C:
		}
	}
}
