package engine

import (
	"context"
	"errors"
	"time"

	"docportal/internal/config"
)

const (
	DefaultMaxRetries = 2
	DefaultRetryDelay = time.Second
)

// RetryPolicy is a bounded, fixed-interval retry. There is no jitter and the delay does not grow.
type RetryPolicy struct {
	// MaxRetries is the number of additional attempts after the first one.
	MaxRetries int
	Delay      time.Duration
	// Retryable decides whether a failure is worth another attempt. Nil retries everything.
	Retryable func(error) bool
}

// DefaultRetryPolicy retries twice, one second apart, on transient engine failures.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: DefaultMaxRetries, Delay: DefaultRetryDelay, Retryable: IsRetryable}
}

// RetryPolicyFromConfig builds the policy from engine settings, falling back to defaults for negative values.
func RetryPolicyFromConfig(cfg config.DocumentEngineConfig) RetryPolicy {
	p := DefaultRetryPolicy()
	if cfg.MaxRetries >= 0 {
		p.MaxRetries = cfg.MaxRetries
	}
	if cfg.RetryDelayMs >= 0 {
		p.Delay = time.Duration(cfg.RetryDelayMs) * time.Millisecond
	}
	return p
}

// WithRetry runs op up to p.MaxRetries+1 times and returns the first success or the last error.
// If ctx ends while waiting between attempts, the context error is joined with the last failure.
func WithRetry[T any](ctx context.Context, p RetryPolicy, op func(context.Context) (T, error)) (T, error) {
	var zero T
	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if p.Retryable != nil && !p.Retryable(err) {
			return zero, err
		}
		if attempt < maxRetries {
			if werr := wait(ctx, p.Delay); werr != nil {
				return zero, errors.Join(werr, lastErr)
			}
		}
	}
	return zero, lastErr
}

// Retry is WithRetry for operations without a result.
func Retry(ctx context.Context, p RetryPolicy, op func(context.Context) error) error {
	_, err := WithRetry(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
