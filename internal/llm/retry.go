package llm

import (
	"context"
	"errors"
	"time"
)

// RetryProvider is a decorator that absorbs transient upstream failures.
//
// Two failure classes are retryable, each with its own delay schedule:
// rate limits (429) wait for the server-supplied hint when present, else
// exponential backoff; empty generations wait linearly. Everything else
// surfaces immediately. Retries of the same logical call are strictly
// sequential.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
	sleep  func(ctx context.Context, d time.Duration) error
}

// RetryConfig configures the retry policy.
type RetryConfig struct {
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int

	// RateLimitBase is the starting exponential delay for rate limits.
	RateLimitBase time.Duration

	// MinDelay and MaxDelay bound every computed delay.
	MinDelay time.Duration
	MaxDelay time.Duration

	// EmptyStep is the linear delay unit for empty generations
	// (attempt × EmptyStep).
	EmptyStep time.Duration
}

// DefaultRetryConfig returns the standard policy: two extra attempts,
// rate-limit backoff starting at 2s capped at 65s, 1s linear steps for
// empty generations.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    2,
		RateLimitBase: 2 * time.Second,
		MinDelay:      1 * time.Second,
		MaxDelay:      65 * time.Second,
		EmptyStep:     1 * time.Second,
	}
}

// WithRetry wraps a Provider with the retry policy.
func WithRetry(p Provider, cfg RetryConfig) *RetryProvider {
	return &RetryProvider{
		inner:  p,
		config: cfg,
		sleep: func(ctx context.Context, d time.Duration) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
				return nil
			}
		},
	}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		wait, retryable := r.classify(err, attempt)
		if !retryable || attempt == r.config.MaxRetries {
			break
		}
		if err := r.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// classify decides whether err is retryable and with what delay.
func (r *RetryProvider) classify(err error, attempt int) (time.Duration, bool) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var rl *ErrRateLimit
	if errors.As(err, &rl) {
		wait := rl.RetryAfter
		if wait <= 0 {
			wait = r.config.RateLimitBase << attempt
		}
		return r.clamp(wait), true
	}

	var empty *ErrEmptyGeneration
	if errors.As(err, &empty) {
		return time.Duration(attempt+1) * r.config.EmptyStep, true
	}

	// Contract violations, upstream HTTP errors, auth failures: terminal.
	return 0, false
}

func (r *RetryProvider) clamp(d time.Duration) time.Duration {
	if d < r.config.MinDelay {
		return r.config.MinDelay
	}
	if d > r.config.MaxDelay {
		return r.config.MaxDelay
	}
	return d
}
