// Package retry provides bounded retry loops for transient failures.
//
// Two shapes are used in this codebase: exponential backoff for network
// operations (SSH dials to freshly booted instances) and fixed-interval
// polling for readiness probes (HTTP health checks). Errors wrapped with
// Fatal are never retried.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Config holds retry configuration.
type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// Option is a functional option for retry configuration.
type Option func(*Config)

// WithBackoff executes op with exponential backoff between attempts.
// Context cancellation is respected while sleeping.
func WithBackoff(ctx context.Context, op func() error, opts ...Option) error {
	cfg := &Config{
		MaxAttempts:  5,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err

		if IsFatal(err) {
			return fmt.Errorf("fatal error (not retrying): %w", err)
		}

		if attempt < cfg.MaxAttempts {
			select {
			case <-ctx.Done():
				return fmt.Errorf("cancelled after %d attempts: %w", attempt, ctx.Err())
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * cfg.Multiplier)
				if delay > cfg.MaxDelay {
					delay = cfg.MaxDelay
				}
			}
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}

// Fixed executes op up to attempts times with a fixed interval between
// tries. It returns the number of attempts made alongside the final
// error, so callers can report how long readiness took.
func Fixed(ctx context.Context, attempts int, interval time.Duration, op func() error) (int, error) {
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		err := op()
		if err == nil {
			return attempt, nil
		}
		lastErr = err

		if IsFatal(err) {
			return attempt, fmt.Errorf("fatal error (not retrying): %w", err)
		}

		if attempt < attempts {
			select {
			case <-ctx.Done():
				return attempt, fmt.Errorf("cancelled after %d attempts: %w", attempt, ctx.Err())
			case <-time.After(interval):
			}
		}
	}

	return attempts, fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

// WithMaxAttempts sets the maximum number of attempts.
func WithMaxAttempts(n int) Option {
	return func(c *Config) {
		c.MaxAttempts = n
	}
}

// WithInitialDelay sets the initial delay between attempts.
func WithInitialDelay(d time.Duration) Option {
	return func(c *Config) {
		c.InitialDelay = d
	}
}

// WithMaxDelay sets the maximum delay between attempts.
func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) {
		c.MaxDelay = d
	}
}

// FatalError wraps an error to mark it as non-retryable.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal marks an error as non-retryable.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal checks if an error is non-retryable.
func IsFatal(err error) bool {
	var fatalErr *FatalError
	return errors.As(err, &fatalErr)
}
