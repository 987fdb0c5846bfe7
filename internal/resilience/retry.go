// Package resilience provides small recovery primitives for the capture and
// persistence paths: bounded retry with exponential backoff.
//
// All functions are safe for concurrent use.
package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RetryConfig holds tuning knobs for [Retry].
type RetryConfig struct {
	// Name is a human-readable label used in log messages.
	Name string

	// Attempts is the total number of calls made before giving up. Default: 3.
	Attempts int

	// BaseDelay is the wait after the first failure; it doubles after each
	// subsequent failure. Default: 250ms.
	BaseDelay time.Duration

	// MaxDelay caps the backoff. Default: 5s.
	MaxDelay time.Duration
}

// Retry calls fn until it succeeds, the attempt budget is exhausted, or ctx is
// cancelled. The returned error is the last failure (wrapped), or ctx.Err()
// when cancelled mid-backoff.
func Retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 250 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 5 * time.Second
	}

	delay := cfg.BaseDelay
	var lastErr error
	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt == cfg.Attempts {
			break
		}

		slog.Warn("resilience: attempt failed, backing off",
			"name", cfg.Name,
			"attempt", attempt,
			"max_attempts", cfg.Attempts,
			"delay", delay,
			"error", lastErr,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return fmt.Errorf("resilience: %s failed after %d attempts: %w", cfg.Name, cfg.Attempts, lastErr)
}
