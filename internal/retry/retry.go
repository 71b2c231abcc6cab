// Package retry wraps outbound GitHub and Anthropic calls with exponential
// backoff. Only errors the taxonomy marks retryable are attempted again.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	perrors "github.com/p-blackswan/devteam-agent/internal/errors"
)

// Config holds retry configuration.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      bool
}

// DefaultConfig returns defaults tuned for chat-paced turns: a persona turn
// blocks the thread, so we give up well before Slack users lose patience.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   250 * time.Millisecond,
		MaxDelay:    4 * time.Second,
		Jitter:      true,
	}
}

// Do runs fn up to cfg.MaxAttempts times. Non-retryable errors return
// immediately; a cancelled context wins over any pending backoff.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !perrors.IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delayFor(cfg, attempt)):
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", cfg.MaxAttempts, lastErr)
}

// delayFor doubles the base delay per completed attempt, capped at MaxDelay.
// Jitter scales the result into [0.5, 1.0) to spread concurrent persona turns.
func delayFor(cfg Config, attempt int) time.Duration {
	delay := cfg.BaseDelay << (attempt - 1)
	if delay > cfg.MaxDelay || delay <= 0 {
		delay = cfg.MaxDelay
	}
	if cfg.Jitter {
		delay = time.Duration(float64(delay) * (0.5 + rand.Float64()*0.5))
	}
	return delay
}
