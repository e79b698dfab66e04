package apierr

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig is the backoff policy shared by the collaborator clients
// (transcription, translation, prompt generation, image generation). Each
// client owns its own defaults; rate-limited diffusion calls want longer
// caps than transcription does.
type RetryConfig struct {
	MaxRetries int           // additional attempts after the first
	BaseDelay  time.Duration // wait before the first retry
	MaxDelay   time.Duration // ceiling for the doubled delay
}

// normalize clamps out-of-range fields so a zero or hand-built config still
// behaves: negative MaxRetries means a single attempt, an unset MaxDelay
// never caps below BaseDelay.
func (c *RetryConfig) normalize() {
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = c.BaseDelay
	}
}

// RetryWithBackoff runs call up to 1+MaxRetries times, doubling the wait
// between attempts up to MaxDelay. retryable decides whether an attempt's
// classified error is transient; nil means IsRetryable, so rate limits and
// timeouts retry while auth failures and malformed payloads surface
// immediately. ctx cancels the wait between attempts.
func RetryWithBackoff[T any](
	ctx context.Context,
	cfg RetryConfig,
	call func() (T, error),
	retryable func(error) bool,
) (T, error) {
	cfg.normalize()
	if retryable == nil {
		retryable = IsRetryable
	}

	var zero T
	var lastErr error
	delay := cfg.BaseDelay

	for attempt := 0; ; attempt++ {
		result, err := call()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retryable(err) {
			return zero, err
		}
		if attempt == cfg.MaxRetries {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}
			return zero, ctx.Err()
		case <-timer.C:
		}
		delay = min(delay*2, cfg.MaxDelay)
	}

	return zero, fmt.Errorf("max retries (%d) exceeded: %w", cfg.MaxRetries, lastErr)
}
