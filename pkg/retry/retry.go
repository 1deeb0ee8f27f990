// Package retry provides bounded retry loops with pluggable backoff.
//
// The reply flow uses fixed attempt budgets (media attach, composer fill);
// keeping the bound here makes it an explicit, testable parameter instead
// of an implicit recursion depth.
package retry

import (
	"context"
	"fmt"
	"time"

	"tweetpilot/pkg/logger"
)

// Operation is a function that performs an operation that might need retrying.
type Operation func() error

// Config holds retry configuration.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// Backoff strategy between attempts.
	Backoff BackoffStrategy
	// RetryIf determines if an error should be retried. Nil retries all.
	RetryIf func(error) bool
	// OnRetry is called before each retry attempt.
	OnRetry func(attempt int, err error)
	// Context for cancellation.
	Context context.Context
	// Logger for retry attempts.
	Logger logger.Logger
}

// DefaultConfig returns a retry configuration with the bot's defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: time.Second},
		Context:     context.Background(),
		Logger:      logger.GetLogger(),
	}
}

// Do executes an operation with retry logic. It returns the last error once
// the attempt budget is exhausted.
func Do(op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		if cfg.MaxAttempts > 0 && attempt > cfg.MaxAttempts {
			if cfg.Logger != nil {
				cfg.Logger.WithFields(map[string]interface{}{
					"attempts":   attempt - 1,
					"last_error": lastErr.Error(),
				}).Error("retry attempts exhausted")
			}
			return fmt.Errorf("all %d attempts failed: %w", cfg.MaxAttempts, lastErr)
		}

		err := op()
		if err == nil {
			if attempt > 1 && cfg.Logger != nil {
				cfg.Logger.WithField("attempt", attempt).Debug("operation succeeded after retry")
			}
			return nil
		}
		lastErr = err

		if cfg.RetryIf != nil && !cfg.RetryIf(err) {
			return err
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err)
		}

		var delay time.Duration
		if cfg.Backoff != nil {
			delay = cfg.Backoff.NextDelay(attempt)
		}
		if cfg.Logger != nil {
			cfg.Logger.WithFields(map[string]interface{}{
				"attempt":      attempt,
				"error":        err.Error(),
				"delay_ms":     delay.Milliseconds(),
				"max_attempts": cfg.MaxAttempts,
			}).Warn("retrying operation")
		}

		if err := Wait(ctx, delay); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

// Wait waits for the specified duration or until the context is cancelled.
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
