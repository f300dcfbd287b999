package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/errors"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/logger"
)

// Operation is a function that performs an operation that might need retrying
type Operation func() error

// Config holds retry configuration
type Config struct {
	// MaxRetries is the number of retries after the first attempt, so
	// the operation runs at most MaxRetries+1 times. Zero disables
	// retrying entirely.
	MaxRetries int
	// Backoff strategy to use
	Backoff BackoffStrategy
	// RetryIf determines if an error should be retried
	RetryIf func(error) bool
	// OnRetry is called before each retry attempt
	OnRetry func(retry int, err error, delay time.Duration)
	// Context for cancellation
	Context context.Context
	// Logger for retry attempts
	Logger logger.Logger
}

// DefaultConfig returns the retry configuration used against Reddit:
// two retries, cubic backoff, rate-limit failures only.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries: 2,
		Backoff:    DefaultCubicBackoff(),
		RetryIf:    errors.IsRetryable,
		Context:    context.Background(),
		Logger:     logger.GetLogger(),
	}
}

// Do executes an operation, retrying rate-limit failures with backoff
// until the retry budget runs out. Non-retryable errors return
// immediately; an exhausted budget returns the last error wrapped.
// Config fields left zero fall back to the DefaultConfig values, so a
// partial Config literal is safe.
func Do(op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = errors.IsRetryable
	}
	backoff := cfg.Backoff
	if backoff == nil {
		backoff = DefaultCubicBackoff()
	}
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}

	var lastErr error

	for attempt := 0; ; attempt++ {
		err := op()
		if err == nil {
			if attempt > 0 && cfg.Logger != nil {
				cfg.Logger.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempts": attempt + 1,
				})
			}
			return nil
		}

		lastErr = err

		if !retryIf(err) {
			if cfg.Logger != nil {
				cfg.Logger.DebugWithFields("error is not retryable", map[string]interface{}{
					"error": err.Error(),
				})
			}
			return err
		}

		if attempt >= cfg.MaxRetries {
			if cfg.Logger != nil {
				cfg.Logger.ErrorWithFields("retry budget exhausted", map[string]interface{}{
					"max_retries": cfg.MaxRetries,
					"last_error":  lastErr.Error(),
				})
			}
			return fmt.Errorf("max retries (%d) exceeded: %w", cfg.MaxRetries, lastErr)
		}

		retry := attempt + 1
		delay := backoff.NextDelay(retry)

		if cfg.OnRetry != nil {
			cfg.OnRetry(retry, err, delay)
		}

		if cfg.Logger != nil {
			cfg.Logger.WarnWithFields("retrying operation", map[string]interface{}{
				"retry":       retry,
				"max_retries": cfg.MaxRetries,
				"error":       err.Error(),
				"delay":       delay.String(),
			})
		}

		if werr := Wait(ctx, delay); werr != nil {
			if cfg.Logger != nil {
				cfg.Logger.WarnWithFields("retry cancelled", map[string]interface{}{
					"retry":  retry,
					"reason": werr.Error(),
				})
			}
			return fmt.Errorf("retry cancelled: %w", werr)
		}
	}
}
