package retry

import (
	"context"
	"time"
)

// BackoffStrategy defines how long to wait before each retry
type BackoffStrategy interface {
	// NextDelay returns the delay before the n-th retry (1-based)
	NextDelay(retry int) time.Duration
	// Reset resets the backoff strategy to its initial state
	Reset()
}

// CubicBackoff grows the delay with the cube of the retry number:
// the n-th retry waits BaseDelay * n^3. With the default 30s base the
// first three retries wait 30s, 240s and 810s, which matches how fast
// Reddit expects clients to back off after a 429.
type CubicBackoff struct {
	// BaseDelay is the delay of the first retry
	BaseDelay time.Duration
	// MaxDelay caps the delay when positive
	MaxDelay time.Duration
}

// DefaultCubicBackoff returns the backoff used against Reddit
func DefaultCubicBackoff() *CubicBackoff {
	return &CubicBackoff{
		BaseDelay: 30 * time.Second,
	}
}

// NextDelay returns BaseDelay * retry^3, capped at MaxDelay when set
func (cb *CubicBackoff) NextDelay(retry int) time.Duration {
	if retry <= 0 {
		return 0
	}
	n := time.Duration(retry)
	delay := cb.BaseDelay * n * n * n
	if cb.MaxDelay > 0 && delay > cb.MaxDelay {
		delay = cb.MaxDelay
	}
	return delay
}

// Reset resets the backoff (no state to clear)
func (cb *CubicBackoff) Reset() {}

// ConstantBackoff waits the same delay before every retry
type ConstantBackoff struct {
	Delay time.Duration
}

// NextDelay returns the constant delay
func (cb *ConstantBackoff) NextDelay(retry int) time.Duration {
	if retry <= 0 {
		return 0
	}
	return cb.Delay
}

// Reset resets the backoff (no-op for constant backoff)
func (cb *ConstantBackoff) Reset() {}

// Wait sleeps for the given delay or until the context is cancelled
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
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
