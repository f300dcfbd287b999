// Package retry implements the backoff policy applied to rate-limited
// operations.
//
// Only rate-limit failures are retried; everything else fails fast. The
// delay before the n-th retry grows with the cube of n, so with the
// default 30 second base the schedule is 30s, 240s, 810s. MaxRetries
// counts retries rather than attempts: a budget of 2 allows at most 3
// attempts in total.
//
//	cfg := retry.DefaultConfig()
//	cfg.Context = ctx
//	err := retry.Do(func() error {
//		return writer.Write(ctx, item)
//	}, cfg)
package retry
