package backoff

import (
	"context"
	"time"
)

// DefaultMaxAttempts is the attempt limit used when a Budget is built with
// a non-positive maximum.
const DefaultMaxAttempts = 5

// Budget bounds a sequence of attempts. Attempt starts at 1 and only goes
// back to 1 through Reset; a fresh sequence needs an explicit Reset or a
// new Budget.
//
// A Budget is not safe for concurrent use.
type Budget struct {
	attempt     int
	maxAttempts int
	strategy    Strategy
}

// NewBudget returns a Budget allowing maxAttempts attempts with delays from
// strategy. A nil strategy means DefaultStrategy.
func NewBudget(maxAttempts int, strategy Strategy) *Budget {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if strategy == nil {
		strategy = DefaultStrategy()
	}
	return &Budget{attempt: 1, maxAttempts: maxAttempts, strategy: strategy}
}

// Attempt returns the current 1-based attempt number.
func (b *Budget) Attempt() int { return b.attempt }

// MaxAttempts returns the attempt limit.
func (b *Budget) MaxAttempts() int { return b.maxAttempts }

// Remaining reports whether another attempt is allowed after the current one.
func (b *Budget) Remaining() bool { return b.attempt < b.maxAttempts }

// Next advances to the following attempt and returns the delay to wait
// before it. ok is false once the budget is exhausted; the attempt counter
// is left unchanged in that case.
func (b *Budget) Next() (delay time.Duration, ok bool) {
	if !b.Remaining() {
		return 0, false
	}
	delay = b.strategy.Delay(b.attempt)
	b.attempt++
	return delay, true
}

// Reset starts a new attempt sequence.
func (b *Budget) Reset() { b.attempt = 1 }

// Retry calls fn until it succeeds or the budget is exhausted, sleeping
// between attempts. It returns the last error from fn, or the context error
// if ctx ends while waiting. onRetry, when non-nil, is called before each
// wait with the failed attempt number, its error and the delay.
func (b *Budget) Retry(ctx context.Context, fn func(ctx context.Context) error, onRetry func(attempt int, err error, delay time.Duration)) error {
	for {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		failed := b.attempt
		delay, ok := b.Next()
		if !ok {
			return err
		}
		if onRetry != nil {
			onRetry(failed, err, delay)
		}

		if err := Sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
