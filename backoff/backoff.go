// Package backoff provides retry delay strategies and a bounded retry
// budget for connection attempts. Strategies are stateless and safe for
// concurrent use; a Budget belongs to a single attempt sequence.
package backoff

import (
	"math/rand/v2"
	"time"
)

// Strategy computes the delay before a retry attempt.
type Strategy interface {
	// Delay returns how long to wait before retry attempt n (1-indexed).
	// Attempt 1 is the first retry after the initial failure.
	Delay(attempt int) time.Duration
}

// StrategyFunc adapts a plain function to Strategy.
type StrategyFunc func(attempt int) time.Duration

// Delay calls f.
func (f StrategyFunc) Delay(attempt int) time.Duration { return f(attempt) }

// ──────────────────────────────────────────────────
// Constant
// ──────────────────────────────────────────────────

// Constant waits the same interval before every attempt.
type Constant struct {
	Interval time.Duration
}

// NewConstant creates a constant backoff strategy. Tests use
// NewConstant(0) to retry without sleeping.
func NewConstant(interval time.Duration) *Constant {
	return &Constant{Interval: interval}
}

// Delay returns the fixed interval.
func (c *Constant) Delay(_ int) time.Duration {
	return c.Interval
}

// ──────────────────────────────────────────────────
// Linear
// ──────────────────────────────────────────────────

// Linear waits Step longer for every attempt, up to Max.
type Linear struct {
	Step time.Duration
	Max  time.Duration
}

// NewLinear creates a linear backoff strategy.
func NewLinear(step, maxDelay time.Duration) *Linear {
	return &Linear{Step: step, Max: maxDelay}
}

// Delay returns Step * attempt, capped at Max.
func (l *Linear) Delay(attempt int) time.Duration {
	attempt = max(attempt, 1)
	if l.Max > 0 && l.Step > 0 && time.Duration(attempt) > l.Max/l.Step {
		return l.Max
	}
	return l.Step * time.Duration(attempt)
}

// ──────────────────────────────────────────────────
// Exponential
// ──────────────────────────────────────────────────

// Exponential doubles the wait for every attempt, starting at Base and
// never exceeding Max. This is the startup connect schedule.
type Exponential struct {
	Base time.Duration
	Max  time.Duration
}

// NewExponential creates an exponential backoff strategy.
func NewExponential(base, maxDelay time.Duration) *Exponential {
	return &Exponential{Base: base, Max: maxDelay}
}

// Delay returns Base * 2^(attempt-1), capped at Max.
func (e *Exponential) Delay(attempt int) time.Duration {
	return doubled(e.Base, e.Max, attempt)
}

// ExponentialWithJitter draws each wait uniformly from
// [0, Exponential delay) so that many processes restarting together do not
// reconnect in lockstep.
type ExponentialWithJitter struct {
	Base time.Duration
	Max  time.Duration
}

// NewExponentialWithJitter creates an exponential backoff with full jitter.
func NewExponentialWithJitter(base, maxDelay time.Duration) *ExponentialWithJitter {
	return &ExponentialWithJitter{Base: base, Max: maxDelay}
}

// Delay returns a random duration in [0, min(Base * 2^(attempt-1), Max)).
func (e *ExponentialWithJitter) Delay(attempt int) time.Duration {
	ceiling := doubled(e.Base, e.Max, attempt)
	if ceiling <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(ceiling))) //nolint:gosec // jitter does not need crypto rand
}

// doubled returns base doubled attempt-1 times, capped at maxDelay when
// it is positive and saturating instead of overflowing otherwise.
func doubled(base, maxDelay time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	limit := maxDelay
	if limit <= 0 {
		limit = time.Duration(1<<63 - 1)
	}
	d := base
	for i := 1; i < attempt; i++ {
		if d > limit/2 {
			return limit
		}
		d *= 2
	}
	return min(d, limit)
}

// DefaultStrategy is the startup connect schedule: 1s, 2s, 4s, 8s, then
// 10s.
func DefaultStrategy() Strategy {
	return NewExponential(1*time.Second, 10*time.Second)
}
