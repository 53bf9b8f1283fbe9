package backoff_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/duostore/backoff"
)

func TestBudget_StartsAtOne(t *testing.T) {
	b := backoff.NewBudget(3, backoff.NewConstant(time.Millisecond))
	if b.Attempt() != 1 {
		t.Fatalf("Attempt() = %d, want 1", b.Attempt())
	}
	if b.MaxAttempts() != 3 {
		t.Fatalf("MaxAttempts() = %d, want 3", b.MaxAttempts())
	}
}

func TestBudget_NextUntilExhausted(t *testing.T) {
	b := backoff.NewBudget(3, backoff.NewLinear(10*time.Millisecond, time.Second))

	d, ok := b.Next()
	if !ok || d != 10*time.Millisecond || b.Attempt() != 2 {
		t.Fatalf("first Next() = (%v, %v), attempt %d", d, ok, b.Attempt())
	}
	d, ok = b.Next()
	if !ok || d != 20*time.Millisecond || b.Attempt() != 3 {
		t.Fatalf("second Next() = (%v, %v), attempt %d", d, ok, b.Attempt())
	}
	if _, ok = b.Next(); ok {
		t.Fatal("expected budget to be exhausted")
	}
	if b.Attempt() != 3 {
		t.Errorf("exhausted budget moved attempt to %d", b.Attempt())
	}
}

func TestBudget_ResetIsExplicit(t *testing.T) {
	b := backoff.NewBudget(2, backoff.NewConstant(0))
	b.Next()
	if b.Attempt() != 2 {
		t.Fatalf("Attempt() = %d, want 2", b.Attempt())
	}
	b.Reset()
	if b.Attempt() != 1 {
		t.Errorf("after Reset Attempt() = %d, want 1", b.Attempt())
	}
}

func TestBudget_DefaultsForInvalidInput(t *testing.T) {
	b := backoff.NewBudget(0, nil)
	if b.MaxAttempts() != backoff.DefaultMaxAttempts {
		t.Errorf("MaxAttempts() = %d, want %d", b.MaxAttempts(), backoff.DefaultMaxAttempts)
	}
}

func TestBudget_RetryStopsOnSuccess(t *testing.T) {
	b := backoff.NewBudget(5, backoff.NewConstant(time.Millisecond))
	calls := 0
	err := b.Retry(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestBudget_RetryReturnsLastError(t *testing.T) {
	b := backoff.NewBudget(4, backoff.NewConstant(time.Millisecond))
	calls := 0
	var retried []int
	err := b.Retry(context.Background(), func(context.Context) error {
		calls++
		return errors.New("down")
	}, func(attempt int, _ error, _ time.Duration) {
		retried = append(retried, attempt)
	})
	if err == nil || err.Error() != "down" {
		t.Fatalf("err = %v, want down", err)
	}
	if calls != 4 {
		t.Errorf("calls = %d, want 4", calls)
	}
	if len(retried) != 3 || retried[0] != 1 || retried[2] != 3 {
		t.Errorf("retried = %v, want [1 2 3]", retried)
	}
}

func TestBudget_RetryHonoursContext(t *testing.T) {
	b := backoff.NewBudget(5, backoff.NewConstant(time.Hour))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := b.Retry(ctx, func(context.Context) error { return errors.New("down") }, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("Retry ignored context cancellation")
	}
}
