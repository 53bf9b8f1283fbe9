package cron_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/duostore/cron"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestScheduler(t *testing.T) *cron.Scheduler {
	t.Helper()
	s := cron.NewScheduler(quiet, cron.WithTickInterval(10*time.Millisecond))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })
	return s
}

func TestScheduler_FiresOnSchedule(t *testing.T) {
	s := newTestScheduler(t)

	var runs atomic.Int32
	if err := s.Register("health", "@every 1s", func(context.Context) error {
		runs.Add(1)
		return nil
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	time.Sleep(2500 * time.Millisecond)
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if n := runs.Load(); n < 2 {
		t.Errorf("runs = %d, want at least 2", n)
	}
	entries := s.Entries()
	if len(entries) != 1 || entries[0].LastRunAt == nil || entries[0].Runs < 2 {
		t.Errorf("entries = %+v", entries)
	}
}

func TestScheduler_RecordsFailures(t *testing.T) {
	s := newTestScheduler(t)

	_ = s.Register("boom", "@every 1s", func(context.Context) error {
		return errors.New("store unhealthy")
	})
	_ = s.Register("panics", "@every 1s", func(context.Context) error {
		panic("kaboom")
	})
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(1500 * time.Millisecond)
	_ = s.Stop(context.Background())

	for _, e := range s.Entries() {
		if e.Runs == 0 || e.LastError == "" {
			t.Errorf("entry %s = %+v, want a recorded failure", e.Name, e)
		}
	}
}

func TestScheduler_NoOverlap(t *testing.T) {
	s := newTestScheduler(t)

	var running, peak atomic.Int32
	_ = s.Register("slow", "@every 1s", func(ctx context.Context) error {
		n := running.Add(1)
		defer running.Add(-1)
		if n > peak.Load() {
			peak.Store(n)
		}
		select {
		case <-time.After(1500 * time.Millisecond):
		case <-ctx.Done():
		}
		return nil
	})
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(3500 * time.Millisecond)
	_ = s.Stop(context.Background())

	if p := peak.Load(); p != 1 {
		t.Errorf("peak concurrency = %d, want 1", p)
	}
	if e := s.Entries()[0]; e.Skipped == 0 {
		t.Errorf("entry = %+v, want skipped firings", e)
	}
}

func TestScheduler_StopCancelsTasks(t *testing.T) {
	s := newTestScheduler(t)

	started := make(chan struct{}, 1)
	_ = s.Register("blocks", "@every 1s", func(ctx context.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		return ctx.Err()
	})
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("task never started")
	}

	done := make(chan struct{})
	go func() {
		_ = s.Stop(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestScheduler_Register(t *testing.T) {
	s := newTestScheduler(t)
	noop := func(context.Context) error { return nil }

	if err := s.Register("a", "not-a-cron", noop); err == nil {
		t.Error("expected error for invalid schedule")
	}
	if err := s.Register("a", "@every 1m", noop); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := s.Register("a", "@every 1m", noop); err == nil {
		t.Error("expected error for duplicate name")
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(context.Background()); err == nil {
		t.Error("expected error for second Start")
	}
}

func TestParseSchedule(t *testing.T) {
	now := time.Now().UTC()

	sched, err := cron.ParseSchedule("@every 30s")
	if err != nil {
		t.Fatalf("ParseSchedule(@every 30s): %v", err)
	}
	if next := sched.Next(now); !next.After(now) {
		t.Errorf("Next(%v) = %v, expected future time", now, next)
	}

	sched, err = cron.ParseSchedule("*/5 * * * *")
	if err != nil {
		t.Fatalf("ParseSchedule(*/5 * * * *): %v", err)
	}
	if next := sched.Next(now); !next.After(now) {
		t.Errorf("Next(%v) = %v, expected future time", now, next)
	}

	if _, err := cron.ParseSchedule("not-a-cron"); err == nil {
		t.Error("expected error for invalid cron expression")
	}
}
