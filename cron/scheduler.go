package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"
)

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithTickInterval sets how often the scheduler checks for due entries.
func WithTickInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.tickInterval = d }
}

// WithTaskTimeout bounds each task run.
func WithTaskTimeout(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.taskTimeout = d }
}

// cronParser supports standard 5-field cron and descriptors like "@every 30s".
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

// ParseSchedule parses a cron expression and returns the schedule.
func ParseSchedule(expr string) (cronlib.Schedule, error) {
	return cronParser.Parse(expr)
}

// Scheduler fires registered tasks on a tick loop.
type Scheduler struct {
	logger *slog.Logger

	tickInterval time.Duration
	taskTimeout  time.Duration

	mu      sync.Mutex
	entries map[string]*Entry
	started bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a Scheduler. A nil logger means slog.Default().
func NewScheduler(logger *slog.Logger, opts ...SchedulerOption) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		logger:       logger,
		tickInterval: 1 * time.Second,
		taskTimeout:  30 * time.Second,
		entries:      make(map[string]*Entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a task. Names are unique.
func (s *Scheduler) Register(name, schedule string, fn TaskFunc) error {
	sched, err := ParseSchedule(schedule)
	if err != nil {
		return fmt.Errorf("cron: parse schedule %q for %s: %w", schedule, name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[name]; ok {
		return fmt.Errorf("cron: task %q already registered", name)
	}
	s.entries[name] = &Entry{
		Name:      name,
		Schedule:  schedule,
		NextRunAt: sched.Next(time.Now().UTC()),
		fn:        fn,
		sched:     sched,
	}
	return nil
}

// Entries returns a copy of every entry, ordered by name.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Start launches the tick loop. Task contexts derive from ctx without its
// cancellation; Stop ends them.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("cron: scheduler already started")
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))

	s.wg.Add(1)
	go s.tickLoop()
	s.logger.Info("cron scheduler started",
		slog.Int("tasks", len(s.entries)),
		slog.Duration("tick_interval", s.tickInterval),
	)
	return nil
}

// Stop cancels running tasks and waits for them to return.
func (s *Scheduler) Stop(_ context.Context) error {
	s.mu.Lock()
	if !s.started || s.cancel == nil {
		s.mu.Unlock()
		return nil
	}
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.logger.Info("cron scheduler stopped")
	return nil
}

// tickLoop fires on each tick interval and processes due entries.
func (s *Scheduler) tickLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.tick(time.Now().UTC())
		}
	}
}

func (s *Scheduler) tick(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.NextRunAt.After(now) {
			continue
		}
		e.NextRunAt = e.sched.Next(now)
		if e.inFlight {
			e.Skipped++
			s.logger.Debug("cron task still running, skipping",
				slog.String("task", e.Name),
			)
			continue
		}
		e.inFlight = true
		s.wg.Add(1)
		go s.fire(e, now)
	}
}

func (s *Scheduler) fire(e *Entry, now time.Time) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(s.ctx, s.taskTimeout)
	defer cancel()

	start := time.Now()
	err := s.run(ctx, e.fn)
	elapsed := time.Since(start)

	s.mu.Lock()
	e.inFlight = false
	e.Runs++
	e.LastRunAt = &now
	e.LastError = ""
	if err != nil {
		e.LastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("cron task failed",
			slog.String("task", e.Name),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.Debug("cron task completed",
		slog.String("task", e.Name),
		slog.Duration("elapsed", elapsed),
	)
}

func (s *Scheduler) run(ctx context.Context, fn TaskFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}
