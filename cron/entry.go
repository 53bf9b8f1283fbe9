package cron

import (
	"context"
	"time"

	cronlib "github.com/robfig/cron/v3"
)

// TaskFunc is the work performed when an entry fires.
type TaskFunc func(ctx context.Context) error

// Entry is a registered task and its run bookkeeping.
type Entry struct {
	Name      string
	Schedule  string
	NextRunAt time.Time
	LastRunAt *time.Time
	LastError string
	Runs      int
	Skipped   int

	fn       TaskFunc
	sched    cronlib.Schedule
	inFlight bool
}
