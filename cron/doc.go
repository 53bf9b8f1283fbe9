// Package cron runs periodic maintenance tasks on cron schedules.
//
// The serve command uses it to probe the active store on a schedule, so
// health metrics and hooks keep flowing even when nothing polls /health.
// Schedules use the standard 5-field syntax or descriptors such as
// "@every 30s".
//
//	s := cron.NewScheduler(logger)
//	_ = s.Register("health", "@every 30s", func(ctx context.Context) error {
//	    if r := sel.HealthCheck(ctx); !r.Healthy {
//	        return errors.New(r.Error)
//	    }
//	    return nil
//	})
//	_ = s.Start(ctx)
//	defer s.Stop(ctx)
//
// A task never overlaps with itself: a run that is still in flight when
// the task comes due again causes that firing to be skipped.
package cron
