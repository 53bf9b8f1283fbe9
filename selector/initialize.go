package selector

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/duostore"
	"github.com/xraph/duostore/backoff"
)

// Initialize brings up the configured backend.
//
// In relational mode the relational store gets exactly one attempt bounded
// by ConnectTimeout. On failure the fallback is activated and the document
// store is connected with the startup retry budget. Whichever store ends up
// active must then pass a liveness probe bounded by HealthTimeout.
//
// A fatal failure returns an *InitError wrapping duostore.ErrFatalInit and
// closes every store opened along the way. Calling Initialize again after
// success is a no-op; after a fatal failure it retries, but never returns to
// the relational store once the fallback was activated.
func (s *Selector) Initialize(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	snap := s.snap.Load()
	switch snap.state {
	case duostore.StateShutdown:
		return duostore.ErrShutdown
	case duostore.StateRelationalActive, duostore.StateDocumentActive:
		return nil
	}

	start := time.Now()
	var relErr error

	if snap.mode == duostore.ModeRelational && !snap.fallback.Activated {
		relErr = s.connectRelational(ctx)
		if relErr == nil {
			if err := s.probe(ctx, duostore.BackendRelational); err != nil {
				s.abortInit(ctx)
				return s.fatal(&duostore.InitError{Probe: err})
			}
			return s.activate(ctx, duostore.StateRelationalActive, start)
		}

		s.logger.Warn("relational store unavailable, activating fallback",
			slog.String("error", relErr.Error()),
		)
		s.flipFallback(relErr.Error())
		s.extensions.EmitFallbackActivated(ctx, relErr.Error())
	}

	if err := s.connectDocument(ctx); err != nil {
		s.abortInit(ctx)
		return s.fatal(&duostore.InitError{Relational: relErr, Document: err})
	}
	if err := s.probe(ctx, duostore.BackendDocument); err != nil {
		s.abortInit(ctx)
		return s.fatal(&duostore.InitError{Relational: relErr, Probe: err})
	}
	return s.activate(ctx, duostore.StateDocumentActive, start)
}

// connectRelational makes the single relational connect attempt.
func (s *Selector) connectRelational(ctx context.Context) error {
	s.markAttempted(duostore.BackendRelational)

	cctx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	defer cancel()

	if err := s.rel.Connect(cctx); err != nil {
		s.markFailed(duostore.BackendRelational, err)
		return err
	}
	s.markConnected(duostore.BackendRelational)
	return nil
}

// connectDocument connects the document store within the startup budget.
func (s *Selector) connectDocument(ctx context.Context) error {
	s.markAttempted(duostore.BackendDocument)

	budget := backoff.NewBudget(s.cfg.RetryAttempts, s.strategy)
	err := budget.Retry(ctx, func(ctx context.Context) error {
		cctx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
		defer cancel()
		return s.doc.Connect(cctx)
	}, func(attempt int, err error, delay time.Duration) {
		s.markFailed(duostore.BackendDocument, err)
		s.logger.Warn("document store connect failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", budget.MaxAttempts()),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()),
		)
	})
	if err != nil {
		s.markFailed(duostore.BackendDocument, err)
		return err
	}
	s.markConnected(duostore.BackendDocument)
	return nil
}

// flipFallback records the one-way transition to document mode. The
// lifecycle state is left alone.
func (s *Selector) flipFallback(reason string) {
	at := time.Now().UTC()
	s.update(func(sn *snapshot) {
		sn.mode = duostore.ModeDocument
		if !sn.fallback.Activated {
			sn.fallback = duostore.FallbackState{Activated: true, ActivatedAt: &at, Reason: reason}
		}
	})
}

func (s *Selector) activate(ctx context.Context, state duostore.State, start time.Time) error {
	s.update(func(sn *snapshot) {
		sn.state = state
	})
	status := s.GetStatus()

	s.logger.Info("selector initialized",
		slog.String("mode", string(status.Mode)),
		slog.Bool("fallback", status.FallbackActive),
		slog.Duration("elapsed", time.Since(start)),
	)
	s.extensions.EmitInitialized(ctx, status)
	return nil
}

func (s *Selector) fatal(err *duostore.InitError) error {
	s.logger.Error("selector initialization failed", slog.String("error", err.Error()))
	return err
}

// abortInit closes whatever Initialize opened so no store is left marked
// connected.
func (s *Selector) abortInit(ctx context.Context) {
	snap := s.snap.Load()
	if snap.relational.Attempted && s.rel != nil {
		if err := s.rel.Close(); err != nil {
			s.logger.Warn("close relational store", slog.String("error", err.Error()))
		}
	}
	if snap.document.Attempted {
		if err := s.doc.Disconnect(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("disconnect document store", slog.String("error", err.Error()))
		}
	}
	s.update(func(sn *snapshot) {
		sn.relational.Connected = false
		sn.document.Connected = false
	})
}
