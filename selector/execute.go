package selector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/xraph/duostore"
)

// Op is one half of an Execute call.
type Op func(ctx context.Context) error

// Execute runs primary against the relational store and falls back to the
// document store when it fails.
//
// In document mode primary is never invoked: fallback runs directly, and a
// nil fallback yields duostore.ErrNoBackendAvailable. In relational mode a
// primary failure lazily connects the document store (concurrent callers
// share one attempt), activates the fallback and runs fallback. If both
// fail the result is a *duostore.FallbackError.
//
// Catalog results such as duostore.ErrProductNotFound and failures caused
// by the caller's own context ending are returned as-is without failing
// over. opContext labels the call in logs, metrics and errors.
func (s *Selector) Execute(ctx context.Context, primary, fallback Op, opContext string) error {
	snap := s.snap.Load()
	switch snap.state {
	case duostore.StateUninitialized:
		return duostore.ErrNotReady
	case duostore.StateShutdown:
		return duostore.ErrShutdown
	}

	if snap.mode == duostore.ModeDocument {
		if fallback == nil {
			return fmt.Errorf("%s: %w", opContext, duostore.ErrNoBackendAvailable)
		}
		return s.run(ctx, opContext, duostore.BackendDocument, duostore.RoleFallback, fallback)
	}

	var primaryErr error
	if primary != nil && snap.relational.Connected {
		primaryErr = s.run(ctx, opContext, duostore.BackendRelational, duostore.RolePrimary, primary)
		if primaryErr == nil {
			return nil
		}
		if !failsOver(ctx, primaryErr) {
			return primaryErr
		}
	} else {
		primaryErr = duostore.ErrNotConnected
		if primary == nil {
			primaryErr = fmt.Errorf("no primary operation: %w", duostore.ErrNoBackendAvailable)
		}
	}

	if fallback == nil {
		return primaryErr
	}

	if err := s.activateFallback(ctx, primaryErr); err != nil {
		return &duostore.FallbackError{Context: opContext, Primary: primaryErr, Fallback: err}
	}
	if err := s.run(ctx, opContext, duostore.BackendDocument, duostore.RoleFallback, fallback); err != nil {
		return &duostore.FallbackError{Context: opContext, Primary: primaryErr, Fallback: err}
	}
	return nil
}

// Do is Execute for operations that produce a value.
func Do[T any](ctx context.Context, s *Selector, opContext string, primary, fallback func(ctx context.Context) (T, error)) (T, error) {
	var out T
	wrap := func(fn func(ctx context.Context) (T, error)) Op {
		if fn == nil {
			return nil
		}
		return func(ctx context.Context) error {
			v, err := fn(ctx)
			if err != nil {
				return err
			}
			out = v
			return nil
		}
	}
	err := s.Execute(ctx, wrap(primary), wrap(fallback), opContext)
	return out, err
}

// failsOver reports whether a primary failure should move traffic to the
// document store.
func failsOver(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	switch {
	case errors.Is(err, duostore.ErrProductNotFound),
		errors.Is(err, duostore.ErrCategoryNotFound),
		errors.Is(err, duostore.ErrDuplicateSlug),
		errors.Is(err, duostore.ErrRateLimited):
		return false
	}
	return true
}

// run executes fn through the middleware chain.
func (s *Selector) run(ctx context.Context, opContext string, backend duostore.Backend, role duostore.Role, fn Op) error {
	op := &duostore.Operation{
		Context: opContext,
		Backend: backend,
		Role:    role,
		Timeout: s.cfg.OperationTimeout,
	}
	err := s.chain(ctx, op, func(ctx context.Context) error {
		return fn(ctx)
	})
	if err != nil {
		s.extensions.EmitOperationFailed(ctx, op, err)
	}
	return err
}

// activateFallback connects the document store if needed, migrates its
// catalog and switches the selector to document mode. Concurrent callers share a single connect
// attempt and the transition is recorded once.
func (s *Selector) activateFallback(ctx context.Context, cause error) error {
	_, err, _ := s.fallback.Do("fallback", func() (any, error) {
		snap := s.snap.Load()
		if snap.state == duostore.StateShutdown {
			return nil, duostore.ErrShutdown
		}
		if snap.mode == duostore.ModeDocument {
			return nil, nil
		}

		// The attempt is shared, so one caller's cancellation must not
		// abort it for the rest.
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ConnectTimeout)
		defer cancel()

		if !snap.document.Connected {
			// Claiming the attempt and checking for shutdown happen in one
			// swap so Shutdown always sees a store it has to close.
			claimed := s.update(func(sn *snapshot) {
				if sn.state != duostore.StateShutdown {
					sn.document.Attempted = true
				}
			})
			if claimed.state == duostore.StateShutdown {
				return nil, duostore.ErrShutdown
			}
			if err := s.doc.Connect(cctx); err != nil {
				s.markFailed(duostore.BackendDocument, err)
				s.logger.Error("fallback connect failed",
					slog.String("cause", cause.Error()),
					slog.String("error", err.Error()),
				)
				return nil, err
			}
			if !s.markConnected(duostore.BackendDocument) {
				// Shutdown ran while the connect was in flight and may have
				// disconnected before the session existed.
				if err := s.doc.Disconnect(cctx); err != nil {
					s.logger.Warn("disconnect document store", slog.String("error", err.Error()))
				}
				return nil, duostore.ErrShutdown
			}
		}

		// Unique indexes must exist before the document catalog takes
		// writes. A failed migration leaves the selector relational so the
		// next failing call retries it on the already connected store.
		if s.docCatalog != nil {
			if err := s.docCatalog.Migrate(cctx); err != nil {
				s.logger.Error("fallback catalog migration failed",
					slog.String("cause", cause.Error()),
					slog.String("error", err.Error()),
				)
				return nil, fmt.Errorf("migrate document catalog: %w", err)
			}
		}

		reason := cause.Error()
		s.flipFallback(reason)
		next := s.update(func(sn *snapshot) {
			if sn.state != duostore.StateShutdown {
				sn.state = duostore.StateDocumentActive
			}
		})
		if next.state == duostore.StateShutdown {
			return nil, duostore.ErrShutdown
		}

		s.logger.Warn("fallback activated", slog.String("reason", reason))
		s.extensions.EmitFallbackActivated(ctx, reason)
		return nil, nil
	})
	return err
}
