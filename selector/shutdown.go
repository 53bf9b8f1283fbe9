package selector

import (
	"context"
	"log/slog"

	"github.com/xraph/duostore"
)

// Shutdown closes every store that was attempted and the cache. It is
// idempotent; close errors are logged, not returned, so shutdown always
// completes.
func (s *Selector) Shutdown(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	var prev snapshot
	s.update(func(sn *snapshot) {
		prev = *sn
		sn.state = duostore.StateShutdown
	})
	if prev.state == duostore.StateShutdown {
		return nil
	}

	s.logger.Info("selector shutting down", slog.String("mode", string(prev.mode)))
	s.extensions.EmitShutdown(ctx)

	if prev.relational.Attempted && s.rel != nil {
		if err := s.rel.Close(); err != nil {
			s.logger.Warn("close relational store", slog.String("error", err.Error()))
		}
	}
	if prev.document.Attempted {
		if err := s.doc.Disconnect(ctx); err != nil {
			s.logger.Warn("disconnect document store", slog.String("error", err.Error()))
		}
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Warn("close cache", slog.String("error", err.Error()))
		}
	}

	s.update(func(sn *snapshot) {
		sn.relational.Connected = false
		sn.document.Connected = false
	})
	return nil
}
