package selector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/duostore"
	"github.com/xraph/duostore/document"
)

// GetStatus returns the current routing view. It never blocks and performs
// no I/O beyond reading the document driver's readiness flag.
func (s *Selector) GetStatus() duostore.Status {
	snap := s.snap.Load()
	status := duostore.Status{
		Mode:           snap.mode,
		FallbackActive: snap.fallback.Activated,
		Connections:    s.connections(snap),
		State:          snap.state,
	}
	if snap.state == duostore.StateRelationalActive || snap.state == duostore.StateDocumentActive {
		status.ActiveService = string(snap.mode.Backend())
	}
	return status
}

// Fallback returns the recorded fallback transition.
func (s *Selector) Fallback() duostore.FallbackState {
	return s.snap.Load().fallback
}

// Connection returns the tracked state of one store.
func (s *Selector) Connection(b duostore.Backend) duostore.ConnectionState {
	snap := s.snap.Load()
	return *connectionOf(snap, b)
}

func (s *Selector) connections(snap *snapshot) duostore.Connections {
	return duostore.Connections{
		Relational: snap.relational.Connected,
		Document:   snap.document.Connected && s.doc.Readiness() == document.Connected,
	}
}

// HealthCheck probes the active store, bounded by HealthTimeout even if the
// driver ignores cancellation.
func (s *Selector) HealthCheck(ctx context.Context) duostore.HealthReport {
	snap := s.snap.Load()
	report := duostore.HealthReport{
		Database:    snap.mode.Backend(),
		Fallback:    snap.fallback.Activated,
		Connections: s.connections(snap),
		Timestamp:   time.Now().UTC(),
	}

	switch snap.state {
	case duostore.StateUninitialized:
		report.Error = duostore.ErrNotReady.Error()
	case duostore.StateShutdown:
		report.Error = "shut down"
	default:
		if err := s.probe(ctx, snap.mode.Backend()); err != nil {
			report.Error = err.Error()
		} else {
			report.Healthy = true
		}
	}

	if report.Healthy {
		s.logger.Debug("health check passed", slog.String("database", string(report.Database)))
	} else {
		s.logger.Warn("health check failed",
			slog.String("database", string(report.Database)),
			slog.String("error", report.Error),
		)
	}
	s.extensions.EmitHealthChecked(ctx, report)
	return report
}

var errProbeTimeout = errors.New("liveness probe timed out")

// probe pings one store within HealthTimeout.
func (s *Selector) probe(ctx context.Context, b duostore.Backend) error {
	ping := s.doc.Ping
	if b == duostore.BackendRelational {
		if s.rel == nil {
			return duostore.ErrNotConnected
		}
		ping = s.rel.Ping
	}

	pctx, cancel := context.WithTimeout(ctx, s.cfg.HealthTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- ping(pctx) }()

	select {
	case err := <-done:
		return err
	case <-pctx.Done():
		return fmt.Errorf("%s: %w: %w", b, errProbeTimeout, pctx.Err())
	}
}
