package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/duostore"
	"github.com/xraph/duostore/ext"
)

// Compile-time interface checks.
var (
	_ ext.Extension           = (*Extension)(nil)
	_ ext.BackendConnected    = (*Extension)(nil)
	_ ext.BackendDisconnected = (*Extension)(nil)
	_ ext.BackendReconnected  = (*Extension)(nil)
	_ ext.BackendError        = (*Extension)(nil)
	_ ext.Initialized         = (*Extension)(nil)
	_ ext.FallbackActivated   = (*Extension)(nil)
	_ ext.OperationFailed     = (*Extension)(nil)
	_ ext.HealthChecked       = (*Extension)(nil)
	_ ext.Shutdown            = (*Extension)(nil)
)

// Recorder is the interface audit backends implement.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is one audit record.
type AuditEvent struct {
	// What happened
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	// Details
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// SlogRecorder writes audit events as structured log records.
func SlogRecorder(logger *slog.Logger) Recorder {
	return RecorderFunc(func(ctx context.Context, evt *AuditEvent) error {
		level := slog.LevelInfo
		switch evt.Severity {
		case SeverityWarning:
			level = slog.LevelWarn
		case SeverityCritical:
			level = slog.LevelError
		}
		attrs := []slog.Attr{
			slog.String("action", evt.Action),
			slog.String("resource", evt.Resource),
			slog.String("resource_id", evt.ResourceID),
			slog.String("outcome", evt.Outcome),
		}
		if evt.Reason != "" {
			attrs = append(attrs, slog.String("reason", evt.Reason))
		}
		if len(evt.Metadata) > 0 {
			attrs = append(attrs, slog.Any("metadata", evt.Metadata))
		}
		logger.LogAttrs(ctx, level, "audit", attrs...)
		return nil
	})
}

// Severity constants.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome constants.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Extension bridges lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through r.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements ext.Extension.
func (e *Extension) Name() string { return "audit-hook" }

// ── Backend lifecycle hooks ─────────────────────────

// OnBackendConnected implements ext.BackendConnected.
func (e *Extension) OnBackendConnected(ctx context.Context, backend duostore.Backend) error {
	return e.record(ctx, ActionBackendConnected, SeverityInfo, OutcomeSuccess,
		ResourceBackend, string(backend), CategoryBackend, nil,
	)
}

// OnBackendDisconnected implements ext.BackendDisconnected. A nil err is a
// graceful close.
func (e *Extension) OnBackendDisconnected(ctx context.Context, backend duostore.Backend, err error) error {
	severity, outcome := SeverityInfo, OutcomeSuccess
	if err != nil {
		severity, outcome = SeverityWarning, OutcomeFailure
	}
	return e.record(ctx, ActionBackendDisconnected, severity, outcome,
		ResourceBackend, string(backend), CategoryBackend, err,
	)
}

// OnBackendReconnected implements ext.BackendReconnected.
func (e *Extension) OnBackendReconnected(ctx context.Context, backend duostore.Backend) error {
	return e.record(ctx, ActionBackendReconnected, SeverityInfo, OutcomeSuccess,
		ResourceBackend, string(backend), CategoryBackend, nil,
	)
}

// OnBackendError implements ext.BackendError.
func (e *Extension) OnBackendError(ctx context.Context, backend duostore.Backend, err error) error {
	return e.record(ctx, ActionBackendError, SeverityWarning, OutcomeFailure,
		ResourceBackend, string(backend), CategoryBackend, err,
	)
}

// ── Selector hooks ──────────────────────────────────

// OnInitialized implements ext.Initialized.
func (e *Extension) OnInitialized(ctx context.Context, status duostore.Status) error {
	return e.record(ctx, ActionInitialized, SeverityInfo, OutcomeSuccess,
		ResourceSelector, string(status.Mode), CategorySelector, nil,
		"active_service", status.ActiveService,
		"fallback", status.FallbackActive,
	)
}

// OnFallbackActivated implements ext.FallbackActivated.
func (e *Extension) OnFallbackActivated(ctx context.Context, reason string) error {
	return e.record(ctx, ActionFallbackActivated, SeverityCritical, OutcomeFailure,
		ResourceSelector, string(duostore.ModeDocument), CategorySelector, nil,
		"reason", reason,
	)
}

// OnOperationFailed implements ext.OperationFailed.
func (e *Extension) OnOperationFailed(ctx context.Context, op *duostore.Operation, err error) error {
	return e.record(ctx, ActionOperationFailed, SeverityCritical, OutcomeFailure,
		ResourceOperation, op.Context, CategoryOperation, err,
		"backend", string(op.Backend),
		"role", string(op.Role),
	)
}

// OnHealthChecked implements ext.HealthChecked. Only unhealthy reports are
// recorded.
func (e *Extension) OnHealthChecked(ctx context.Context, report duostore.HealthReport) error {
	if report.Healthy {
		return nil
	}
	return e.record(ctx, ActionHealthFailed, SeverityWarning, OutcomeFailure,
		ResourceBackend, string(report.Database), CategoryBackend, nil,
		"error", report.Error,
		"fallback", report.Fallback,
	)
}

// OnShutdown implements ext.Shutdown.
func (e *Extension) OnShutdown(ctx context.Context) error {
	return e.record(ctx, ActionShutdown, SeverityInfo, OutcomeSuccess,
		ResourceSelector, "", CategorySelector, nil,
	)
}

// ── Internal helpers ────────────────────────────────

// record builds and sends an audit event if the action is enabled.
// The kvPairs argument is a list of key-value pairs added to Metadata.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
