package ext

import (
	"context"

	"github.com/xraph/duostore"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Backend lifecycle hooks
// ──────────────────────────────────────────────────

// BackendConnected is called after a pool client connects.
type BackendConnected interface {
	OnBackendConnected(ctx context.Context, backend duostore.Backend) error
}

// BackendDisconnected is called when a pool client disconnects. err is nil
// for a graceful close.
type BackendDisconnected interface {
	OnBackendDisconnected(ctx context.Context, backend duostore.Backend, err error) error
}

// BackendReconnected is called when a lost connection comes back.
type BackendReconnected interface {
	OnBackendReconnected(ctx context.Context, backend duostore.Backend) error
}

// BackendError is called when a pool client reports an error.
type BackendError interface {
	OnBackendError(ctx context.Context, backend duostore.Backend, err error) error
}

// ──────────────────────────────────────────────────
// Selector hooks
// ──────────────────────────────────────────────────

// Initialized is called once the selector has an active backend.
type Initialized interface {
	OnInitialized(ctx context.Context, status duostore.Status) error
}

// FallbackActivated is called exactly once, when the selector switches
// from the relational store to the document store.
type FallbackActivated interface {
	OnFallbackActivated(ctx context.Context, reason string) error
}

// OperationFailed is called when a primary or fallback operation fails.
type OperationFailed interface {
	OnOperationFailed(ctx context.Context, op *duostore.Operation, err error) error
}

// HealthChecked is called after every health probe.
type HealthChecked interface {
	OnHealthChecked(ctx context.Context, report duostore.HealthReport) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
