package ext

import (
	"context"
	"log/slog"

	"github.com/xraph/duostore"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time.
type backendConnectedEntry struct {
	name string
	hook BackendConnected
}

type backendDisconnectedEntry struct {
	name string
	hook BackendDisconnected
}

type backendReconnectedEntry struct {
	name string
	hook BackendReconnected
}

type backendErrorEntry struct {
	name string
	hook BackendError
}

type initializedEntry struct {
	name string
	hook Initialized
}

type fallbackActivatedEntry struct {
	name string
	hook FallbackActivated
}

type operationFailedEntry struct {
	name string
	hook OperationFailed
}

type healthCheckedEntry struct {
	name string
	hook HealthChecked
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
//
// Register must complete before any Emit call; emits may run concurrently.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	backendConnected    []backendConnectedEntry
	backendDisconnected []backendDisconnectedEntry
	backendReconnected  []backendReconnectedEntry
	backendError        []backendErrorEntry
	initialized         []initializedEntry
	fallbackActivated   []fallbackActivatedEntry
	operationFailed     []operationFailedEntry
	healthChecked       []healthCheckedEntry
	shutdown            []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(BackendConnected); ok {
		r.backendConnected = append(r.backendConnected, backendConnectedEntry{name, h})
	}
	if h, ok := e.(BackendDisconnected); ok {
		r.backendDisconnected = append(r.backendDisconnected, backendDisconnectedEntry{name, h})
	}
	if h, ok := e.(BackendReconnected); ok {
		r.backendReconnected = append(r.backendReconnected, backendReconnectedEntry{name, h})
	}
	if h, ok := e.(BackendError); ok {
		r.backendError = append(r.backendError, backendErrorEntry{name, h})
	}
	if h, ok := e.(Initialized); ok {
		r.initialized = append(r.initialized, initializedEntry{name, h})
	}
	if h, ok := e.(FallbackActivated); ok {
		r.fallbackActivated = append(r.fallbackActivated, fallbackActivatedEntry{name, h})
	}
	if h, ok := e.(OperationFailed); ok {
		r.operationFailed = append(r.operationFailed, operationFailedEntry{name, h})
	}
	if h, ok := e.(HealthChecked); ok {
		r.healthChecked = append(r.healthChecked, healthCheckedEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// ──────────────────────────────────────────────────
// Backend event emitters
// ──────────────────────────────────────────────────

// EmitEvent routes a pool client event to the matching backend hook.
func (r *Registry) EmitEvent(ctx context.Context, ev duostore.Event) {
	switch ev.Type {
	case duostore.EventConnected:
		r.EmitBackendConnected(ctx, ev.Backend)
	case duostore.EventDisconnected:
		r.EmitBackendDisconnected(ctx, ev.Backend, ev.Err)
	case duostore.EventReconnected:
		r.EmitBackendReconnected(ctx, ev.Backend)
	case duostore.EventError:
		r.EmitBackendError(ctx, ev.Backend, ev.Err)
	}
}

// EmitBackendConnected notifies all extensions that implement BackendConnected.
func (r *Registry) EmitBackendConnected(ctx context.Context, backend duostore.Backend) {
	for _, e := range r.backendConnected {
		if err := e.hook.OnBackendConnected(ctx, backend); err != nil {
			r.logHookError("OnBackendConnected", e.name, err)
		}
	}
}

// EmitBackendDisconnected notifies all extensions that implement BackendDisconnected.
func (r *Registry) EmitBackendDisconnected(ctx context.Context, backend duostore.Backend, cause error) {
	for _, e := range r.backendDisconnected {
		if err := e.hook.OnBackendDisconnected(ctx, backend, cause); err != nil {
			r.logHookError("OnBackendDisconnected", e.name, err)
		}
	}
}

// EmitBackendReconnected notifies all extensions that implement BackendReconnected.
func (r *Registry) EmitBackendReconnected(ctx context.Context, backend duostore.Backend) {
	for _, e := range r.backendReconnected {
		if err := e.hook.OnBackendReconnected(ctx, backend); err != nil {
			r.logHookError("OnBackendReconnected", e.name, err)
		}
	}
}

// EmitBackendError notifies all extensions that implement BackendError.
func (r *Registry) EmitBackendError(ctx context.Context, backend duostore.Backend, cause error) {
	for _, e := range r.backendError {
		if err := e.hook.OnBackendError(ctx, backend, cause); err != nil {
			r.logHookError("OnBackendError", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Selector event emitters
// ──────────────────────────────────────────────────

// EmitInitialized notifies all extensions that implement Initialized.
func (r *Registry) EmitInitialized(ctx context.Context, status duostore.Status) {
	for _, e := range r.initialized {
		if err := e.hook.OnInitialized(ctx, status); err != nil {
			r.logHookError("OnInitialized", e.name, err)
		}
	}
}

// EmitFallbackActivated notifies all extensions that implement FallbackActivated.
func (r *Registry) EmitFallbackActivated(ctx context.Context, reason string) {
	for _, e := range r.fallbackActivated {
		if err := e.hook.OnFallbackActivated(ctx, reason); err != nil {
			r.logHookError("OnFallbackActivated", e.name, err)
		}
	}
}

// EmitOperationFailed notifies all extensions that implement OperationFailed.
func (r *Registry) EmitOperationFailed(ctx context.Context, op *duostore.Operation, opErr error) {
	for _, e := range r.operationFailed {
		if err := e.hook.OnOperationFailed(ctx, op, opErr); err != nil {
			r.logHookError("OnOperationFailed", e.name, err)
		}
	}
}

// EmitHealthChecked notifies all extensions that implement HealthChecked.
func (r *Registry) EmitHealthChecked(ctx context.Context, report duostore.HealthReport) {
	for _, e := range r.healthChecked {
		if err := e.hook.OnHealthChecked(ctx, report); err != nil {
			r.logHookError("OnHealthChecked", e.name, err)
		}
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Hook errors are never propagated.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
