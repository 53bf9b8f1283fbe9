package audithook

// Audit event actions. Each constant corresponds to one ext lifecycle hook
// and becomes the Action field of the audit event.
const (
	ActionBackendConnected    = "backend.connected"
	ActionBackendDisconnected = "backend.disconnected"
	ActionBackendReconnected  = "backend.reconnected"
	ActionBackendError        = "backend.error"
	ActionInitialized         = "selector.initialized"
	ActionFallbackActivated   = "selector.fallback_activated"
	ActionOperationFailed     = "operation.failed"
	ActionHealthFailed        = "health.failed"
	ActionShutdown            = "selector.shutdown"
)

// Audit event categories group related actions.
const (
	CategoryBackend   = "duostore.backend"
	CategorySelector  = "duostore.selector"
	CategoryOperation = "duostore.operation"
)

// Resource types used as the Resource field in audit events.
const (
	ResourceBackend   = "backend"
	ResourceSelector  = "selector"
	ResourceOperation = "operation"
)

// AllActions returns every action this extension can emit.
func AllActions() []string {
	return []string{
		ActionBackendConnected,
		ActionBackendDisconnected,
		ActionBackendReconnected,
		ActionBackendError,
		ActionInitialized,
		ActionFallbackActivated,
		ActionOperationFailed,
		ActionHealthFailed,
		ActionShutdown,
	}
}
