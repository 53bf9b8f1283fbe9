// Package ext defines the extension system for duostore.
//
// Extensions are notified of backend lifecycle events and can react to
// them: recording metrics, paging an operator, writing audit logs.
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
//
// # Implementing an Extension
//
//	type Pager struct{}
//
//	func (p *Pager) Name() string { return "pager" }
//
//	func (p *Pager) OnFallbackActivated(ctx context.Context, reason string) error {
//	    return page(ctx, "storefront failed over: "+reason)
//	}
//
// # Backend Hooks
//
//   - [BackendConnected]: a pool client established its connection
//   - [BackendDisconnected]: a pool client lost or closed its connection
//   - [BackendReconnected]: the driver restored a lost connection
//   - [BackendError]: a pool client reported an error
//
// # Selector Hooks
//
//   - [Initialized]: the selector finished startup
//   - [FallbackActivated]: the selector switched to the document store
//   - [OperationFailed]: a primary or fallback operation failed
//   - [HealthChecked]: a health probe completed
//   - [Shutdown]: the selector is shutting down
//
// The [Registry] fans out each event to all registered extensions that
// implement the corresponding hook interface.
package ext
