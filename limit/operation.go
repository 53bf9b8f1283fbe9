package limit

import (
	"github.com/xraph/duostore"
)

// OperationConfig defines limits for one operation label on one backend.
type OperationConfig struct {
	// Backend is the store the limits apply to.
	Backend duostore.Backend

	// Context is the operation label, e.g. "products.list".
	Context string

	// RateLimit is the sustained operations per second for this label.
	RateLimit float64

	// RateBurst is the burst size for the label's rate limiter.
	RateBurst int

	// MaxConcurrency limits simultaneous operations with this label.
	// Zero means no label-specific concurrency limit.
	MaxConcurrency int
}

func operationKey(backend duostore.Backend, opContext string) string {
	return string(backend) + ":" + opContext
}

// SetOperationConfig configures limits for one operation label on one
// backend. Calling this again for the same pair replaces the previous
// configuration.
func (m *Manager) SetOperationConfig(cfg OperationConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := operationKey(cfg.Backend, cfg.Context)
	existing := m.operations[key]

	g := newGate(cfg.MaxConcurrency, cfg.RateLimit, cfg.RateBurst)
	if existing != nil {
		g.active = existing.active
	}
	m.operations[key] = g
}

// OperationActiveCount returns the number of in-flight operations with
// the given label on backend.
func (m *Manager) OperationActiveCount(backend duostore.Backend, opContext string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g := m.operations[operationKey(backend, opContext)]; g != nil {
		return g.active
	}
	return 0
}
