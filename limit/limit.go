package limit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/xraph/duostore"
)

// Config defines the limits of one backend.
type Config struct {
	// Backend is the store the limits apply to.
	Backend duostore.Backend

	// MaxConcurrency limits how many operations may run against the
	// backend at once. Zero means no limit.
	MaxConcurrency int

	// RateLimit is the maximum sustained operations per second. Zero
	// disables rate limiting.
	RateLimit float64

	// RateBurst is the burst size for the token-bucket rate limiter.
	// Defaults to 1 if RateLimit is set but RateBurst is zero.
	RateBurst int
}

// Enabled reports whether c sets any limit.
func (c Config) Enabled() bool {
	return c.MaxConcurrency > 0 || c.RateLimit > 0
}

// gate is the runtime state of one limited backend or operation.
type gate struct {
	limiter        *rate.Limiter
	maxConcurrency int
	active         int
}

func newGate(maxConcurrency int, rateLimit float64, burst int) *gate {
	g := &gate{maxConcurrency: maxConcurrency}
	if rateLimit > 0 {
		if burst <= 0 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rateLimit), burst)
	}
	return g
}

// hasRoom reports whether g would admit an operation at now. Nothing is
// consumed.
func (g *gate) hasRoom(now time.Time) bool {
	if g.maxConcurrency > 0 && g.active >= g.maxConcurrency {
		return false
	}
	return g.limiter == nil || g.limiter.TokensAt(now) >= 1
}

// take spends a rate token and counts the operation as active. Callers
// check hasRoom first under the same lock.
func (g *gate) take(now time.Time) {
	if g.limiter != nil {
		g.limiter.AllowN(now, 1)
	}
	g.active++
}

// Manager enforces per-backend and per-operation limits.
// It is safe for concurrent use.
type Manager struct {
	mu         sync.Mutex
	backends   map[duostore.Backend]*gate
	operations map[string]*gate
}

// NewManager creates a Manager with the given backend configurations.
// Backends not listed here have no limits.
func NewManager(configs ...Config) *Manager {
	m := &Manager{
		backends:   make(map[duostore.Backend]*gate, len(configs)),
		operations: make(map[string]*gate),
	}
	for _, cfg := range configs {
		if cfg.Enabled() {
			m.backends[cfg.Backend] = newGate(cfg.MaxConcurrency, cfg.RateLimit, cfg.RateBurst)
		}
	}
	return m
}

// Acquire checks the limits of backend and of the opContext operation on
// it. If the operation may proceed it increments the active counters and
// returns true. The caller MUST call Release when the operation completes.
func (m *Manager) Acquire(backend duostore.Backend, opContext string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	bg := m.backends[backend]
	var og *gate
	if opContext != "" {
		og = m.operations[operationKey(backend, opContext)]
	}

	// Both gates are checked before either spends a token, so a rejection
	// by one leaves the other untouched.
	if bg != nil && !bg.hasRoom(now) {
		return false
	}
	if og != nil && !og.hasRoom(now) {
		return false
	}

	if bg != nil {
		bg.take(now)
	}
	if og != nil {
		og.take(now)
	}
	return true
}

// Release decrements the active counts of backend and opContext.
func (m *Manager) Release(backend duostore.Backend, opContext string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if bg := m.backends[backend]; bg != nil && bg.active > 0 {
		bg.active--
	}
	if opContext != "" {
		if og := m.operations[operationKey(backend, opContext)]; og != nil && og.active > 0 {
			og.active--
		}
	}
}

// SetConfig dynamically updates (or creates) a backend configuration. A
// config without limits removes them.
func (m *Manager) SetConfig(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.backends[cfg.Backend]
	if !cfg.Enabled() {
		delete(m.backends, cfg.Backend)
		return
	}
	g := newGate(cfg.MaxConcurrency, cfg.RateLimit, cfg.RateBurst)
	if existing != nil {
		g.active = existing.active
	}
	m.backends[cfg.Backend] = g
}

// ActiveCount returns the number of operations in flight on a limited
// backend. Unlimited backends are not tracked and report zero.
func (m *Manager) ActiveCount(backend duostore.Backend) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g := m.backends[backend]; g != nil {
		return g.active
	}
	return 0
}
