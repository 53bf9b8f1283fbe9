// Package selector implements the backend state machine.
//
// A Selector owns the decision of which store serves traffic:
//
//	UNINITIALIZED → {RELATIONAL_ACTIVE, DOCUMENT_ACTIVE} → SHUTDOWN
//
// DOCUMENT_ACTIVE is reached directly from configuration or through the
// one-way fallback transition. There is no way back to RELATIONAL_ACTIVE
// within a process lifetime.
//
// State lives in an immutable snapshot behind an atomic pointer. Readers
// (GetStatus, Execute routing) never block; writers serialise on a mutex
// held only for the copy-and-swap, never across I/O.
package selector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/xraph/duostore"
	"github.com/xraph/duostore/backoff"
	"github.com/xraph/duostore/cache"
	"github.com/xraph/duostore/catalog"
	"github.com/xraph/duostore/document"
	"github.com/xraph/duostore/ext"
	mw "github.com/xraph/duostore/middleware"
)

// RelationalPool is the relational pool client as seen by the selector.
// *relational.Client satisfies it.
type RelationalPool interface {
	Connect(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// DocumentPool is the document pool client as seen by the selector.
// *document.Client satisfies it.
type DocumentPool interface {
	Connect(ctx context.Context) error
	Ping(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Readiness() document.Readiness
}

// eventSource is implemented by pool clients that publish lifecycle events.
type eventSource interface {
	SetEventHandler(duostore.EventHandler)
}

// snapshot is the selector state. It is never mutated after publication.
type snapshot struct {
	mode       duostore.Mode
	state      duostore.State
	relational duostore.ConnectionState
	document   duostore.ConnectionState
	fallback   duostore.FallbackState
}

// Option configures a Selector.
type Option func(*Selector)

// WithLogger sets the logger for the selector.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Selector) {
		s.logger = logger
	}
}

// WithCache attaches the cache client handed out by Cache and closed by
// Shutdown.
func WithCache(c *cache.Client) Option {
	return func(s *Selector) {
		s.cache = c
	}
}

// WithCatalog sets the catalog stores bound to each backend.
func WithCatalog(relational, document catalog.Store) Option {
	return func(s *Selector) {
		s.relCatalog = relational
		s.docCatalog = document
	}
}

// WithExtension registers a lifecycle extension.
func WithExtension(e ext.Extension) Option {
	return func(s *Selector) {
		s.pendingExt = append(s.pendingExt, e)
	}
}

// WithMiddleware appends middleware to the chain wrapping every Execute
// attempt.
func WithMiddleware(m mw.Middleware) Option {
	return func(s *Selector) {
		s.mws = append(s.mws, m)
	}
}

// WithStrategy overrides the backoff between startup document connect
// attempts.
func WithStrategy(b backoff.Strategy) Option {
	return func(s *Selector) {
		s.strategy = b
	}
}

// Selector routes operations to the active backend. Construct one per
// process with New and pass it to whatever needs data access.
type Selector struct {
	cfg    Config
	rel    RelationalPool
	doc    DocumentPool
	cache  *cache.Client
	logger *slog.Logger

	relCatalog catalog.Store
	docCatalog catalog.Store

	extensions *ext.Registry
	pendingExt []ext.Extension
	mws        []mw.Middleware
	chain      mw.Middleware
	strategy   backoff.Strategy

	snap atomic.Pointer[snapshot]
	mu   sync.Mutex // serialises snapshot writers

	initMu   sync.Mutex // serialises Initialize and Shutdown
	fallback singleflight.Group
}

// New creates a selector. rel may be nil when cfg.UseRelational is false;
// doc is always required because it is the last line of fallback.
func New(cfg Config, rel RelationalPool, doc DocumentPool, opts ...Option) (*Selector, error) {
	if doc == nil {
		return nil, errors.New("duostore/selector: document pool is required")
	}
	if cfg.UseRelational && rel == nil {
		return nil, errors.New("duostore/selector: relational pool is required in relational mode")
	}

	s := &Selector{
		cfg:    cfg.withDefaults(),
		rel:    rel,
		doc:    doc,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.strategy == nil {
		s.strategy = s.cfg.strategy()
	}

	s.extensions = ext.NewRegistry(s.logger)
	for _, e := range s.pendingExt {
		s.extensions.Register(e)
	}
	s.pendingExt = nil

	// Recover is outermost so panics in user middleware are caught too.
	chain := make([]mw.Middleware, 0, len(s.mws)+2)
	chain = append(chain, mw.Recover(s.logger))
	chain = append(chain, s.mws...)
	chain = append(chain, mw.Timeout(s.logger))
	s.chain = mw.Chain(chain...)

	s.snap.Store(&snapshot{
		mode:  duostore.ModeFromFlag(s.cfg.UseRelational),
		state: duostore.StateUninitialized,
	})

	if src, ok := rel.(eventSource); ok {
		src.SetEventHandler(s.onEvent)
	}
	if src, ok := doc.(eventSource); ok {
		src.SetEventHandler(s.onEvent)
	}

	return s, nil
}

// Extensions returns the extension registry.
func (s *Selector) Extensions() *ext.Registry { return s.extensions }

// Catalog returns the catalog store bound to the active backend. It fails
// with duostore.ErrNotReady until Initialize succeeds and with
// duostore.ErrShutdown once Shutdown has begun. A backend without a store
// from WithCatalog yields duostore.ErrNoBackendAvailable.
//
// The store is resolved per call; holding on to it across a fallback keeps
// the old backend.
func (s *Selector) Catalog() (catalog.Store, error) {
	snap := s.snap.Load()
	switch snap.state {
	case duostore.StateUninitialized:
		return nil, duostore.ErrNotReady
	case duostore.StateShutdown:
		return nil, duostore.ErrShutdown
	}

	store, backend := s.docCatalog, duostore.BackendDocument
	if snap.mode == duostore.ModeRelational {
		store, backend = s.relCatalog, duostore.BackendRelational
	}
	if store == nil {
		return nil, fmt.Errorf("%s catalog: %w", backend, duostore.ErrNoBackendAvailable)
	}
	return store, nil
}

// Products returns the product store of the active backend.
func (s *Selector) Products() (catalog.ProductStore, error) { return s.Catalog() }

// Categories returns the category store of the active backend.
func (s *Selector) Categories() (catalog.CategoryStore, error) { return s.Catalog() }

// Cache returns the configured cache, or a disabled one.
func (s *Selector) Cache() *cache.Client {
	if s.cache == nil {
		return cache.Disabled()
	}
	return s.cache
}

// ──────────────────────────────────────────────────
// State
// ──────────────────────────────────────────────────

// update publishes a modified copy of the current snapshot and returns it.
func (s *Selector) update(fn func(*snapshot)) *snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := *s.snap.Load()
	fn(&next)
	s.snap.Store(&next)
	return &next
}

func connectionOf(sn *snapshot, b duostore.Backend) *duostore.ConnectionState {
	if b == duostore.BackendRelational {
		return &sn.relational
	}
	return &sn.document
}

func (s *Selector) markAttempted(b duostore.Backend) {
	s.update(func(sn *snapshot) {
		connectionOf(sn, b).Attempted = true
	})
}

// markConnected records a successful connect. It reports false, leaving
// the snapshot untouched, once Shutdown has begun.
func (s *Selector) markConnected(b duostore.Backend) bool {
	at := time.Now().UTC()
	next := s.update(func(sn *snapshot) {
		if sn.state == duostore.StateShutdown {
			return
		}
		c := connectionOf(sn, b)
		c.Connected = true
		c.ConnectedAt = &at
		c.LastError = nil
	})
	return next.state != duostore.StateShutdown
}

func (s *Selector) markFailed(b duostore.Backend, err error) {
	at := time.Now().UTC()
	s.update(func(sn *snapshot) {
		c := connectionOf(sn, b)
		c.Connected = false
		c.LastError = duostore.NewErrorInfo(err, at)
	})
}

// onEvent receives pool client events. It may run on driver goroutines.
func (s *Selector) onEvent(ev duostore.Event) {
	attrs := []any{
		slog.String("backend", string(ev.Backend)),
		slog.String("event", string(ev.Type)),
	}
	if ev.Err != nil {
		attrs = append(attrs, slog.String("error", ev.Err.Error()))
	}
	switch ev.Type {
	case duostore.EventError, duostore.EventDisconnected:
		s.logger.Warn("backend event", attrs...)
	default:
		s.logger.Debug("backend event", attrs...)
	}

	if ev.Err != nil && ev.Type == duostore.EventError {
		at := ev.At
		s.update(func(sn *snapshot) {
			connectionOf(sn, ev.Backend).LastError = duostore.NewErrorInfo(ev.Err, at)
		})
	}
	s.extensions.EmitEvent(context.Background(), ev)
}
