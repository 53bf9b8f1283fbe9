// Package api serves the selector's health and status over HTTP, and
// streams its lifecycle events when a broker is attached.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/xraph/forge"

	"github.com/xraph/duostore"
	"github.com/xraph/duostore/stream"
)

// Reporter is the read side of the selector. *selector.Selector
// satisfies it.
type Reporter interface {
	GetStatus() duostore.Status
	HealthCheck(ctx context.Context) duostore.HealthReport
}

// API wires the HTTP handlers to a Reporter.
type API struct {
	reporter Reporter
	logger   *slog.Logger
	broker   *stream.Broker
	router   forge.Router
}

// Option configures an API.
type Option func(*API)

// WithBroker serves the broker's events on GET /events as server-sent
// events and on GET /events/ws over a WebSocket.
func WithBroker(b *stream.Broker) Option {
	return func(a *API) { a.broker = b }
}

// WithRouter registers the JSON routes on an existing forge router
// instead of a fresh one.
func WithRouter(router forge.Router) Option {
	return func(a *API) { a.router = router }
}

// New creates an API. A nil logger means slog.Default().
func New(reporter Reporter, logger *slog.Logger, opts ...Option) *API {
	if logger == nil {
		logger = slog.Default()
	}
	a := &API{reporter: reporter, logger: logger}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewRouter returns a router serving every route of the API.
func NewRouter(reporter Reporter) *mux.Router {
	return New(reporter, nil).Router()
}

// Router returns the root router. The JSON routes are served by forge
// behind it; the event streams need the raw connection and are routed
// directly. Call it once per API.
func (a *API) Router() *mux.Router {
	if a.router == nil {
		a.router = forge.NewRouter()
	}
	a.RegisterRoutes(a.router)
	jsonAPI := noStore(a.router.Handler())

	r := mux.NewRouter()
	r.Handle("/health", jsonAPI).Methods(http.MethodGet).Name("health")
	r.Handle("/status", jsonAPI).Methods(http.MethodGet).Name("status")
	if a.broker != nil {
		r.HandleFunc("/events", a.events).Methods(http.MethodGet).Name("events")
		r.HandleFunc("/events/ws", a.eventsWS).Methods(http.MethodGet).Name("events-ws")
	}
	return r
}

// Handler returns the fully assembled http.Handler.
func (a *API) Handler() http.Handler {
	return a.Router()
}

// RegisterRoutes registers the JSON routes on a forge router with their
// OpenAPI metadata.
func (a *API) RegisterRoutes(router forge.Router) {
	_ = router.GET("/health", a.health,
		forge.WithSummary("Health check"),
		forge.WithDescription("Probes the active store. Unhealthy reports are served with 503."),
		forge.WithOperationID("health"),
		forge.WithResponseSchema(http.StatusOK, "Active store is healthy", duostore.HealthReport{}),
		forge.WithResponseSchema(http.StatusServiceUnavailable, "Active store is unhealthy", duostore.HealthReport{}),
	)

	_ = router.GET("/status", a.status,
		forge.WithSummary("Routing status"),
		forge.WithDescription("Returns the selector mode, lifecycle state and connections without probing."),
		forge.WithOperationID("status"),
		forge.WithResponseSchema(http.StatusOK, "Selector status", duostore.Status{}),
	)
}

// noStore keeps health and status responses out of caches.
func noStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
