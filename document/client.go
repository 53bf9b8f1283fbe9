// Package document owns the shared session to the MongoDB document store.
//
// The driver reconnects on its own; this package mirrors the resulting
// readiness and forwards connect, disconnect, reconnect and error events.
// It never retries a failed Connect and never exits the process.
package document

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/v2/event"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.mongodb.org/mongo-driver/v2/mongo/writeconcern"

	"github.com/xraph/duostore"
)

// Option configures the Client.
type Option func(*Client)

// WithLogger sets the logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithEventHandler registers a handler for lifecycle events.
func WithEventHandler(h duostore.EventHandler) Option {
	return func(c *Client) {
		c.onEvent.Store(&h)
	}
}

// Client is the document store client. It is safe for concurrent use.
type Client struct {
	cfg     Config
	logger  *slog.Logger
	onEvent atomic.Pointer[duostore.EventHandler]

	lifecycle sync.Mutex
	client    atomic.Pointer[mongo.Client]
	state     atomic.Int32
}

// New creates a client. No connection is made until Connect.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetEventHandler replaces the event handler.
func (c *Client) SetEventHandler(h duostore.EventHandler) {
	c.onEvent.Store(&h)
}

// Config returns the client configuration.
func (c *Client) Config() Config { return c.cfg }

// Readiness returns the current connection state.
func (c *Client) Readiness() Readiness {
	return Readiness(c.state.Load())
}

// Connect establishes the session and verifies it with a primary ping
// bounded by the server selection timeout. Connect is a no-op while
// connected.
func (c *Client) Connect(ctx context.Context) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.client.Load() != nil {
		return nil
	}
	if err := c.cfg.Validate(); err != nil {
		return c.fail("connect", duostore.ErrConnectionFailed, err)
	}

	c.setState(Connecting)

	opts := options.Client().
		ApplyURI(c.cfg.URI).
		SetServerSelectionTimeout(c.cfg.ServerSelectionTimeout).
		SetConnectTimeout(c.cfg.ConnectTimeout).
		SetTimeout(c.cfg.SocketTimeout).
		SetMinPoolSize(c.cfg.MinPoolSize).
		SetMaxPoolSize(c.cfg.MaxPoolSize).
		SetWriteConcern(writeconcern.Majority()).
		SetRetryWrites(true).
		SetServerMonitor(c.serverMonitor()).
		SetPoolMonitor(c.poolMonitor())
	if len(c.cfg.Compressors) > 0 {
		opts.SetCompressors(c.cfg.Compressors)
	}

	mc, err := mongo.Connect(opts)
	if err != nil {
		c.setState(Disconnected)
		return c.fail("connect", duostore.ErrConnectionFailed, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, c.cfg.ServerSelectionTimeout)
	defer cancel()

	if err := mc.Ping(pingCtx, readpref.Primary()); err != nil {
		discCtx, discCancel := context.WithTimeout(context.Background(), c.cfg.ConnectTimeout)
		_ = mc.Disconnect(discCtx)
		discCancel()
		c.setState(Disconnected)
		return c.fail("connect", duostore.ErrConnectionFailed, err)
	}

	c.client.Store(mc)
	c.setState(Connected)
	c.logger.Info("document store connected",
		slog.String("database", c.cfg.Database),
		slog.Uint64("max_pool", c.cfg.MaxPoolSize),
	)
	c.emit(duostore.EventConnected, nil)
	return nil
}

// Ping runs a primary ping as the liveness probe.
func (c *Client) Ping(ctx context.Context) error {
	mc := c.client.Load()
	if mc == nil {
		return duostore.NewStoreError(duostore.BackendDocument, "ping", duostore.ErrNotConnected, errNotConnected)
	}
	if err := mc.Ping(ctx, readpref.Primary()); err != nil {
		return c.fail("ping", duostore.ErrConnectionFailed, err)
	}
	return nil
}

// Database returns the configured database, or nil when not connected.
func (c *Client) Database() *mongo.Database {
	mc := c.client.Load()
	if mc == nil {
		return nil
	}
	return mc.Database(c.cfg.Database)
}

// Collection returns a handle to the named collection.
func (c *Client) Collection(name string) (*mongo.Collection, error) {
	db := c.Database()
	if db == nil {
		return nil, duostore.NewStoreError(duostore.BackendDocument, "collection", duostore.ErrNotConnected, errNotConnected)
	}
	return db.Collection(name), nil
}

// Connected reports whether the session is established.
func (c *Client) Connected() bool {
	return c.client.Load() != nil
}

// Disconnect closes the session gracefully. Calling it more than once, or
// before Connect, is a no-op.
func (c *Client) Disconnect(ctx context.Context) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	mc := c.client.Swap(nil)
	if mc == nil {
		return nil
	}

	c.setState(Disconnecting)
	err := mc.Disconnect(ctx)
	c.setState(Disconnected)
	c.logger.Info("document store disconnected")
	c.emit(duostore.EventDisconnected, nil)
	if err != nil {
		return c.fail("disconnect", duostore.ErrConnectionFailed, err)
	}
	return nil
}

// serverMonitor mirrors driver heartbeats into readiness. A failed
// heartbeat on a live session means the driver is reconnecting.
func (c *Client) serverMonitor() *event.ServerMonitor {
	return &event.ServerMonitor{
		ServerHeartbeatFailed: func(e *event.ServerHeartbeatFailedEvent) {
			if c.client.Load() == nil {
				return
			}
			if c.state.CompareAndSwap(int32(Connected), int32(Connecting)) {
				c.logger.Warn("document store heartbeat failed",
					slog.String("error", errorString(e.Failure)),
				)
				c.emit(duostore.EventDisconnected, e.Failure)
			}
		},
		ServerHeartbeatSucceeded: func(*event.ServerHeartbeatSucceededEvent) {
			if c.client.Load() == nil {
				return
			}
			if c.state.CompareAndSwap(int32(Connecting), int32(Connected)) {
				c.logger.Info("document store reconnected")
				c.emit(duostore.EventReconnected, nil)
			}
		},
	}
}

func (c *Client) poolMonitor() *event.PoolMonitor {
	return &event.PoolMonitor{
		Event: func(e *event.PoolEvent) {
			if e.Type == event.PoolCleared {
				c.logger.Debug("document store pool cleared", slog.String("address", e.Address))
			}
		},
	}
}

var errNotConnected = errors.New("session is not open")

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (c *Client) setState(r Readiness) {
	c.state.Store(int32(r))
}

func (c *Client) fail(op string, kind, err error) error {
	c.logger.Error("document store error",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	c.emit(duostore.EventError, err)
	return duostore.NewStoreError(duostore.BackendDocument, op, kind, err)
}

func (c *Client) emit(t duostore.EventType, err error) {
	h := c.onEvent.Load()
	if h == nil || *h == nil {
		return
	}
	(*h)(duostore.Event{
		Backend: duostore.BackendDocument,
		Type:    t,
		Err:     err,
		At:      time.Now().UTC(),
	})
}
