// Package relational owns a bounded connection pool to a SQL store. MySQL
// is the primary target; Postgres and SQLite share the same client through
// bun dialects.
//
// The client never retries. Retry and failover belong to the selector.
package relational

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/uptrace/bun"

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

// WithEventHandler registers a handler for connect, disconnect and error
// events.
func WithEventHandler(h duostore.EventHandler) Option {
	return func(c *Client) {
		c.onEvent.Store(&h)
	}
}

// Client is the relational pool client. It is safe for concurrent use.
type Client struct {
	cfg     Config
	logger  *slog.Logger
	onEvent atomic.Pointer[duostore.EventHandler]

	// lifecycle serialises Connect and Close. Queries never take it.
	lifecycle sync.Mutex
	db        atomic.Pointer[bun.DB]
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

// SetEventHandler replaces the event handler. The selector uses it to
// forward events to extensions.
func (c *Client) SetEventHandler(h duostore.EventHandler) {
	c.onEvent.Store(&h)
}

// Config returns the client configuration.
func (c *Client) Config() Config { return c.cfg }

// Connect opens the pool and verifies it with a SELECT 1 round trip inside
// the acquire timeout. A pool that accepts connections but fails the round
// trip is reported as ErrConnectionFailed and closed. Connect is a no-op
// while connected.
func (c *Client) Connect(ctx context.Context) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.db.Load() != nil {
		return nil
	}
	if err := c.cfg.Validate(); err != nil {
		return c.fail("connect", duostore.ErrConnectionFailed, err)
	}

	sqldb, dialect, err := open(c.cfg)
	if err != nil {
		return c.fail("connect", duostore.ErrConnectionFailed, err)
	}
	sqldb.SetMaxOpenConns(c.cfg.MaxConns)
	sqldb.SetMaxIdleConns(c.cfg.MaxConns)
	sqldb.SetConnMaxIdleTime(c.cfg.IdleTimeout)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.AcquireTimeout)
	defer cancel()

	if err := roundTrip(ctx, sqldb); err != nil {
		_ = sqldb.Close()
		return c.fail("connect", duostore.ErrConnectionFailed, err)
	}
	if err := warm(ctx, sqldb, c.cfg.MinConns); err != nil {
		_ = sqldb.Close()
		return c.fail("connect", duostore.ErrConnectionFailed, err)
	}

	c.db.Store(bun.NewDB(sqldb, dialect))
	c.logger.Info("relational store connected",
		slog.String("driver", string(c.cfg.Driver)),
		slog.String("host", c.cfg.Host),
		slog.String("database", c.cfg.Database),
		slog.Int("max_conns", c.cfg.MaxConns),
	)
	c.emit(duostore.EventConnected, nil)
	return nil
}

// warm holds n connections at once so they are idle in the pool afterwards.
func warm(ctx context.Context, sqldb *sql.DB, n int) error {
	conns := make([]*sql.Conn, 0, n)
	defer func() {
		for _, conn := range conns {
			_ = conn.Close()
		}
	}()
	for range n {
		conn, err := sqldb.Conn(ctx)
		if err != nil {
			return err
		}
		conns = append(conns, conn)
	}
	return nil
}

// Ping runs the SELECT 1 liveness probe.
func (c *Client) Ping(ctx context.Context) error {
	db := c.db.Load()
	if db == nil {
		return duostore.NewStoreError(duostore.BackendRelational, "ping", duostore.ErrNotConnected, errNotConnected)
	}
	if err := roundTrip(ctx, db.DB); err != nil {
		return c.fail("ping", duostore.ErrConnectionFailed, err)
	}
	return nil
}

// Execute runs a parameterised query and returns every row. Arguments are
// bound by the driver, never interpolated, so placeholders follow the
// driver's syntax (? for mysql and sqlite, $1 for postgres). Driver errors
// are wrapped unchanged as ErrQueryFailed.
func (c *Client) Execute(ctx context.Context, query string, args ...any) (Rows, error) {
	db := c.db.Load()
	if db == nil {
		return nil, duostore.NewStoreError(duostore.BackendRelational, "execute", duostore.ErrNotConnected, errNotConnected)
	}

	rows, err := db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, c.queryFailed("execute", err)
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, c.queryFailed("execute", err)
	}
	return out, nil
}

// Exec runs a parameterised statement that returns no rows.
func (c *Client) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	db := c.db.Load()
	if db == nil {
		return nil, duostore.NewStoreError(duostore.BackendRelational, "exec", duostore.ErrNotConnected, errNotConnected)
	}

	res, err := db.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, c.queryFailed("exec", err)
	}
	return res, nil
}

// QueryOne returns the first row of the result. found is false for an
// empty result set, which is not an error.
func (c *Client) QueryOne(ctx context.Context, query string, args ...any) (row Row, found bool, err error) {
	rows, err := c.Execute(ctx, query, args...)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

// DB returns the bun handle, or nil when not connected.
func (c *Client) DB() *bun.DB {
	return c.db.Load()
}

// Connected reports whether the pool is open.
func (c *Client) Connected() bool {
	return c.db.Load() != nil
}

// Close drains and closes the pool. Calling Close more than once, or
// before Connect, is a no-op.
func (c *Client) Close() error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	db := c.db.Swap(nil)
	if db == nil {
		return nil
	}

	err := db.Close()
	c.logger.Info("relational store disconnected")
	c.emit(duostore.EventDisconnected, nil)
	if err != nil {
		return c.fail("close", duostore.ErrConnectionFailed, err)
	}
	return nil
}

var errNotConnected = errors.New("pool is not open")

func (c *Client) queryFailed(op string, err error) error {
	c.logger.Debug("relational query failed", slog.String("op", op), slog.String("error", err.Error()))
	return duostore.NewStoreError(duostore.BackendRelational, op, duostore.ErrQueryFailed, err)
}

func (c *Client) fail(op string, kind, err error) error {
	c.logger.Error("relational store error",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	c.emit(duostore.EventError, err)
	return duostore.NewStoreError(duostore.BackendRelational, op, kind, err)
}

func (c *Client) emit(t duostore.EventType, err error) {
	h := c.onEvent.Load()
	if h == nil || *h == nil {
		return
	}
	(*h)(duostore.Event{
		Backend: duostore.BackendRelational,
		Type:    t,
		Err:     err,
		At:      time.Now().UTC(),
	})
}
