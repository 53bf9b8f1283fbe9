// Package cache is a best-effort Redis cache in front of the catalog stores.
//
// Nothing in the system depends on it for correctness. Every operation
// reports failure as a miss or a false return, never as an error. After
// MaxAttempts consecutive connectivity failures the client disables itself
// for the rest of the process and all calls become local no-ops.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xraph/duostore/backoff"
)

// MaxAttempts is the number of consecutive connection failures tolerated
// before the cache is disabled.
const MaxAttempts = 3

// Config describes the cache connection.
type Config struct {
	// URL is a redis:// or rediss:// URL. Empty disables the cache.
	URL string

	// Codec names the value codec ("json" or "msgpack").
	Codec string

	// DialTimeout bounds each connection attempt.
	DialTimeout time.Duration

	// OperationTimeout bounds each command.
	OperationTimeout time.Duration
}

// DefaultConfig returns a disabled cache configuration.
func DefaultConfig() Config {
	return Config{
		Codec:            CodecNameJSON,
		DialTimeout:      time.Second,
		OperationTimeout: 500 * time.Millisecond,
	}
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets the logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDialer replaces the network dialer used by the Redis client.
func WithDialer(dial func(ctx context.Context, network, addr string) (net.Conn, error)) Option {
	return func(c *Client) {
		c.dialer = dial
	}
}

// WithStrategy overrides the delay between startup connection attempts.
func WithStrategy(s backoff.Strategy) Option {
	return func(c *Client) {
		c.strategy = s
	}
}

// Client is a best-effort cache client. It is safe for concurrent use.
// A nil *Client behaves as a disabled cache.
type Client struct {
	logger   *slog.Logger
	codec    Codec
	dialer   func(ctx context.Context, network, addr string) (net.Conn, error)
	strategy backoff.Strategy
	timeout  time.Duration

	rdb       *redis.Client
	disabled  atomic.Bool
	failures  atomic.Int32
	closeOnce sync.Once
}

// Disabled returns a client on which every operation is a no-op.
func Disabled() *Client {
	c := &Client{logger: slog.Default(), codec: JSONCodec{}}
	c.disabled.Store(true)
	return c
}

// New connects to the cache. An empty URL yields a disabled client and no
// error. A malformed URL is an error. An unreachable server is retried up
// to MaxAttempts times with linear backoff, after which the returned client
// is permanently disabled.
func New(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	c := &Client{
		logger:   slog.Default(),
		codec:    CodecByName(cfg.Codec),
		strategy: backoff.NewLinear(100*time.Millisecond, time.Second),
		timeout:  cfg.OperationTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	if cfg.URL == "" {
		c.logger.Info("cache disabled: no url configured")
		c.disabled.Store(true)
		return c, nil
	}

	ropts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("duostore/cache: parse url: %w", err)
	}
	// Reconnects are counted here, not inside the driver.
	ropts.MaxRetries = -1
	if cfg.DialTimeout > 0 {
		ropts.DialTimeout = cfg.DialTimeout
	}
	if c.dialer != nil {
		ropts.Dialer = c.dialer
	}
	c.rdb = redis.NewClient(ropts)

	budget := backoff.NewBudget(MaxAttempts, c.strategy)
	err = budget.Retry(ctx, c.Ping, func(attempt int, err error, delay time.Duration) {
		c.logger.Warn("cache connect failed",
			slog.Int("attempt", attempt),
			slog.Duration("retry_in", delay),
			slog.String("error", err.Error()),
		)
	})
	if err != nil {
		c.disable(err)
		return c, nil
	}

	c.logger.Info("cache connected",
		slog.String("addr", ropts.Addr),
		slog.String("codec", c.codec.Name()),
	)
	return c, nil
}

// Enabled reports whether the cache is still in use.
func (c *Client) Enabled() bool {
	return c != nil && !c.disabled.Load() && c.rdb != nil
}

// Ping checks the server. It returns an error when the cache is disabled.
func (c *Client) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.rdb.Ping(ctx).Err()
}

// Get decodes the value at key into dest. It returns false on a miss, a
// decode failure or a connectivity failure.
func (c *Client) Get(ctx context.Context, key string, dest any) bool {
	if !c.Enabled() {
		return false
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.succeeded()
		return false
	}
	if err != nil {
		c.failed("get", err)
		return false
	}
	c.succeeded()

	if err := c.codec.Unmarshal(data, dest); err != nil {
		c.logger.Debug("cache decode failed", slog.String("key", key), slog.String("error", err.Error()))
		return false
	}
	return true
}

// Set stores value at key with the given ttl. A zero ttl never expires.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	if !c.Enabled() {
		return false
	}
	data, err := c.codec.Marshal(value)
	if err != nil {
		c.logger.Debug("cache encode failed", slog.String("key", key), slog.String("error", err.Error()))
		return false
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		c.failed("set", err)
		return false
	}
	c.succeeded()
	return true
}

// SetIfAbsent stores value only when key does not exist. It is meant for
// coarse mutual exclusion and must not guard correctness-critical work.
func (c *Client) SetIfAbsent(ctx context.Context, key string, value any, ttl time.Duration) bool {
	if !c.Enabled() {
		return false
	}
	data, err := c.codec.Marshal(value)
	if err != nil {
		return false
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	ok, err := c.rdb.SetNX(ctx, key, data, ttl).Result()
	if err != nil {
		c.failed("setnx", err)
		return false
	}
	c.succeeded()
	return ok
}

// Delete removes key. It reports whether the command reached the server.
func (c *Client) Delete(ctx context.Context, key string) bool {
	if !c.Enabled() {
		return false
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		c.failed("del", err)
		return false
	}
	c.succeeded()
	return true
}

// Close releases the connection pool. It is safe to call more than once.
func (c *Client) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	var err error
	c.closeOnce.Do(func() {
		err = c.rdb.Close()
	})
	return err
}

// ErrDisabled is returned by Ping on a disabled cache.
var ErrDisabled = errors.New("duostore/cache: disabled")

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Client) succeeded() {
	c.failures.Store(0)
}

func (c *Client) failed(op string, err error) {
	// Caller cancellation says nothing about the server.
	if errors.Is(err, context.Canceled) {
		return
	}
	n := c.failures.Add(1)
	c.logger.Warn("cache operation failed",
		slog.String("op", op),
		slog.Int("attempt", int(n)),
		slog.String("error", err.Error()),
	)
	if n >= MaxAttempts {
		c.disable(err)
	}
}

func (c *Client) disable(err error) {
	if c.disabled.Swap(true) {
		return
	}
	c.logger.Warn("cache disabled for process lifetime",
		slog.Int("attempts", MaxAttempts),
		slog.String("error", err.Error()),
	)
	_ = c.Close()
}
