package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/xraph/duostore/backoff"
	"github.com/xraph/duostore/stream"
)

// errServerClosed is returned by readLoop when the server ended the
// stream with a normal close.
var errServerClosed = errors.New("server closed the stream")

// Subscribe streams the server's lifecycle events on topics. With no
// topics the firehose is used. See the stream package for topic names:
//   - "backend:<name>"  events of one store
//   - "backends"        every backend event
//   - "selector"        initialization, fallback and shutdown
//   - "operations"      failed operations
//   - "health"          health-check results
//   - "firehose"        everything
//
// The channel is closed when ctx ends, when the server shuts down, or when
// the connection is lost and cannot be re-established.
func (c *Client) Subscribe(ctx context.Context, topics ...string) (<-chan *stream.Event, error) {
	for _, topic := range topics {
		if err := stream.ValidateTopic(topic); err != nil {
			return nil, fmt.Errorf("duostore/client: %w", err)
		}
	}
	query := url.Values{"topic": topics}
	target := c.endpoint("ws", "/events/ws", query)

	conn, err := c.dial(ctx, target)
	if err != nil {
		return nil, err
	}

	ch := make(chan *stream.Event, stream.DefaultBufferSize)
	go c.run(ctx, target, conn, ch)
	return ch, nil
}

// run reads events until the stream ends for good.
func (c *Client) run(ctx context.Context, target string, conn *wsConn, ch chan<- *stream.Event) {
	defer close(ch)

	for {
		err := c.readLoop(ctx, conn, ch)
		_ = conn.Close()
		if ctx.Err() != nil || errors.Is(err, errServerClosed) {
			return
		}
		c.logger.Warn("event stream lost", slog.String("error", err.Error()))
		if !c.reconnect {
			return
		}

		conn, err = c.redial(ctx, target)
		if err != nil {
			c.logger.Error("event stream: giving up", slog.String("error", err.Error()))
			return
		}
		c.logger.Info("event stream reconnected")
	}
}

// readLoop decodes text frames into events. The connection is closed when
// ctx ends so a pending read returns.
func (c *Client) readLoop(ctx context.Context, conn *wsConn, ch chan<- *stream.Event) error {
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		data, err := wsutil.ReadServerText(conn)
		if err != nil {
			var closed wsutil.ClosedError
			if errors.As(err, &closed) && closed.Code == ws.StatusNormalClosure {
				return errServerClosed
			}
			return err
		}

		var evt stream.Event
		if err := json.Unmarshal(data, &evt); err != nil {
			c.logger.Warn("event stream: invalid frame", slog.String("error", err.Error()))
			continue
		}
		select {
		case ch <- &evt:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// redial re-establishes the stream with backoff.
func (c *Client) redial(ctx context.Context, target string) (*wsConn, error) {
	budget := backoff.NewBudget(c.maxRetries, c.strategy)
	var conn *wsConn
	err := budget.Retry(ctx, func(ctx context.Context) error {
		var err error
		conn, err = c.dial(ctx, target)
		return err
	}, func(attempt int, err error, delay time.Duration) {
		c.logger.Info("event stream reconnecting",
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()),
		)
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (c *Client) dial(ctx context.Context, target string) (*wsConn, error) {
	conn, br, _, err := ws.Dial(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("duostore/client: dial %s: %w", target, err)
	}
	return newWSConn(conn, br), nil
}

// wsConn reads any bytes the handshake left buffered before reading
// from the network.
type wsConn struct {
	net.Conn
	r io.Reader
}

func newWSConn(conn net.Conn, br *bufio.Reader) *wsConn {
	c := &wsConn{Conn: conn, r: conn}
	if br != nil && br.Buffered() > 0 {
		c.r = io.MultiReader(io.LimitReader(br, int64(br.Buffered())), conn)
	}
	return c
}

func (c *wsConn) Read(p []byte) (int, error) { return c.r.Read(p) }
