package client

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/xraph/duostore/backoff"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for status and health
// requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithReconnect re-dials lost event subscriptions up to maxRetries times,
// with exponential backoff starting at baseDelay.
func WithReconnect(maxRetries int, baseDelay time.Duration) Option {
	return func(c *Client) {
		c.reconnect = true
		c.maxRetries = maxRetries
		c.strategy = backoff.NewExponential(baseDelay, 30*time.Second)
	}
}
