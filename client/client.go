// Package client talks to a running duostore server over its HTTP API.
//
// Usage:
//
//	c, err := client.New("http://localhost:8080",
//	    client.WithReconnect(5, time.Second),
//	)
//
//	status, err := c.Status(ctx)
//
//	// Watch fallback activations.
//	events, err := c.Subscribe(ctx, stream.TopicSelector)
//	for evt := range events {
//	    fmt.Println(evt.Type)
//	}
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xraph/duostore"
	"github.com/xraph/duostore/backoff"
)

// Client is an HTTP and WebSocket client for one duostore server.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *slog.Logger

	// Reconnection of event subscriptions.
	reconnect  bool
	maxRetries int
	strategy   backoff.Strategy
}

// New creates a client for the server at baseURL, e.g.
// "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("duostore/client: parse %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("duostore/client: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("duostore/client: missing host in %q", baseURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")

	c := &Client{
		base:       u,
		http:       &http.Client{Timeout: 10 * time.Second},
		logger:     slog.Default(),
		maxRetries: backoff.DefaultMaxAttempts,
		strategy:   backoff.NewExponential(time.Second, 30*time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Status fetches the selector status.
func (c *Client) Status(ctx context.Context) (duostore.Status, error) {
	var status duostore.Status
	if _, err := c.get(ctx, "/status", &status); err != nil {
		return duostore.Status{}, err
	}
	return status, nil
}

// Health runs a health check on the server. An unhealthy report is not an
// error; err is set only when no report could be read.
func (c *Client) Health(ctx context.Context) (duostore.HealthReport, error) {
	var report duostore.HealthReport
	if _, err := c.get(ctx, "/health", &report); err != nil {
		return duostore.HealthReport{}, err
	}
	return report, nil
}

// get decodes the JSON body of path into v. 503 carries a body too.
func (c *Client) get(ctx context.Context, path string, v any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("http", path, nil), nil)
	if err != nil {
		return 0, fmt.Errorf("duostore/client: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("duostore/client: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("duostore/client: GET %s: %s: %s",
			path, resp.Status, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("duostore/client: decode %s: %w", path, err)
	}
	return resp.StatusCode, nil
}

// endpoint builds the URL of path. scheme "ws" maps http to ws and https
// to wss.
func (c *Client) endpoint(scheme, path string, query url.Values) string {
	u := *c.base
	u.Path += path
	u.RawQuery = query.Encode()
	if scheme == "ws" {
		u.Scheme = "ws"
		if c.base.Scheme == "https" {
			u.Scheme = "wss"
		}
	}
	return u.String()
}
