package document_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/duostore"
	"github.com/xraph/duostore/document"
)

func unreachableConfig() document.Config {
	cfg := document.DefaultConfig()
	cfg.URI = "mongodb://127.0.0.1:1/?connect=direct"
	cfg.ServerSelectionTimeout = 200 * time.Millisecond
	cfg.ConnectTimeout = 200 * time.Millisecond
	cfg.MinPoolSize = 0
	return cfg
}

func TestConnect_UnreachableFailsFast(t *testing.T) {
	var events []duostore.Event
	c := document.New(unreachableConfig(), document.WithEventHandler(func(e duostore.Event) {
		events = append(events, e)
	}))

	start := time.Now()
	err := c.Connect(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Connect took %v, expected to fail fast", elapsed)
	}
	if !errors.Is(err, duostore.ErrConnectionFailed) {
		t.Errorf("expected ErrConnectionFailed, got %v", err)
	}
	var se *duostore.StoreError
	if !errors.As(err, &se) || se.Backend != duostore.BackendDocument {
		t.Errorf("expected document StoreError, got %v", err)
	}
	if c.Connected() {
		t.Error("client must not report connected after failure")
	}
	if c.Readiness() != document.Disconnected {
		t.Errorf("readiness = %v, want disconnected", c.Readiness())
	}
	if len(events) == 0 || events[len(events)-1].Type != duostore.EventError {
		t.Errorf("expected trailing error event, got %+v", events)
	}
}

func TestConnect_InvalidConfig(t *testing.T) {
	cfg := document.DefaultConfig()
	cfg.URI = ""
	err := document.New(cfg).Connect(context.Background())
	if !errors.Is(err, duostore.ErrConnectionFailed) {
		t.Errorf("expected ErrConnectionFailed, got %v", err)
	}
}

func TestNotConnected(t *testing.T) {
	c := document.New(document.DefaultConfig())

	if err := c.Ping(context.Background()); !errors.Is(err, duostore.ErrNotConnected) {
		t.Errorf("Ping: expected ErrNotConnected, got %v", err)
	}
	if _, err := c.Collection("products"); !errors.Is(err, duostore.ErrNotConnected) {
		t.Errorf("Collection: expected ErrNotConnected, got %v", err)
	}
	if c.Database() != nil {
		t.Error("Database should be nil before Connect")
	}
}

func TestDisconnect_Idempotent(t *testing.T) {
	c := document.New(document.DefaultConfig())
	for i := 0; i < 2; i++ {
		if err := c.Disconnect(context.Background()); err != nil {
			t.Errorf("Disconnect #%d: %v", i+1, err)
		}
	}
}

func TestReadiness_String(t *testing.T) {
	tests := []struct {
		r    document.Readiness
		want string
	}{
		{document.Disconnected, "disconnected"},
		{document.Connected, "connected"},
		{document.Connecting, "connecting"},
		{document.Disconnecting, "disconnecting"},
		{document.Readiness(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.r.String(); got != tt.want {
			t.Errorf("Readiness(%d).String() = %q, want %q", int(tt.r), got, tt.want)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*document.Config)
		ok     bool
	}{
		{"defaults", func(*document.Config) {}, true},
		{"no database", func(c *document.Config) { c.Database = "" }, false},
		{"min above max", func(c *document.Config) { c.MinPoolSize = 20 }, false},
		{"zero max", func(c *document.Config) { c.MaxPoolSize = 0 }, false},
		{"zero selection timeout", func(c *document.Config) { c.ServerSelectionTimeout = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := document.DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, ok want %v", err, tt.ok)
			}
		})
	}
}
