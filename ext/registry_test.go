package ext_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/duostore"
	"github.com/xraph/duostore/ext"
)

// ──────────────────────────────────────────────────
// Test extensions
// ──────────────────────────────────────────────────

// allHooksExt implements every lifecycle hook for testing.
type allHooksExt struct {
	calls []string
}

func (e *allHooksExt) Name() string { return "all-hooks" }

func (e *allHooksExt) OnBackendConnected(_ context.Context, _ duostore.Backend) error {
	e.calls = append(e.calls, "OnBackendConnected")
	return nil
}

func (e *allHooksExt) OnBackendDisconnected(_ context.Context, _ duostore.Backend, _ error) error {
	e.calls = append(e.calls, "OnBackendDisconnected")
	return nil
}

func (e *allHooksExt) OnBackendReconnected(_ context.Context, _ duostore.Backend) error {
	e.calls = append(e.calls, "OnBackendReconnected")
	return nil
}

func (e *allHooksExt) OnBackendError(_ context.Context, _ duostore.Backend, _ error) error {
	e.calls = append(e.calls, "OnBackendError")
	return nil
}

func (e *allHooksExt) OnInitialized(_ context.Context, _ duostore.Status) error {
	e.calls = append(e.calls, "OnInitialized")
	return nil
}

func (e *allHooksExt) OnFallbackActivated(_ context.Context, _ string) error {
	e.calls = append(e.calls, "OnFallbackActivated")
	return nil
}

func (e *allHooksExt) OnOperationFailed(_ context.Context, _ *duostore.Operation, _ error) error {
	e.calls = append(e.calls, "OnOperationFailed")
	return nil
}

func (e *allHooksExt) OnHealthChecked(_ context.Context, _ duostore.HealthReport) error {
	e.calls = append(e.calls, "OnHealthChecked")
	return nil
}

func (e *allHooksExt) OnShutdown(_ context.Context) error {
	e.calls = append(e.calls, "OnShutdown")
	return nil
}

// fallbackOnlyExt only watches failover.
type fallbackOnlyExt struct {
	reasons []string
}

func (e *fallbackOnlyExt) Name() string { return "fallback-only" }

func (e *fallbackOnlyExt) OnFallbackActivated(_ context.Context, reason string) error {
	e.reasons = append(e.reasons, reason)
	return nil
}

// failingExt returns errors from hooks.
type failingExt struct{}

func (e *failingExt) Name() string { return "failing" }

func (e *failingExt) OnFallbackActivated(_ context.Context, _ string) error {
	return errors.New("boom")
}

func (e *failingExt) OnShutdown(_ context.Context) error {
	return errors.New("shutdown boom")
}

// ──────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────

func TestRegistry_RegisterDiscoversInterfaces(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	r.Register(&allHooksExt{})

	if got := len(r.Extensions()); got != 1 {
		t.Fatalf("expected 1 extension, got %d", got)
	}
	if got := r.Extensions()[0].Name(); got != "all-hooks" {
		t.Fatalf("expected name 'all-hooks', got %q", got)
	}
}

func TestRegistry_EmitFiresOnlyImplementors(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	all := &allHooksExt{}
	fo := &fallbackOnlyExt{}
	r.Register(all)
	r.Register(fo)

	ctx := context.Background()

	r.EmitFallbackActivated(ctx, "relational: connection refused")
	if len(all.calls) != 1 || all.calls[0] != "OnFallbackActivated" {
		t.Fatalf("all: expected [OnFallbackActivated], got %v", all.calls)
	}
	if len(fo.reasons) != 1 || fo.reasons[0] != "relational: connection refused" {
		t.Fatalf("fo: expected reason recorded, got %v", fo.reasons)
	}

	r.EmitShutdown(ctx)
	if len(all.calls) != 2 || all.calls[1] != "OnShutdown" {
		t.Fatalf("all: expected OnShutdown as 2nd, got %v", all.calls)
	}
	if len(fo.reasons) != 1 {
		t.Fatalf("fo: should still have 1 call, got %v", fo.reasons)
	}
}

func TestRegistry_EmitEventRoutesByType(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	all := &allHooksExt{}
	r.Register(all)

	ctx := context.Background()
	now := time.Now()
	for _, typ := range []duostore.EventType{
		duostore.EventConnected,
		duostore.EventDisconnected,
		duostore.EventReconnected,
		duostore.EventError,
	} {
		r.EmitEvent(ctx, duostore.Event{Backend: duostore.BackendDocument, Type: typ, At: now})
	}

	expected := []string{
		"OnBackendConnected", "OnBackendDisconnected",
		"OnBackendReconnected", "OnBackendError",
	}
	if len(all.calls) != len(expected) {
		t.Fatalf("expected %d calls, got %d: %v", len(expected), len(all.calls), all.calls)
	}
	for i, want := range expected {
		if all.calls[i] != want {
			t.Errorf("call[%d] = %q, want %q", i, all.calls[i], want)
		}
	}
}

func TestRegistry_AllSelectorHooksFire(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	all := &allHooksExt{}
	r.Register(all)

	ctx := context.Background()
	r.EmitInitialized(ctx, duostore.Status{Mode: duostore.ModeRelational})
	r.EmitFallbackActivated(ctx, "down")
	r.EmitOperationFailed(ctx, &duostore.Operation{Context: "products.list"}, errors.New("x"))
	r.EmitHealthChecked(ctx, duostore.HealthReport{Healthy: true})
	r.EmitShutdown(ctx)

	expected := []string{
		"OnInitialized", "OnFallbackActivated", "OnOperationFailed",
		"OnHealthChecked", "OnShutdown",
	}
	if len(all.calls) != len(expected) {
		t.Fatalf("expected %d calls, got %d: %v", len(expected), len(all.calls), all.calls)
	}
	for i, want := range expected {
		if all.calls[i] != want {
			t.Errorf("call[%d] = %q, want %q", i, all.calls[i], want)
		}
	}
}

func TestRegistry_HookErrorsLoggedNotPropagated(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	all := &allHooksExt{}

	// Register failing first, then all-hooks. Both should be called.
	r.Register(&failingExt{})
	r.Register(all)

	r.EmitFallbackActivated(context.Background(), "down")

	if len(all.calls) != 1 || all.calls[0] != "OnFallbackActivated" {
		t.Fatalf("all: expected [OnFallbackActivated] despite failing ext, got %v", all.calls)
	}
}

func TestRegistry_EmptyRegistryNoOp(_ *testing.T) {
	r := ext.NewRegistry(nil)
	ctx := context.Background()

	// None of these should panic.
	r.EmitEvent(ctx, duostore.Event{Type: duostore.EventError, Err: errors.New("x")})
	r.EmitBackendConnected(ctx, duostore.BackendRelational)
	r.EmitBackendDisconnected(ctx, duostore.BackendRelational, nil)
	r.EmitBackendReconnected(ctx, duostore.BackendDocument)
	r.EmitBackendError(ctx, duostore.BackendCache, errors.New("x"))
	r.EmitInitialized(ctx, duostore.Status{})
	r.EmitFallbackActivated(ctx, "x")
	r.EmitOperationFailed(ctx, &duostore.Operation{}, errors.New("x"))
	r.EmitHealthChecked(ctx, duostore.HealthReport{})
	r.EmitShutdown(ctx)
}
