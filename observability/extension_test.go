package observability_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/xraph/duostore"
	"github.com/xraph/duostore/ext"
	"github.com/xraph/duostore/observability"
)

func newTestExtension() (*observability.MetricsExtension, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return observability.NewMetricsExtensionWithMeter(mp.Meter("test")), reader
}

// counterTotal sums all data points of the named counter.
func counterTotal(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s: expected Sum[int64], got %T", name, m.Data)
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func TestMetricsExtension_Name(t *testing.T) {
	e, _ := newTestExtension()
	if e.Name() != "observability-metrics" {
		t.Errorf("expected name %q, got %q", "observability-metrics", e.Name())
	}
}

func TestMetricsExtension_BackendHooks(t *testing.T) {
	e, reader := newTestExtension()
	ctx := context.Background()

	_ = e.OnBackendConnected(ctx, duostore.BackendRelational)
	_ = e.OnBackendConnected(ctx, duostore.BackendDocument)
	_ = e.OnBackendDisconnected(ctx, duostore.BackendRelational, nil)
	_ = e.OnBackendError(ctx, duostore.BackendRelational, errors.New("refused"))

	tests := []struct {
		name string
		want int64
	}{
		{"duostore.backend.connected", 2},
		{"duostore.backend.disconnected", 1},
		{"duostore.backend.errors", 1},
	}
	for _, tt := range tests {
		if got := counterTotal(t, reader, tt.name); got != tt.want {
			t.Errorf("%s: want %d, got %d", tt.name, tt.want, got)
		}
	}
}

func TestMetricsExtension_SelectorHooks(t *testing.T) {
	e, reader := newTestExtension()
	ctx := context.Background()

	_ = e.OnFallbackActivated(ctx, "relational down")
	_ = e.OnOperationFailed(ctx, &duostore.Operation{Backend: duostore.BackendRelational, Role: duostore.RolePrimary}, errors.New("x"))
	_ = e.OnHealthChecked(ctx, duostore.HealthReport{Database: duostore.BackendDocument, Healthy: true})
	_ = e.OnHealthChecked(ctx, duostore.HealthReport{Database: duostore.BackendDocument})

	if got := counterTotal(t, reader, "duostore.fallback.activated"); got != 1 {
		t.Errorf("fallback.activated: want 1, got %d", got)
	}
	if got := counterTotal(t, reader, "duostore.operation.failed"); got != 1 {
		t.Errorf("operation.failed: want 1, got %d", got)
	}
	if got := counterTotal(t, reader, "duostore.health.checks"); got != 2 {
		t.Errorf("health.checks: want 2, got %d", got)
	}
}

func TestMetricsExtension_ThroughRegistry(t *testing.T) {
	e, reader := newTestExtension()
	r := ext.NewRegistry(slog.Default())
	r.Register(e)

	ctx := context.Background()
	r.EmitEvent(ctx, duostore.Event{Backend: duostore.BackendDocument, Type: duostore.EventConnected})
	r.EmitEvent(ctx, duostore.Event{Backend: duostore.BackendDocument, Type: duostore.EventError, Err: errors.New("x")})
	r.EmitFallbackActivated(ctx, "down")

	if got := counterTotal(t, reader, "duostore.backend.connected"); got != 1 {
		t.Errorf("backend.connected: want 1, got %d", got)
	}
	if got := counterTotal(t, reader, "duostore.backend.errors"); got != 1 {
		t.Errorf("backend.errors: want 1, got %d", got)
	}
	if got := counterTotal(t, reader, "duostore.fallback.activated"); got != 1 {
		t.Errorf("fallback.activated: want 1, got %d", got)
	}
}
