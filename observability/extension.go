package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/duostore"
	"github.com/xraph/duostore/ext"
)

// Compile-time interface checks.
var (
	_ ext.Extension           = (*MetricsExtension)(nil)
	_ ext.BackendConnected    = (*MetricsExtension)(nil)
	_ ext.BackendDisconnected = (*MetricsExtension)(nil)
	_ ext.BackendError        = (*MetricsExtension)(nil)
	_ ext.FallbackActivated   = (*MetricsExtension)(nil)
	_ ext.OperationFailed     = (*MetricsExtension)(nil)
	_ ext.HealthChecked       = (*MetricsExtension)(nil)
)

const meterName = "github.com/xraph/duostore/observability"

// MetricsExtension records backend lifecycle metrics as OTel counters.
// Register it as a selector extension.
type MetricsExtension struct {
	BackendConnected    metric.Int64Counter
	BackendDisconnected metric.Int64Counter
	BackendErrors       metric.Int64Counter
	FallbackActivated   metric.Int64Counter
	OperationFailed     metric.Int64Counter
	HealthChecks        metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension on the global MeterProvider.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the provided meter.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	counter := func(name, desc string) metric.Int64Counter {
		// The API returns a noop counter alongside any error.
		c, _ := meter.Int64Counter(name, metric.WithDescription(desc))
		return c
	}
	return &MetricsExtension{
		BackendConnected:    counter("duostore.backend.connected", "Backend connections established"),
		BackendDisconnected: counter("duostore.backend.disconnected", "Backend disconnections"),
		BackendErrors:       counter("duostore.backend.errors", "Errors reported by pool clients"),
		FallbackActivated:   counter("duostore.fallback.activated", "Relational to document failovers"),
		OperationFailed:     counter("duostore.operation.failed", "Failed primary or fallback operations"),
		HealthChecks:        counter("duostore.health.checks", "Health probes run"),
	}
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// ── Backend hooks ───────────────────────────────────

// OnBackendConnected implements ext.BackendConnected.
func (m *MetricsExtension) OnBackendConnected(ctx context.Context, backend duostore.Backend) error {
	m.BackendConnected.Add(ctx, 1, backendAttr(backend))
	return nil
}

// OnBackendDisconnected implements ext.BackendDisconnected.
func (m *MetricsExtension) OnBackendDisconnected(ctx context.Context, backend duostore.Backend, _ error) error {
	m.BackendDisconnected.Add(ctx, 1, backendAttr(backend))
	return nil
}

// OnBackendError implements ext.BackendError.
func (m *MetricsExtension) OnBackendError(ctx context.Context, backend duostore.Backend, _ error) error {
	m.BackendErrors.Add(ctx, 1, backendAttr(backend))
	return nil
}

// ── Selector hooks ──────────────────────────────────

// OnFallbackActivated implements ext.FallbackActivated.
func (m *MetricsExtension) OnFallbackActivated(ctx context.Context, _ string) error {
	m.FallbackActivated.Add(ctx, 1)
	return nil
}

// OnOperationFailed implements ext.OperationFailed.
func (m *MetricsExtension) OnOperationFailed(ctx context.Context, op *duostore.Operation, _ error) error {
	m.OperationFailed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("backend", string(op.Backend)),
		attribute.String("role", string(op.Role)),
	))
	return nil
}

// OnHealthChecked implements ext.HealthChecked.
func (m *MetricsExtension) OnHealthChecked(ctx context.Context, report duostore.HealthReport) error {
	m.HealthChecks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("database", string(report.Database)),
		attribute.Bool("healthy", report.Healthy),
	))
	return nil
}

func backendAttr(b duostore.Backend) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("backend", string(b)))
}
