package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/duostore"
)

// meterName is the instrumentation scope name for duostore metrics.
const meterName = "github.com/xraph/duostore"

// Metrics returns middleware that records per-attempt metrics using the
// global OTel MeterProvider. If no MeterProvider is configured, noop
// instruments are used and this middleware becomes a pass-through.
//
// Instruments:
//   - duostore.operation.duration (Float64Histogram): attempt time in seconds
//   - duostore.operation.executions (Int64Counter): total attempts
//
// Both carry the attributes context, backend, role and status ("ok" or "error").
func Metrics() Middleware {
	return MetricsWithMeter(otel.Meter(meterName))
}

// MetricsWithMeter returns metrics middleware using the provided meter.
func MetricsWithMeter(meter metric.Meter) Middleware {
	// On error the API returns noop instruments.
	duration, _ := meter.Float64Histogram(
		"duostore.operation.duration",
		metric.WithDescription("Duration of store operations in seconds"),
		metric.WithUnit("s"),
	)
	executions, _ := meter.Int64Counter(
		"duostore.operation.executions",
		metric.WithDescription("Total number of store operations"),
		metric.WithUnit("{operation}"),
	)

	return func(ctx context.Context, op *duostore.Operation, next Handler) error {
		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start).Seconds()

		status := "ok"
		if err != nil {
			status = "error"
		}

		attrs := metric.WithAttributes(
			attribute.String("context", op.Context),
			attribute.String("backend", string(op.Backend)),
			attribute.String("role", string(op.Role)),
			attribute.String("status", status),
		)
		duration.Record(ctx, elapsed, attrs)
		executions.Add(ctx, 1, attrs)

		return err
	}
}
