package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/duostore"
)

// tracerName is the instrumentation scope name for duostore tracing.
const tracerName = "github.com/xraph/duostore"

// Tracing returns middleware that wraps each attempt in an OpenTelemetry
// span named duostore.operation.execute. If no TracerProvider is configured
// globally, the noop tracer is used.
//
// Span attributes: duostore.context, duostore.backend, duostore.role.
// On error, the span status is set to codes.Error with the error message.
func Tracing() Middleware {
	return TracingWithTracer(otel.Tracer(tracerName))
}

// TracingWithTracer returns tracing middleware using the provided tracer.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, op *duostore.Operation, next Handler) error {
		ctx, span := tracer.Start(ctx, "duostore.operation.execute",
			trace.WithAttributes(
				attribute.String("duostore.context", op.Context),
				attribute.String("duostore.backend", string(op.Backend)),
				attribute.String("duostore.role", string(op.Role)),
			),
			trace.WithSpanKind(trace.SpanKindClient),
		)
		defer span.End()

		err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}
