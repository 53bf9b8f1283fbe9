package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/duostore"
)

// Recover returns middleware that recovers from panics in the handler chain.
// Panics are converted to errors and logged with a stack trace, so a
// panicking primary still gets a fallback attempt.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, op *duostore.Operation, next Handler) (retErr error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("operation panicked",
					slog.String("op", op.Context),
					slog.String("backend", string(op.Backend)),
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)
				retErr = fmt.Errorf("panic in %s on %s: %v", op.Context, op.Backend, r)
			}
		}()
		return next(ctx)
	}
}
