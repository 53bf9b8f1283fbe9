package middleware

import (
	"context"
	"log/slog"

	"github.com/xraph/duostore"
)

// Timeout returns middleware that enforces a per-attempt deadline.
// If the operation has a non-zero Timeout, a context.WithTimeout wraps the
// handler call.
func Timeout(logger *slog.Logger) Middleware {
	return func(ctx context.Context, op *duostore.Operation, next Handler) error {
		if op.Timeout > 0 {
			logger.Debug("operation timeout set",
				slog.String("op", op.Context),
				slog.Duration("timeout", op.Timeout),
			)
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, op.Timeout)
			defer cancel()
		}
		return next(ctx)
	}
}
