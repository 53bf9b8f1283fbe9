package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/duostore"
)

// Logging returns middleware that logs each attempt at debug level and
// failures at warn level. A failed primary is expected to be absorbed by
// the fallback, so it is not logged as an error here.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, op *duostore.Operation, next Handler) error {
		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Warn("operation failed",
				slog.String("op", op.Context),
				slog.String("backend", string(op.Backend)),
				slog.String("role", string(op.Role)),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Debug("operation completed",
				slog.String("op", op.Context),
				slog.String("backend", string(op.Backend)),
				slog.String("role", string(op.Role)),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}
