package middleware

import (
	"context"
	"fmt"

	"github.com/xraph/duostore"
	"github.com/xraph/duostore/limit"
)

// Limit returns middleware that rejects an attempt with
// duostore.ErrRateLimited when m has no room for it on the attempt's
// backend. Rejected attempts never reach the store.
func Limit(m *limit.Manager) Middleware {
	return func(ctx context.Context, op *duostore.Operation, next Handler) error {
		if !m.Acquire(op.Backend, op.Context) {
			return fmt.Errorf("%s on %s: %w", op.Context, op.Backend, duostore.ErrRateLimited)
		}
		defer m.Release(op.Backend, op.Context)
		return next(ctx)
	}
}
