// Package middleware provides composable middleware for selector operations.
//
// A [Middleware] wraps every primary and fallback attempt made by
// selector.Execute. Middleware are composed into a chain using [Chain].
// They are applied right-to-left: the first middleware in the slice is the
// outermost wrapper.
//
//	// logging → recover → handler
//	chain := middleware.Chain(middleware.Logging(logger), middleware.Recover(logger))
//
// # Built-in Middleware
//
//   - [Logging]: logs operation context, backend, role, duration and outcome
//   - [Recover]: catches panics and converts them to errors
//   - [Timeout]: cancels the attempt context after Operation.Timeout
//   - [Tracing]: wraps each attempt in an OpenTelemetry span
//   - [Metrics]: records per-attempt duration and outcome counters
//   - [Limit]: rejects attempts over a backend's rate or concurrency limit
//
// # Writing Custom Middleware
//
//	func MyMiddleware() middleware.Middleware {
//	    return func(ctx context.Context, op *duostore.Operation, next middleware.Handler) error {
//	        // pre-processing
//	        err := next(ctx)
//	        // post-processing
//	        return err
//	    }
//	}
//
// Middleware MUST call next to continue the chain unless intentionally
// short-circuiting.
package middleware
