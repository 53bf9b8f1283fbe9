// Package limit caps how hard operations may hit each store, with
// per-backend and per-operation rate limits and concurrency caps.
//
// A store that has just taken over as fallback receives the whole load the
// other store used to carry. Limits keep that surge from overwhelming it.
//
// # Per-Backend Configuration
//
//	limit.Config{
//	    Backend:        duostore.BackendDocument,
//	    MaxConcurrency: 20,  // max 20 operations in flight
//	    RateLimit:      200, // max 200 operations/s
//	    RateBurst:      50,
//	}
//
// # Per-Operation Configuration
//
// [OperationConfig] narrows one operation label, such as "products.list",
// on one backend:
//
//	m.SetOperationConfig(limit.OperationConfig{
//	    Backend:        duostore.BackendDocument,
//	    Context:        "products.list",
//	    MaxConcurrency: 5,
//	})
//
// # Manager
//
// [Manager] admits or rejects an operation at call time. It uses a
// token-bucket rate limiter (golang.org/x/time/rate) and an active-count
// gate for concurrency limits. It never blocks.
//
//	if m.Acquire(backend, opContext) {
//	    defer m.Release(backend, opContext)
//	    // run the operation
//	}
//
// Backends without a [Config] have no limits.
package limit
