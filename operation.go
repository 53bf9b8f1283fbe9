package duostore

import "time"

// Role tells whether an operation attempt is the primary or the fallback
// half of an Execute call.
type Role string

const (
	RolePrimary  Role = "primary"
	RoleFallback Role = "fallback"
)

// Operation describes a single attempt made by the selector. Middleware
// receives it alongside the context.
type Operation struct {
	// Context is the caller-supplied label, e.g. "products.list".
	Context string

	// Backend is the store the attempt runs against.
	Backend Backend

	// Role is primary or fallback.
	Role Role

	// Timeout bounds the attempt when non-zero.
	Timeout time.Duration
}
