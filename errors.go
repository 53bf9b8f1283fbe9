package duostore

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Connection errors.
	ErrConnectionFailed = errors.New("duostore: connection failed")
	ErrNotConnected     = errors.New("duostore: not connected")

	// Operation errors.
	ErrQueryFailed        = errors.New("duostore: query failed")
	ErrBothBackendsFailed = errors.New("duostore: both backends failed")
	ErrNoBackendAvailable = errors.New("duostore: no backend available")
	ErrRateLimited        = errors.New("duostore: operation rate limited")

	// Lifecycle errors.
	ErrFatalInit = errors.New("duostore: fatal initialization error")
	ErrNotReady  = errors.New("duostore: not initialized")
	ErrShutdown  = errors.New("duostore: selector shut down")

	// Catalog errors.
	ErrProductNotFound  = errors.New("duostore: product not found")
	ErrCategoryNotFound = errors.New("duostore: category not found")
	ErrDuplicateSlug    = errors.New("duostore: duplicate slug")
)

// StoreError describes a failure reported by a pool client. Kind is one of
// the sentinel errors above; Err is the underlying driver error and stays
// reachable through errors.As so callers can tell transient failures from
// permanent ones.
type StoreError struct {
	Backend Backend
	Op      string
	Kind    error
	Err     error
}

// NewStoreError builds a StoreError.
func NewStoreError(backend Backend, op string, kind, err error) *StoreError {
	return &StoreError{Backend: backend, Op: op, Kind: kind, Err: err}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("duostore/%s: %s: %v", e.Backend, e.Op, e.Err)
}

// Unwrap exposes both the sentinel kind and the driver error.
func (e *StoreError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// FallbackError is returned when the primary and the fallback operation of
// a single Execute call both failed.
type FallbackError struct {
	Context  string
	Primary  error
	Fallback error
}

func (e *FallbackError) Error() string {
	return fmt.Sprintf("duostore: %s: both backends failed: primary: %v; fallback: %v",
		e.Context, e.Primary, e.Fallback)
}

// Unwrap exposes ErrBothBackendsFailed and the two underlying errors.
func (e *FallbackError) Unwrap() []error {
	return []error{ErrBothBackendsFailed, e.Primary, e.Fallback}
}

// InitError is returned by Initialize when no backend could be brought up.
// Relational is nil when the relational store was never attempted.
type InitError struct {
	Relational error
	Document   error
	Probe      error
}

func (e *InitError) Error() string {
	var parts []string
	if e.Relational != nil {
		parts = append(parts, "relational: "+e.Relational.Error())
	}
	if e.Document != nil {
		parts = append(parts, "document: "+e.Document.Error())
	}
	if e.Probe != nil {
		parts = append(parts, "liveness probe: "+e.Probe.Error())
	}
	if len(parts) == 0 {
		return ErrFatalInit.Error()
	}
	return ErrFatalInit.Error() + ": " + strings.Join(parts, "; ")
}

// Unwrap exposes ErrFatalInit and every recorded cause.
func (e *InitError) Unwrap() []error {
	errs := []error{ErrFatalInit}
	for _, err := range []error{e.Relational, e.Document, e.Probe} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
