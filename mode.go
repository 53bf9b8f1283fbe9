package duostore

import (
	"time"
)

// Backend names one of the external stores managed by duostore.
type Backend string

const (
	BackendRelational Backend = "relational"
	BackendDocument   Backend = "document"
	BackendCache      Backend = "cache"
)

// Mode is the authoritative backend of the selector.
type Mode string

const (
	// ModeRelational routes operations to the relational store.
	ModeRelational Mode = "RELATIONAL"
	// ModeDocument routes operations to the document store. It is reached
	// either directly from configuration or through the fallback
	// transition, and is never left within a process lifetime.
	ModeDocument Mode = "DOCUMENT"
)

// ModeFromFlag maps the boolean configuration flag to a Mode.
func ModeFromFlag(useRelational bool) Mode {
	if useRelational {
		return ModeRelational
	}
	return ModeDocument
}

// Backend returns the store that serves the mode.
func (m Mode) Backend() Backend {
	if m == ModeRelational {
		return BackendRelational
	}
	return BackendDocument
}

// State is the selector lifecycle state.
type State string

const (
	StateUninitialized    State = "UNINITIALIZED"
	StateRelationalActive State = "RELATIONAL_ACTIVE"
	StateDocumentActive   State = "DOCUMENT_ACTIVE"
	StateShutdown         State = "SHUTDOWN"
)

// ErrorInfo records the last error seen for a store.
type ErrorInfo struct {
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// NewErrorInfo captures err at time at. It returns nil for a nil error.
func NewErrorInfo(err error, at time.Time) *ErrorInfo {
	if err == nil {
		return nil
	}
	return &ErrorInfo{Message: err.Error(), At: at}
}

// ConnectionState tracks one store. Connected implies the pool handle is
// non-nil and passed at least one liveness probe.
type ConnectionState struct {
	Attempted   bool       `json:"attempted"`
	Connected   bool       `json:"connected"`
	LastError   *ErrorInfo `json:"lastError,omitempty"`
	ConnectedAt *time.Time `json:"connectedAt,omitempty"`
}

// FallbackState records the one-way RELATIONAL to DOCUMENT transition.
type FallbackState struct {
	Activated   bool       `json:"activated"`
	ActivatedAt *time.Time `json:"activatedAt,omitempty"`
	Reason      string     `json:"reason,omitempty"`
}

// Connections reports per-store connectivity.
type Connections struct {
	Relational bool `json:"relational"`
	Document   bool `json:"document"`
}

// Status is the side-effect-free view returned by GetStatus.
type Status struct {
	Mode           Mode        `json:"mode"`
	FallbackActive bool        `json:"fallbackActive"`
	Connections    Connections `json:"connections"`
	ActiveService  string      `json:"activeService"`
	State          State       `json:"state"`
}

// HealthReport is the health-check result. Its JSON form is the contract
// served by health endpoints.
type HealthReport struct {
	Database    Backend     `json:"database"`
	Healthy     bool        `json:"healthy"`
	Fallback    bool        `json:"fallback"`
	Connections Connections `json:"connections"`
	Timestamp   time.Time   `json:"timestamp"`
	Error       string      `json:"error,omitempty"`
}
