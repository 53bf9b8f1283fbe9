// Package stream fans selector lifecycle events out to live subscribers.
// The Broker is an ext.Extension; the HTTP API exposes it as a
// server-sent event stream.
package stream

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of lifecycle event.
type EventType string

const (
	// Backend events.
	EventBackendConnected    EventType = "backend.connected"
	EventBackendDisconnected EventType = "backend.disconnected"
	EventBackendReconnected  EventType = "backend.reconnected"
	EventBackendError        EventType = "backend.error"

	// Selector events.
	EventInitialized       EventType = "selector.initialized"
	EventFallbackActivated EventType = "selector.fallback_activated"
	EventShutdown          EventType = "selector.shutdown"

	// Operation events.
	EventOperationFailed EventType = "operation.failed"

	// Health events.
	EventHealthChecked EventType = "health.checked"
)

// Event is the envelope delivered to subscribers.
type Event struct {
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"ts"`
	Topic     string          `json:"topic,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// BackendEventData is the payload of backend events.
type BackendEventData struct {
	Backend string `json:"backend"`
	Error   string `json:"error,omitempty"`
}

// SelectorEventData is the payload of selector events.
type SelectorEventData struct {
	Mode           string `json:"mode,omitempty"`
	State          string `json:"state,omitempty"`
	ActiveService  string `json:"active_service,omitempty"`
	FallbackActive bool   `json:"fallback_active"`
	Reason         string `json:"reason,omitempty"`
}

// OperationEventData is the payload of operation events.
type OperationEventData struct {
	Context string `json:"context"`
	Backend string `json:"backend"`
	Role    string `json:"role"`
	Error   string `json:"error"`
}
