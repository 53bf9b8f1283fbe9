package duostore

import "time"

// EventType classifies a pool client lifecycle event.
type EventType string

const (
	EventConnected    EventType = "connected"
	EventDisconnected EventType = "disconnected"
	EventReconnected  EventType = "reconnected"
	EventError        EventType = "error"
)

// Event is emitted by pool clients on connect, disconnect, reconnect and
// error. Err is set for EventError and for unplanned disconnects.
type Event struct {
	Backend Backend
	Type    EventType
	Err     error
	At      time.Time
}

// EventHandler receives pool client events. Handlers may be called from
// driver goroutines and must not block.
type EventHandler func(Event)
