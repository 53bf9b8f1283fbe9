package stream

import (
	"sync"
	"sync/atomic"
)

// Subscriber receives the events of the topics it is subscribed to on a
// buffered channel. Delivery never blocks the publisher: when the buffer
// is full the event is dropped and counted.
type Subscriber struct {
	id string
	ch chan *Event

	// mu guards closing ch against concurrent sends.
	mu     sync.RWMutex
	closed bool

	dropped atomic.Int64
}

// NewSubscriber creates a subscriber with the given buffer size.
func NewSubscriber(id string, bufferSize int) *Subscriber {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Subscriber{id: id, ch: make(chan *Event, bufferSize)}
}

// ID returns the subscriber identifier.
func (s *Subscriber) ID() string { return s.id }

// C returns the event channel. It is closed when the subscriber is
// removed or the broker shuts down.
func (s *Subscriber) C() <-chan *Event { return s.ch }

// Dropped returns how many events did not fit in the buffer.
func (s *Subscriber) Dropped() int64 { return s.dropped.Load() }

// send delivers evt without blocking. It reports false when the
// subscriber is closed or its buffer is full.
func (s *Subscriber) send(evt *Event) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- evt:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

// Close closes the event channel. Safe to call multiple times.
func (s *Subscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
