package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xraph/duostore"
	"github.com/xraph/duostore/ext"
	"github.com/xraph/duostore/id"
)

// Compile-time interface checks.
var (
	_ ext.Extension           = (*Broker)(nil)
	_ ext.BackendConnected    = (*Broker)(nil)
	_ ext.BackendDisconnected = (*Broker)(nil)
	_ ext.BackendReconnected  = (*Broker)(nil)
	_ ext.BackendError        = (*Broker)(nil)
	_ ext.Initialized         = (*Broker)(nil)
	_ ext.FallbackActivated   = (*Broker)(nil)
	_ ext.OperationFailed     = (*Broker)(nil)
	_ ext.HealthChecked       = (*Broker)(nil)
	_ ext.Shutdown            = (*Broker)(nil)
)

// DefaultBufferSize is the default per-subscriber event buffer.
const DefaultBufferSize = 64

// Broker receives lifecycle events from the selector's extension registry
// and fans them out to subscribers by topic.
type Broker struct {
	topics *TopicRegistry
	logger *slog.Logger

	subscribers sync.Map // subscriberID → *Subscriber
	closed      atomic.Bool

	totalPublished atomic.Int64

	bufferSize int
}

// Option configures a Broker.
type Option func(*Broker)

// WithBufferSize sets the per-subscriber event buffer size.
func WithBufferSize(size int) Option {
	return func(b *Broker) { b.bufferSize = size }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *Broker) { b.logger = l }
}

// NewBroker creates a broker.
func NewBroker(opts ...Option) *Broker {
	b := &Broker{
		topics:     NewTopicRegistry(),
		logger:     slog.Default(),
		bufferSize: DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name implements ext.Extension.
func (b *Broker) Name() string { return "stream-broker" }

// Subscribe registers a new subscriber on topics. Once the broker is
// closed it returns a subscriber whose channel is already closed.
func (b *Broker) Subscribe(topics ...string) *Subscriber {
	sub := NewSubscriber(id.New(id.PrefixSubscriber).String(), b.bufferSize)
	if b.closed.Load() {
		sub.Close()
		return sub
	}
	b.subscribers.Store(sub.ID(), sub)
	for _, topic := range topics {
		b.topics.Subscribe(topic, sub)
	}
	if b.closed.Load() {
		b.RemoveSubscriber(sub.ID())
		return sub
	}
	b.logger.Debug("stream subscriber added",
		slog.String("subscriber", sub.ID()),
		slog.Any("topics", topics),
	)
	return sub
}

// RemoveSubscriber removes a subscriber from all topics and closes it.
func (b *Broker) RemoveSubscriber(subscriberID string) {
	b.topics.UnsubscribeAll(subscriberID)
	if val, ok := b.subscribers.LoadAndDelete(subscriberID); ok {
		val.(*Subscriber).Close() //nolint:forcetypeassert // only *Subscriber is stored
	}
}

// Close removes every subscriber and rejects new ones. Open event streams
// end when their channel closes.
func (b *Broker) Close() {
	if !b.closed.CompareAndSwap(false, true) {
		return
	}
	b.subscribers.Range(func(key, _ any) bool {
		b.RemoveSubscriber(key.(string)) //nolint:forcetypeassert // keys are subscriber IDs
		return true
	})
}

// Stats returns broker statistics.
func (b *Broker) Stats() Stats {
	var count int
	var dropped int64
	b.subscribers.Range(func(_, val any) bool {
		count++
		dropped += val.(*Subscriber).Dropped() //nolint:forcetypeassert // only *Subscriber is stored
		return true
	})
	return Stats{
		TopicCount:      b.topics.TopicCount(),
		SubscriberCount: count,
		TotalPublished:  b.totalPublished.Load(),
		TotalDropped:    dropped,
	}
}

// Stats contains broker metrics.
type Stats struct {
	TopicCount      int   `json:"topic_count"`
	SubscriberCount int   `json:"subscriber_count"`
	TotalPublished  int64 `json:"total_published"`
	TotalDropped    int64 `json:"total_dropped"`
}

func (b *Broker) publish(typ EventType, topic string, data any) {
	evt := &Event{
		Type:      typ,
		Timestamp: time.Now().UTC(),
		Topic:     topic,
		Data:      mustMarshal(data),
	}
	delivered := b.topics.Broadcast(resolveTopics(evt), evt)
	b.totalPublished.Add(int64(delivered))
}

// mustMarshal marshals data to JSON, panicking on error (programming error).
func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic("stream: marshal event data: " + err.Error())
	}
	return data
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ── Backend lifecycle hooks ─────────────────────────

func (b *Broker) OnBackendConnected(_ context.Context, backend duostore.Backend) error {
	b.publish(EventBackendConnected, BackendTopic(backend), BackendEventData{Backend: string(backend)})
	return nil
}

func (b *Broker) OnBackendDisconnected(_ context.Context, backend duostore.Backend, err error) error {
	b.publish(EventBackendDisconnected, BackendTopic(backend),
		BackendEventData{Backend: string(backend), Error: errString(err)})
	return nil
}

func (b *Broker) OnBackendReconnected(_ context.Context, backend duostore.Backend) error {
	b.publish(EventBackendReconnected, BackendTopic(backend), BackendEventData{Backend: string(backend)})
	return nil
}

func (b *Broker) OnBackendError(_ context.Context, backend duostore.Backend, err error) error {
	b.publish(EventBackendError, BackendTopic(backend),
		BackendEventData{Backend: string(backend), Error: errString(err)})
	return nil
}

// ── Selector hooks ──────────────────────────────────

func (b *Broker) OnInitialized(_ context.Context, status duostore.Status) error {
	b.publish(EventInitialized, "", SelectorEventData{
		Mode:           string(status.Mode),
		State:          string(status.State),
		ActiveService:  status.ActiveService,
		FallbackActive: status.FallbackActive,
	})
	return nil
}

func (b *Broker) OnFallbackActivated(_ context.Context, reason string) error {
	b.publish(EventFallbackActivated, "", SelectorEventData{
		Mode:           string(duostore.ModeDocument),
		FallbackActive: true,
		Reason:         reason,
	})
	return nil
}

func (b *Broker) OnOperationFailed(_ context.Context, op *duostore.Operation, err error) error {
	b.publish(EventOperationFailed, BackendTopic(op.Backend), OperationEventData{
		Context: op.Context,
		Backend: string(op.Backend),
		Role:    string(op.Role),
		Error:   errString(err),
	})
	return nil
}

func (b *Broker) OnHealthChecked(_ context.Context, report duostore.HealthReport) error {
	b.publish(EventHealthChecked, BackendTopic(report.Database), report)
	return nil
}

// OnShutdown publishes the shutdown event, then closes the broker.
func (b *Broker) OnShutdown(_ context.Context) error {
	b.publish(EventShutdown, "", SelectorEventData{})
	b.Close()
	return nil
}
