package stream

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xraph/duostore"
)

// Topic names:
//
//	backend:<name>  events of one store
//	backends        every backend event
//	selector        initialization, fallback and shutdown
//	operations      failed operations
//	health          health-check results
//	firehose        everything

const (
	TopicBackends   = "backends"
	TopicSelector   = "selector"
	TopicOperations = "operations"
	TopicHealth     = "health"
	TopicFirehose   = "firehose"
)

// BackendTopic returns the topic of one store's events.
func BackendTopic(b duostore.Backend) string { return "backend:" + string(b) }

// TopicRegistry manages subscriber sets per topic.
// It is safe for concurrent use.
type TopicRegistry struct {
	mu     sync.RWMutex
	topics map[string]map[string]*Subscriber // topic → subscriberID → subscriber
}

// NewTopicRegistry creates an empty topic registry.
func NewTopicRegistry() *TopicRegistry {
	return &TopicRegistry{topics: make(map[string]map[string]*Subscriber)}
}

// Subscribe adds sub to topic.
func (tr *TopicRegistry) Subscribe(topic string, sub *Subscriber) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	subs, ok := tr.topics[topic]
	if !ok {
		subs = make(map[string]*Subscriber)
		tr.topics[topic] = subs
	}
	subs[sub.ID()] = sub
}

// UnsubscribeAll removes a subscriber from every topic and drops topics
// left empty.
func (tr *TopicRegistry) UnsubscribeAll(subscriberID string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	for topic, subs := range tr.topics {
		delete(subs, subscriberID)
		if len(subs) == 0 {
			delete(tr.topics, topic)
		}
	}
}

// Broadcast delivers evt once to every subscriber of any of topics and
// returns the number of deliveries.
func (tr *TopicRegistry) Broadcast(topics []string, evt *Event) int {
	tr.mu.RLock()
	seen := make(map[string]*Subscriber)
	for _, topic := range topics {
		for id, sub := range tr.topics[topic] {
			seen[id] = sub
		}
	}
	tr.mu.RUnlock()

	delivered := 0
	for _, sub := range seen {
		if sub.send(evt) {
			delivered++
		}
	}
	return delivered
}

// TopicCount returns the number of topics with subscribers.
func (tr *TopicRegistry) TopicCount() int {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return len(tr.topics)
}

// SubscriberCount returns the number of subscribers on topic.
func (tr *TopicRegistry) SubscriberCount(topic string) int {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return len(tr.topics[topic])
}

// resolveTopics returns every topic evt is published on.
func resolveTopics(evt *Event) []string {
	topics := []string{TopicFirehose}

	switch t := string(evt.Type); {
	case strings.HasPrefix(t, "backend."):
		topics = append(topics, TopicBackends)
	case strings.HasPrefix(t, "selector."):
		topics = append(topics, TopicSelector)
	case strings.HasPrefix(t, "operation."):
		topics = append(topics, TopicOperations)
	case strings.HasPrefix(t, "health."):
		topics = append(topics, TopicHealth)
	}

	if evt.Topic != "" {
		topics = append(topics, evt.Topic)
	}
	return topics
}

// ValidateTopic checks whether topic can be subscribed to.
func ValidateTopic(topic string) error {
	switch topic {
	case TopicBackends, TopicSelector, TopicOperations, TopicHealth, TopicFirehose:
		return nil
	}

	name, ok := strings.CutPrefix(topic, "backend:")
	if !ok {
		return fmt.Errorf("stream: invalid topic %q", topic)
	}
	switch duostore.Backend(name) {
	case duostore.BackendRelational, duostore.BackendDocument, duostore.BackendCache:
		return nil
	default:
		return fmt.Errorf("stream: unknown backend %q", name)
	}
}
