package stream_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/xraph/duostore"
	"github.com/xraph/duostore/ext"
	"github.com/xraph/duostore/stream"
)

func receive(t *testing.T, sub *stream.Subscriber) *stream.Event {
	t.Helper()
	select {
	case evt, ok := <-sub.C():
		if !ok {
			t.Fatal("subscriber channel closed")
		}
		return evt
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return nil
}

func expectNone(t *testing.T, sub *stream.Subscriber) {
	t.Helper()
	select {
	case evt := <-sub.C():
		t.Fatalf("unexpected event %q", evt.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroker_SubscribeAndPublish(t *testing.T) {
	t.Parallel()

	b := stream.NewBroker()
	sub := b.Subscribe(stream.TopicBackends)

	if err := b.OnBackendConnected(context.Background(), duostore.BackendDocument); err != nil {
		t.Fatal(err)
	}

	evt := receive(t, sub)
	if evt.Type != stream.EventBackendConnected {
		t.Errorf("Type = %q, want %q", evt.Type, stream.EventBackendConnected)
	}
	if evt.Topic != "backend:document" {
		t.Errorf("Topic = %q", evt.Topic)
	}
	var data stream.BackendEventData
	if err := json.Unmarshal(evt.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Backend != "document" {
		t.Errorf("Backend = %q", data.Backend)
	}
	if !strings.HasPrefix(sub.ID(), "sub_") {
		t.Errorf("subscriber id = %q", sub.ID())
	}
}

func TestBroker_TopicRouting(t *testing.T) {
	t.Parallel()

	b := stream.NewBroker()
	firehose := b.Subscribe(stream.TopicFirehose)
	selectorSub := b.Subscribe(stream.TopicSelector)
	relSub := b.Subscribe(stream.BackendTopic(duostore.BackendRelational))
	ctx := context.Background()

	_ = b.OnFallbackActivated(ctx, "relational down")

	if got := receive(t, firehose).Type; got != stream.EventFallbackActivated {
		t.Errorf("firehose got %q", got)
	}
	evt := receive(t, selectorSub)
	var data stream.SelectorEventData
	if err := json.Unmarshal(evt.Data, &data); err != nil {
		t.Fatal(err)
	}
	if !data.FallbackActive || data.Reason != "relational down" || data.Mode != "DOCUMENT" {
		t.Errorf("data = %+v", data)
	}
	expectNone(t, relSub)

	_ = b.OnOperationFailed(ctx, &duostore.Operation{
		Context: "products.list",
		Backend: duostore.BackendRelational,
		Role:    duostore.RolePrimary,
	}, errors.New("timeout"))

	if got := receive(t, relSub).Type; got != stream.EventOperationFailed {
		t.Errorf("relational topic got %q", got)
	}
	expectNone(t, selectorSub)
}

func TestBroker_DeduplicatesAcrossTopics(t *testing.T) {
	t.Parallel()

	b := stream.NewBroker()
	sub := b.Subscribe(stream.TopicFirehose, stream.TopicHealth, stream.BackendTopic(duostore.BackendDocument))

	_ = b.OnHealthChecked(context.Background(), duostore.HealthReport{Database: duostore.BackendDocument, Healthy: true})

	receive(t, sub)
	expectNone(t, sub)
}

func TestBroker_FullBufferDrops(t *testing.T) {
	t.Parallel()

	b := stream.NewBroker(stream.WithBufferSize(1))
	sub := b.Subscribe(stream.TopicBackends)
	ctx := context.Background()

	_ = b.OnBackendConnected(ctx, duostore.BackendRelational)
	_ = b.OnBackendConnected(ctx, duostore.BackendDocument)

	if sub.Dropped() != 1 {
		t.Errorf("Dropped = %d, want 1", sub.Dropped())
	}
	stats := b.Stats()
	if stats.TotalPublished != 1 || stats.TotalDropped != 1 || stats.SubscriberCount != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestBroker_RemoveSubscriber(t *testing.T) {
	t.Parallel()

	b := stream.NewBroker()
	sub := b.Subscribe(stream.TopicFirehose)
	b.RemoveSubscriber(sub.ID())
	b.RemoveSubscriber(sub.ID())

	if _, ok := <-sub.C(); ok {
		t.Error("channel should be closed")
	}
	if stats := b.Stats(); stats.SubscriberCount != 0 || stats.TopicCount != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestBroker_ShutdownClosesStreams(t *testing.T) {
	t.Parallel()

	b := stream.NewBroker()
	sub := b.Subscribe(stream.TopicSelector)

	if err := b.OnShutdown(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := receive(t, sub).Type; got != stream.EventShutdown {
		t.Errorf("got %q, want shutdown", got)
	}
	if _, ok := <-sub.C(); ok {
		t.Error("channel should be closed after shutdown")
	}

	late := b.Subscribe(stream.TopicFirehose)
	if _, ok := <-late.C(); ok {
		t.Error("subscribing after shutdown should return a closed subscriber")
	}
}

func TestBroker_ViaRegistry(t *testing.T) {
	t.Parallel()

	b := stream.NewBroker()
	sub := b.Subscribe(stream.TopicFirehose)

	reg := ext.NewRegistry(slog.Default())
	reg.Register(b)
	reg.EmitEvent(context.Background(), duostore.Event{
		Type:    duostore.EventDisconnected,
		Backend: duostore.BackendDocument,
		Err:     errors.New("heartbeat failed"),
	})

	evt := receive(t, sub)
	if evt.Type != stream.EventBackendDisconnected {
		t.Fatalf("Type = %q", evt.Type)
	}
	var data stream.BackendEventData
	_ = json.Unmarshal(evt.Data, &data)
	if data.Error != "heartbeat failed" {
		t.Errorf("Error = %q", data.Error)
	}
}

func TestValidateTopic(t *testing.T) {
	tests := []struct {
		topic string
		ok    bool
	}{
		{stream.TopicFirehose, true},
		{stream.TopicBackends, true},
		{stream.TopicSelector, true},
		{stream.TopicOperations, true},
		{stream.TopicHealth, true},
		{"backend:relational", true},
		{"backend:document", true},
		{"backend:cache", true},
		{"backend:oracle", false},
		{"jobs", false},
		{"", false},
	}
	for _, tt := range tests {
		err := stream.ValidateTopic(tt.topic)
		if (err == nil) != tt.ok {
			t.Errorf("ValidateTopic(%q) = %v, want ok=%v", tt.topic, err, tt.ok)
		}
	}
}
