package websocket

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
)

func TestAdmitAndSnapshot(t *testing.T) {
	hub := NewHub()
	topic := ChannelTopic(1)

	c1 := NewClient(hub, newMockConn(), 1, "alice")
	c2 := NewClient(hub, newMockConn(), 2, "bob")

	hub.Admit(topic, c1)
	hub.Admit(topic, c2)

	if got := hub.TopicSize(topic); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	// Admitting the same client again must not grow the set.
	hub.Admit(topic, c1)
	if got := hub.TopicSize(topic); got != 2 {
		t.Fatalf("expected duplicate admit to be a no-op, got %d", got)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	hub := NewHub()
	topic := ChannelTopic(7)
	c := NewClient(hub, newMockConn(), 1, "alice")

	hub.Admit(topic, c)
	hub.Remove(topic, c)
	hub.Remove(topic, c)

	if got := hub.TopicSize(topic); got != 0 {
		t.Fatalf("expected empty topic, got %d", got)
	}

	// Removing from a topic the client never joined is also a no-op.
	hub.Remove(ChannelTopic(99), c)
}

func TestEmptyTopicIsDropped(t *testing.T) {
	hub := NewHub()
	topic := ChannelTopic(3)
	c := NewClient(hub, newMockConn(), 1, "alice")

	hub.Admit(topic, c)
	hub.Remove(topic, c)

	hub.mu.RLock()
	_, exists := hub.topics[topic]
	hub.mu.RUnlock()
	if exists {
		t.Fatal("expected empty topic to be garbage collected")
	}
}

func TestSnapshotIsIsolatedCopy(t *testing.T) {
	hub := NewHub()
	topic := ChannelTopic(5)
	c1 := NewClient(hub, newMockConn(), 1, "alice")
	c2 := NewClient(hub, newMockConn(), 2, "bob")

	hub.Admit(topic, c1)
	snap := hub.Snapshot(topic)

	hub.Admit(topic, c2)
	hub.Remove(topic, c1)

	if len(snap) != 1 || snap[0] != c1 {
		t.Fatal("snapshot must not reflect later membership changes")
	}
}

func TestBroadcastDeliversToAllMembers(t *testing.T) {
	hub := NewHub()
	topic := ChannelTopic(1)

	clients := make([]*Client, 3)
	for i := range clients {
		clients[i] = NewClient(hub, newMockConn(), uint(i+1), fmt.Sprintf("user%d", i+1))
		hub.Admit(topic, clients[i])
	}

	hub.Broadcast(topic, TypingEvent{Type: EventTypeTyping, UserID: 1, ChannelID: 1, IsTyping: true})

	for i, c := range clients {
		events := drainClient(c)
		if len(events) != 1 {
			t.Fatalf("client %d: expected 1 event, got %d", i, len(events))
		}
		if events[0]["type"] != EventTypeTyping {
			t.Fatalf("client %d: unexpected event type %v", i, events[0]["type"])
		}
	}
}

func TestBroadcastPreservesOrder(t *testing.T) {
	hub := NewHub()
	topic := ChannelTopic(1)
	c := NewClient(hub, newMockConn(), 1, "alice")
	hub.Admit(topic, c)

	const n = 50
	for i := 0; i < n; i++ {
		hub.Broadcast(topic, MessageEvent{Type: EventTypeMessage, ID: uint(i), ChannelID: 1})
	}

	events := drainClient(c)
	if len(events) != n {
		t.Fatalf("expected %d events, got %d", n, len(events))
	}
	for i, event := range events {
		if uint(event["id"].(float64)) != uint(i) {
			t.Fatalf("event %d delivered out of order: got id %v", i, event["id"])
		}
	}
}

func TestBroadcastToEmptyTopic(t *testing.T) {
	hub := NewHub()
	// Must neither panic nor block.
	hub.Broadcast(ChannelTopic(42), TypingEvent{Type: EventTypeTyping})
}

func TestBroadcastPrunesClientWithFullBuffer(t *testing.T) {
	hub := NewHub()
	topic := ChannelTopic(1)

	healthy := NewClient(hub, newMockConn(), 1, "alice")
	stuck := newClient(hub, newMockConn(), 2, "bob", 1)

	hub.Admit(topic, healthy)
	hub.Admit(topic, stuck)

	// Fill the stuck client's single-slot buffer; the next broadcast cannot
	// be queued for it.
	hub.Broadcast(topic, TypingEvent{Type: EventTypeTyping, UserID: 1})
	hub.Broadcast(topic, TypingEvent{Type: EventTypeTyping, UserID: 1})

	if got := hub.TopicSize(topic); got != 1 {
		t.Fatalf("expected stuck client to be pruned, topic size %d", got)
	}
	if !stuck.isClosed() {
		t.Fatal("expected stuck client to be torn down")
	}

	if events := drainClient(healthy); len(events) != 2 {
		t.Fatalf("healthy client should have received both events, got %d", len(events))
	}
}

func TestBroadcastAfterTeardownDeliversNothing(t *testing.T) {
	hub := NewHub()
	topic := ChannelTopic(1)
	c := NewClient(hub, newMockConn(), 1, "alice")
	hub.Admit(topic, c)

	c.teardown()

	hub.Broadcast(topic, TypingEvent{Type: EventTypeTyping})
	if got := hub.TopicSize(topic); got != 0 {
		t.Fatalf("torn down client still registered, topic size %d", got)
	}
}

func TestTeardownRemovesClientFromAllTopics(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub, newMockConn(), 1, "alice")

	topics := []Topic{ChannelTopic(1), ChannelTopic(2), UserTopic(1)}
	for _, topic := range topics {
		hub.Admit(topic, c)
	}

	c.teardown()
	c.teardown() // second call must be a no-op

	for _, topic := range topics {
		if got := hub.TopicSize(topic); got != 0 {
			t.Fatalf("topic %s still has %d clients after teardown", topic, got)
		}
	}
}

func TestConcurrentAdmitBroadcastRemove(t *testing.T) {
	hub := NewHub()
	topic := ChannelTopic(1)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			c := NewClient(hub, newMockConn(), id, fmt.Sprintf("user%d", id))
			hub.Admit(topic, c)
			hub.Broadcast(topic, TypingEvent{Type: EventTypeTyping, UserID: id})
			c.teardown()
		}(uint(i))
	}
	wg.Wait()

	if got := hub.TopicSize(topic); got != 0 {
		t.Fatalf("expected all clients gone, topic size %d", got)
	}
}

func TestUserAndChannelTopicsAreDisjoint(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub, newMockConn(), 5, "alice")
	hub.Admit(UserTopic(5), c)

	hub.Broadcast(ChannelTopic(5), TypingEvent{Type: EventTypeTyping})
	if events := drainClient(c); len(events) != 0 {
		t.Fatal("channel broadcast must not reach user topic members")
	}

	hub.Broadcast(UserTopic(5), NotificationEvent{Type: EventTypeNotificationCreated})
	if events := drainClient(c); len(events) != 1 {
		t.Fatal("user topic broadcast not delivered")
	}
}

func TestBroadcastMarshalsOnce(t *testing.T) {
	hub := NewHub()
	topic := UserTopic(1)
	c := NewClient(hub, newMockConn(), 1, "alice")
	hub.Admit(topic, c)

	event := NotificationEvent{
		Type: EventTypeNotificationCreated,
		Data: NotificationData{ID: 9, UserID: 1, Kind: "mention", Title: "hi"},
	}
	hub.Broadcast(topic, event)

	data := <-c.send
	var decoded NotificationEvent
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if decoded.Data.ID != 9 || decoded.Data.Kind != "mention" {
		t.Fatalf("unexpected payload: %+v", decoded)
	}
}
