package websocket

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"collab-service/internal/models"
)

type stubStore struct {
	mu      sync.Mutex
	saved   []*models.Message
	nextID  uint
	failure error
}

func (s *stubStore) CreateMessage(ctx context.Context, message *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failure != nil {
		return s.failure
	}
	s.nextID++
	message.ID = s.nextID
	message.CreatedAt = time.Now()
	s.saved = append(s.saved, message)
	return nil
}

func (s *stubStore) savedMessages() []*models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Message, len(s.saved))
	copy(out, s.saved)
	return out
}

// runSession feeds the given frames to a fresh session and blocks until the
// read loop exits.
func runSession(t *testing.T, hub *Hub, store MessageStore, channelID uint, frames ...[]byte) (*Client, *mockConn) {
	t.Helper()
	conn := newMockConn()
	client := NewClient(hub, conn, 1, "alice")
	hub.Admit(ChannelTopic(channelID), client)

	done := make(chan struct{})
	go func() {
		defer close(done)
		NewChannelSession(hub, client, store, channelID).Run(context.Background())
	}()

	for _, frame := range frames {
		conn.feed(frame)
	}
	conn.endInput()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("session did not terminate")
	}
	return client, conn
}

func TestSessionSendsConnectedFirst(t *testing.T) {
	hub := NewHub()
	client, _ := runSession(t, hub, &stubStore{}, 3)

	events := drainClient(client)
	if len(events) == 0 {
		t.Fatal("expected at least the connected event")
	}
	first := events[0]
	if first["type"] != EventTypeConnected {
		t.Fatalf("first event must be connected, got %v", first["type"])
	}
	if uint(first["channel_id"].(float64)) != 3 {
		t.Fatalf("unexpected channel in connected event: %v", first["channel_id"])
	}
	if first["username"] != "alice" {
		t.Fatalf("unexpected username: %v", first["username"])
	}
}

func TestSessionPersistsAndBroadcastsMessage(t *testing.T) {
	hub := NewHub()
	store := &stubStore{}

	// A second member observes the fan-out.
	observer := NewClient(hub, newMockConn(), 2, "bob")
	hub.Admit(ChannelTopic(3), observer)

	sender, _ := runSession(t, hub, store, 3,
		[]byte(`{"type":"message","content":"hello channel"}`),
	)

	saved := store.savedMessages()
	if len(saved) != 1 {
		t.Fatalf("expected 1 persisted message, got %d", len(saved))
	}
	if saved[0].Content != "hello channel" || saved[0].ChannelID != 3 || saved[0].SenderID != 1 {
		t.Fatalf("unexpected persisted message: %+v", saved[0])
	}

	for name, c := range map[string]*Client{"sender": sender, "observer": observer} {
		events := drainClient(c)
		var found map[string]any
		for _, event := range events {
			if event["type"] == EventTypeMessage {
				found = event
				break
			}
		}
		if found == nil {
			t.Fatalf("%s never received the message event", name)
		}
		if found["content"] != "hello channel" || found["sender_username"] != "alice" {
			t.Fatalf("%s received malformed event: %v", name, found)
		}
		if uint(found["id"].(float64)) != saved[0].ID {
			t.Fatalf("%s: broadcast id %v does not match persisted id %d", name, found["id"], saved[0].ID)
		}
	}
}

func TestSessionStoreFailureSuppressesBroadcast(t *testing.T) {
	hub := NewHub()
	store := &stubStore{failure: errors.New("db down")}

	observer := NewClient(hub, newMockConn(), 2, "bob")
	hub.Admit(ChannelTopic(3), observer)

	runSession(t, hub, store, 3, []byte(`{"type":"message","content":"lost"}`))

	for _, event := range drainClient(observer) {
		if event["type"] == EventTypeMessage {
			t.Fatal("unpersisted message must not be broadcast")
		}
	}
}

func TestSessionRelaysTypingWithoutPersisting(t *testing.T) {
	hub := NewHub()
	store := &stubStore{}

	observer := NewClient(hub, newMockConn(), 2, "bob")
	hub.Admit(ChannelTopic(3), observer)

	runSession(t, hub, store, 3, []byte(`{"type":"typing","is_typing":true}`))

	if len(store.savedMessages()) != 0 {
		t.Fatal("typing frames must not be persisted")
	}

	var typing map[string]any
	for _, event := range drainClient(observer) {
		if event["type"] == EventTypeTyping {
			typing = event
			break
		}
	}
	if typing == nil {
		t.Fatal("observer never received typing event")
	}
	if typing["is_typing"] != true || typing["username"] != "alice" {
		t.Fatalf("malformed typing event: %v", typing)
	}
}

func TestSessionIgnoresUnknownAndMalformedFrames(t *testing.T) {
	hub := NewHub()
	store := &stubStore{}

	client, _ := runSession(t, hub, store, 3,
		[]byte(`{"type":"ping"}`),
		[]byte(`not json at all`),
		[]byte(`{"type":"message","content":"still alive"}`),
	)

	// The connection survived both bad frames: the later message frame was
	// processed normally.
	saved := store.savedMessages()
	if len(saved) != 1 || saved[0].Content != "still alive" {
		t.Fatalf("session did not survive unknown frames: %+v", saved)
	}

	var messages int
	for _, event := range drainClient(client) {
		if event["type"] == EventTypeMessage {
			messages++
		}
	}
	if messages != 1 {
		t.Fatalf("expected exactly 1 message event, got %d", messages)
	}
}

func TestSessionTeardownOnDisconnect(t *testing.T) {
	hub := NewHub()
	client, conn := runSession(t, hub, &stubStore{}, 3)

	if got := hub.TopicSize(ChannelTopic(3)); got != 0 {
		t.Fatalf("client still registered after disconnect, topic size %d", got)
	}
	if !client.isClosed() {
		t.Fatal("client not marked closed")
	}
	if !conn.isClosed() {
		t.Fatal("transport not closed")
	}
}
