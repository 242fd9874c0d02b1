package websocket

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestSendAfterTeardownFails(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub, newMockConn(), 1, "alice")
	c.teardown()

	if err := c.Send(TypingEvent{Type: EventTypeTyping}); !errors.Is(err, ErrClientClosed) {
		t.Fatalf("expected ErrClientClosed, got %v", err)
	}
}

func TestEnqueueRacingTeardownDoesNotPanic(t *testing.T) {
	for i := 0; i < 50; i++ {
		hub := NewHub()
		c := NewClient(hub, newMockConn(), 1, "alice")
		hub.Admit(ChannelTopic(1), c)

		var wg sync.WaitGroup
		start := make(chan struct{})
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				for j := 0; j < 20; j++ {
					c.enqueue([]byte(`{"type":"typing"}`))
				}
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			c.teardown()
		}()

		close(start)
		wg.Wait()

		if err := c.enqueue([]byte(`{}`)); !errors.Is(err, ErrClientClosed) {
			t.Fatalf("enqueue after teardown: expected ErrClientClosed, got %v", err)
		}
	}
}

func TestDrainAfterTeardownReturns(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub, newMockConn(), 1, "alice")
	if err := c.Send(TypingEvent{Type: EventTypeTyping, UserID: 1}); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	c.teardown()

	done := make(chan []map[string]any, 1)
	go func() { done <- drainClient(c) }()

	select {
	case events := <-done:
		if len(events) != 1 {
			t.Fatalf("expected the queued event to survive teardown, got %d", len(events))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("drain blocked on a torn-down client")
	}
}

func TestSendFailsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	c := newClient(hub, newMockConn(), 1, "alice", 1)

	if err := c.Send(TypingEvent{Type: EventTypeTyping}); err != nil {
		t.Fatalf("first send should fit the buffer: %v", err)
	}
	if err := c.Send(TypingEvent{Type: EventTypeTyping}); !errors.Is(err, ErrSendBufferFull) {
		t.Fatalf("expected ErrSendBufferFull, got %v", err)
	}
}

func TestWritePumpFlushesQueuedEvents(t *testing.T) {
	hub := NewHub()
	conn := newMockConn()
	c := NewClient(hub, conn, 1, "alice")

	if err := c.Send(TypingEvent{Type: EventTypeTyping, UserID: 1}); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	go c.WritePump()

	deadline := time.After(2 * time.Second)
	for len(conn.writtenFrames()) == 0 {
		select {
		case <-deadline:
			t.Fatal("write pump never flushed the queued event")
		case <-time.After(10 * time.Millisecond):
		}
	}

	c.teardown()
}

func TestWritePumpTearsDownOnWriteFailure(t *testing.T) {
	hub := NewHub()
	conn := newMockConn()
	conn.failWrites = true
	c := NewClient(hub, conn, 1, "alice")
	hub.Admit(ChannelTopic(1), c)

	if err := c.Send(TypingEvent{Type: EventTypeTyping}); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.WritePump()
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("write pump did not exit on write failure")
	}

	if !c.isClosed() {
		t.Fatal("client not torn down after write failure")
	}
	if got := hub.TopicSize(ChannelTopic(1)); got != 0 {
		t.Fatalf("client still registered after write failure, topic size %d", got)
	}
}

func TestWritePumpExitsWhenSendChannelCloses(t *testing.T) {
	hub := NewHub()
	conn := newMockConn()
	c := NewClient(hub, conn, 1, "alice")

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.WritePump()
	}()

	c.teardown()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("write pump did not exit after teardown")
	}
}
