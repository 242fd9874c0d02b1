package websocket

import (
	"context"
	"testing"
	"time"
)

func TestNotifierDeliversToUserTopic(t *testing.T) {
	hub := NewHub()
	notifier := NewNotifier(hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go notifier.Run(ctx)

	c := NewClient(hub, newMockConn(), 8, "alice")
	hub.Admit(UserTopic(8), c)

	notifier.Notify(8, NotificationEvent{
		Type: EventTypeNotificationCreated,
		Data: NotificationData{ID: 1, UserID: 8, Kind: "mention", Title: "alice mentioned you"},
	})

	deadline := time.After(2 * time.Second)
	for {
		if events := drainClient(c); len(events) > 0 {
			if events[0]["type"] != EventTypeNotificationCreated {
				t.Fatalf("unexpected event type %v", events[0]["type"])
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("notification never delivered")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestNotifyWithNoConnectionsReturnsSilently(t *testing.T) {
	hub := NewHub()
	notifier := NewNotifier(hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go notifier.Run(ctx)

	// The user has no live connections; the call must not block or panic.
	notifier.Notify(999, NotificationEvent{Type: EventTypeNotificationCreated})
}

func TestNotifyDoesNotBlockWhenConsumerStopped(t *testing.T) {
	hub := NewHub()
	notifier := NewNotifierWithQueue(hub, 2)

	// No consumer running. Fill the queue past capacity; extra events are
	// dropped rather than stalling the caller.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			notifier.Notify(1, NotificationEvent{Type: EventTypeNotificationCreated})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a full queue")
	}
}

func TestNotifierStopsOnContextCancel(t *testing.T) {
	hub := NewHub()
	notifier := NewNotifier(hub)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		notifier.Run(ctx)
	}()

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("notifier did not stop on cancel")
	}
}

func TestNotificationIsolationBetweenUsers(t *testing.T) {
	hub := NewHub()
	notifier := NewNotifier(hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go notifier.Run(ctx)

	alice := NewClient(hub, newMockConn(), 1, "alice")
	bob := NewClient(hub, newMockConn(), 2, "bob")
	hub.Admit(UserTopic(1), alice)
	hub.Admit(UserTopic(2), bob)

	notifier.Notify(1, NotificationEvent{
		Type: EventTypeNotificationCreated,
		Data: NotificationData{UserID: 1},
	})

	deadline := time.After(2 * time.Second)
	for len(drainClient(alice)) == 0 {
		select {
		case <-deadline:
			t.Fatal("alice never received her notification")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if events := drainClient(bob); len(events) != 0 {
		t.Fatal("bob received a notification addressed to alice")
	}
}
