package websocket

import (
	"context"
	"log/slog"
)

const notifierQueueSize = 256

type pendingPush struct {
	userID uint
	event  any
}

// Notifier bridges synchronous request-handling code into the concurrent
// delivery context. Producers enqueue and return; a single consumer drains
// the queue and performs the fan-out. Delivery is an optimization on top of
// the already-committed notification row, so nothing here reports failure
// back to the producer.
type Notifier struct {
	hub   *Hub
	queue chan pendingPush
}

func NewNotifier(hub *Hub) *Notifier {
	return NewNotifierWithQueue(hub, notifierQueueSize)
}

// NewNotifierWithQueue sizes the push queue explicitly. A size below one
// falls back to the default.
func NewNotifierWithQueue(hub *Hub, queueSize int) *Notifier {
	if queueSize < 1 {
		queueSize = notifierQueueSize
	}
	return &Notifier{
		hub:   hub,
		queue: make(chan pendingPush, queueSize),
	}
}

// Run drains the queue until the context is cancelled. Start it once at
// process start, in its own goroutine.
func (n *Notifier) Run(ctx context.Context) {
	for {
		select {
		case push := <-n.queue:
			n.hub.Broadcast(UserTopic(push.userID), push.event)
		case <-ctx.Done():
			slog.Info("notifier shutting down")
			return
		}
	}
}

// Notify queues a push to the user's live connections and returns
// immediately. When the queue is full the event is dropped; the client
// recovers the notification through the REST surface.
func (n *Notifier) Notify(userID uint, event any) {
	select {
	case n.queue <- pendingPush{userID: userID, event: event}:
	default:
		slog.Warn("notification push queue full, dropping", "userID", userID)
	}
}
