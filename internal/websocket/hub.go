package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Hub is the connection registry and event broadcaster. One instance is
// constructed at process start and injected into everything that fans out
// events; there is no package-level registry state.
type Hub struct {
	mu     sync.RWMutex
	topics map[Topic]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		topics: make(map[Topic]map[*Client]struct{}),
	}
}

// Admit registers the client under a topic. The client is reachable by
// broadcasts the moment this returns; admitting the same client twice under
// the same topic is a no-op.
func (h *Hub) Admit(topic Topic, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.topics[topic]
	if set == nil {
		set = make(map[*Client]struct{})
		h.topics[topic] = set
	}
	set[c] = struct{}{}
	c.trackTopic(topic)
	slog.Debug("client admitted", "topic", topic, "userID", c.userID)
}

// Remove unregisters the client from a topic. A no-op when the client is
// already gone, so concurrent teardown paths can all call it safely. Topics
// left empty are dropped from the map to bound memory for short-lived
// channels.
func (h *Hub) Remove(topic Topic, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.topics[topic]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.topics, topic)
	}
	c.untrackTopic(topic)
	slog.Debug("client removed", "topic", topic, "userID", c.userID)
}

// Snapshot returns a copy of the topic's current connection set. Callers
// iterate the copy freely while admits and removes proceed underneath.
func (h *Hub) Snapshot(topic Topic) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	set := h.topics[topic]
	clients := make([]*Client, 0, len(set))
	for c := range set {
		clients = append(clients, c)
	}
	return clients
}

// TopicSize reports how many connections are currently admitted under a topic.
func (h *Hub) TopicSize(topic Topic) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Broadcast marshals the event once and queues it to every connection on the
// topic. Delivery is best-effort per recipient: a connection whose queue is
// unavailable does not abort the rest of the fan-out and is torn down after
// the pass, never while the set is being iterated. The actual socket writes
// happen on each client's write pump, so callers return as soon as the
// hand-off completes.
func (h *Hub) Broadcast(topic Topic, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal broadcast event", "topic", topic, "error", err)
		return
	}

	var failed []*Client
	for _, c := range h.Snapshot(topic) {
		if err := c.enqueue(data); err != nil {
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		slog.Debug("pruning undeliverable client", "topic", topic, "userID", c.userID)
		c.teardown()
	}
}
