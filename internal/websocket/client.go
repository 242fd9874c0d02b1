package websocket

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Outbound buffer per connection
	sendBufferSize = 256
)

var (
	ErrClientClosed   = errors.New("client disconnected")
	ErrSendBufferFull = errors.New("send buffer full")
)

// Conn is the transport surface the fan-out layer needs from a WebSocket
// connection. *websocket.Conn satisfies it; tests substitute mocks.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Client is one live bidirectional session. It is owned by the Hub once
// admitted; request-handling code only ever reaches it through topic lookups.
type Client struct {
	hub  *Hub
	conn Conn

	// Buffered outbound queue drained by WritePump. Broadcasts enqueue here
	// so fan-out never blocks on a slow peer's socket.
	send chan []byte

	userID   uint
	username string

	mu     sync.Mutex
	topics map[Topic]struct{}

	// sendMu serializes enqueues against the close of the send channel so a
	// broadcast racing a teardown can never send on a closed channel.
	sendMu     sync.Mutex
	sendClosed bool

	closed int32
}

// NewClient wraps an upgraded connection. The caller must start WritePump
// and eventually run a read loop; both trigger teardown on exit.
func NewClient(hub *Hub, conn Conn, userID uint, username string) *Client {
	return newClient(hub, conn, userID, username, sendBufferSize)
}

func newClient(hub *Hub, conn Conn, userID uint, username string, buffer int) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, buffer),
		userID:   userID,
		username: username,
		topics:   make(map[Topic]struct{}),
	}
}

func (c *Client) UserID() uint     { return c.userID }
func (c *Client) Username() string { return c.username }

func (c *Client) isClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

// trackTopic and untrackTopic are called by the Hub under its own lock so the
// client's view of its subscriptions never diverges from the registry's.
func (c *Client) trackTopic(topic Topic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics[topic] = struct{}{}
}

func (c *Client) untrackTopic(topic Topic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.topics, topic)
}

func (c *Client) trackedTopics() []Topic {
	c.mu.Lock()
	defer c.mu.Unlock()
	topics := make([]Topic, 0, len(c.topics))
	for t := range c.topics {
		topics = append(topics, t)
	}
	return topics
}

// Send marshals an event and queues it for delivery to this client only.
func (c *Client) Send(event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return c.enqueue(data)
}

// enqueue hands pre-marshaled bytes to the write pump without blocking.
// A full buffer means the peer stopped draining; the connection is treated
// as dead rather than stalling the sender.
func (c *Client) enqueue(data []byte) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed || c.isClosed() {
		return ErrClientClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		slog.Warn("send buffer full, dropping client", "userID", c.userID)
		return ErrSendBufferFull
	}
}

// closeSend closes the send channel exactly once, under the same lock
// enqueue holds, so no concurrent enqueue can hit the closed channel.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return
	}
	c.sendClosed = true
	close(c.send)
}

// teardown releases the client from every topic it was admitted under and
// closes the transport. Safe to invoke from any trigger (read-loop exit,
// failed write, failed enqueue) any number of times; only the first call
// does the work.
func (c *Client) teardown() {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return
	}
	for _, topic := range c.trackedTopics() {
		c.hub.Remove(topic, c)
	}
	c.closeSend()
	if err := c.conn.Close(); err != nil {
		slog.Debug("error closing connection", "userID", c.userID, "error", err)
	}
	slog.Debug("client torn down", "userID", c.userID)
}

// WritePump drains the send queue onto the transport and keeps the peer
// alive with periodic pings. Run it in its own goroutine, one per client.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.teardown()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				slog.Debug("write failed", "userID", c.userID, "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				slog.Debug("ping failed", "userID", c.userID, "error", err)
				return
			}
		}
	}
}

// prepareRead applies the read limits and pong handling every inbound loop
// uses, whatever it does with the frames afterwards.
func (c *Client) prepareRead() {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
}

// ReadUntilClose consumes and discards inbound frames until the transport
// drops. Notification connections are push-only, so the read loop exists
// solely to detect disconnects and keep pong handling alive.
func (c *Client) ReadUntilClose() {
	defer c.teardown()
	c.prepareRead()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
