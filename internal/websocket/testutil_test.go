package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"time"
)

var errConnClosed = errors.New("connection closed")

// mockConn is a scriptable transport. Inbound frames are fed through the
// reads channel; everything written by the client side is captured for
// assertions. failWrites makes every write fail so prune paths can be
// exercised without a real socket.
type mockConn struct {
	mu         sync.Mutex
	written    [][]byte
	closed     bool
	failWrites bool

	reads chan []byte
}

func newMockConn() *mockConn {
	return &mockConn{reads: make(chan []byte, 16)}
}

func (m *mockConn) ReadMessage() (int, []byte, error) {
	data, ok := <-m.reads
	if !ok {
		return 0, nil, errConnClosed
	}
	return 1, data, nil
}

func (m *mockConn) WriteMessage(messageType int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites || m.closed {
		return errConnClosed
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	m.written = append(m.written, buf)
	return nil
}

func (m *mockConn) WriteControl(messageType int, data []byte, deadline time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites || m.closed {
		return errConnClosed
	}
	return nil
}

func (m *mockConn) SetReadLimit(limit int64)            {}
func (m *mockConn) SetReadDeadline(t time.Time) error   { return nil }
func (m *mockConn) SetWriteDeadline(t time.Time) error  { return nil }
func (m *mockConn) SetPongHandler(h func(string) error) {}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.reads)
	}
	return nil
}

// feed queues an inbound frame for the session read loop.
func (m *mockConn) feed(data []byte) {
	m.reads <- data
}

// endInput terminates the read loop as a peer disconnect would.
func (m *mockConn) endInput() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.reads)
	}
}

func (m *mockConn) writtenFrames() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	frames := make([][]byte, len(m.written))
	copy(frames, m.written)
	return frames
}

func (m *mockConn) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// drainClient pulls everything currently queued on the client's send buffer,
// decoding each payload into a generic map. Used when tests do not run a
// write pump.
func drainClient(c *Client) []map[string]any {
	var events []map[string]any
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return events
			}
			var event map[string]any
			if err := json.Unmarshal(data, &event); err == nil {
				events = append(events, event)
			}
		default:
			return events
		}
	}
}
