package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"fundingarb/internal/funding"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 8
)

// Client is one connected subscriber. Writes are serialized through the send
// channel; no other per-subscriber state is kept.
type Client struct {
	ID   uuid.UUID
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
	send   chan funding.SnapshotView
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.New(),
		conn: conn,
		send: make(chan funding.SnapshotView, sendBufferSize),
	}
}

// enqueue offers a view to the client without blocking. It reports false
// when the client is closed or its buffer is full (slow consumer).
func (c *Client) enqueue(view funding.SnapshotView) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- view:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) writeLoop() {
	defer c.conn.Close()
	for view := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(view); err != nil {
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}
