package websocket

import (
	"sync"

	"github.com/coder/websocket"
)

// Client is one accepted WebSocket connection.
type Client struct {
	ID         string
	RemoteAddr string

	conn *websocket.Conn
	mu   sync.RWMutex
	send chan []byte
}

func newClient(id, remoteAddr string, conn *websocket.Conn, buffer int) *Client {
	return &Client{
		ID:         id,
		RemoteAddr: remoteAddr,
		conn:       conn,
		send:       make(chan []byte, buffer),
	}
}

// SendMessage queues msg without blocking. It returns false when the client
// is closed or its buffer is full, in which case msg is dropped.
func (c *Client) SendMessage(msg []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.send == nil {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// Close stops further sends. It is safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.send != nil {
		close(c.send)
		c.send = nil
	}
}

// outbox returns the send channel, nil once closed.
func (c *Client) outbox() <-chan []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.send
}
