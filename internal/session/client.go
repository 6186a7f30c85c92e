package session

import (
	"sync"

	"github.com/gorilla/websocket"

	"collabtext/internal/models"
)

// Client is one live connection handle. Frames are serialized through the
// client mutex because gorilla connections allow a single writer.
type Client struct {
	ID   string
	Conn *websocket.Conn
	mu   sync.Mutex
	hook func(models.WSFrame)
}

func NewClient(id string, conn *websocket.Conn) *Client {
	return &Client{ID: id, Conn: conn}
}

// SetSendHook replaces the default WebSocket sender (used in tests).
func (c *Client) SetSendHook(fn func(models.WSFrame)) {
	c.mu.Lock()
	c.hook = fn
	c.mu.Unlock()
}

func (c *Client) Send(frame models.WSFrame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hook != nil {
		c.hook(frame)
		return
	}
	if c.Conn == nil {
		return
	}
	_ = c.Conn.WriteJSON(frame)
}

// SendError reports a failure to this connection only.
func (c *Client) SendError(message string) {
	c.Send(models.WSFrame{Type: "error", Data: models.ErrorPayload{Message: message}})
}
