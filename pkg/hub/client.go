package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	// writeWait is how long to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is how long to wait for a pong response.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize allows preview frames through.
	maxMessageSize = 512 * 1024
)

// Client represents a single websocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

// NewClient creates a client and registers it with the hub.
func NewClient(h *Hub, conn *websocket.Conn) *Client {
	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan Message, 256),
	}
	h.register <- client
	return client
}

// Run starts the client's read and write pumps. Call from the
// websocket handler; blocks until the connection closes.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump keeps the connection alive and detects disconnection.
// Clients are broadcast-only; inbound payloads are discarded.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

// writePump is the only goroutine that writes to the connection.
// Preview frames queued behind a slow write are coalesced to the
// newest one; JSON payloads are always delivered in order.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if message.Type == BinaryMessage {
				message = c.latestFrame(message)
			}
			if err := c.writeMessage(message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// latestFrame drains frames queued behind the one just received and
// returns the newest. A JSON payload in the queue stops the drain; the
// superseding frame is flushed first so stream order is preserved.
func (c *Client) latestFrame(frame Message) Message {
	for {
		select {
		case next, ok := <-c.send:
			if !ok {
				return frame
			}
			if next.Type != BinaryMessage {
				if err := c.writeMessage(frame); err != nil {
					return next
				}
				return next
			}
			frame = next
		default:
			return frame
		}
	}
}

func (c *Client) writeMessage(m Message) error {
	wsType := websocket.TextMessage
	if m.Type == BinaryMessage {
		wsType = websocket.BinaryMessage
	}
	return c.conn.WriteMessage(wsType, m.Data)
}
