package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

// Client is one subscription to a single booking room.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	room   string
	UserID string

	pongWait       time.Duration
	pingPeriod     time.Duration
	maxMessageSize int64
}

func newClient(hub *Hub, conn *websocket.Conn, userID, room string, opts Options) *Client {
	return &Client{
		hub:            hub,
		conn:           conn,
		send:           make(chan []byte, 16),
		room:           room,
		UserID:         userID,
		pongWait:       opts.PongTimeout,
		pingPeriod:     opts.PingInterval,
		maxMessageSize: opts.MaxMessageSize,
	}
}

// readPump only keeps the connection alive. Subscribers never send
// commands, so inbound frames are discarded.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.WithError(err).Warn("Websocket read error")
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
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

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
