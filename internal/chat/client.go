package chat

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// writeWait bounds a single WriteMessage before the conn is
	// considered dead.
	writeWait = 10 * time.Second

	// pongWait is how long to sit without a pong before closing;
	// pings go out at a fraction of it so a healthy client always
	// answers in time.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Clients don't send chat over the socket (messages go through
	// POST so they persist), so inbound frames are control-only.
	maxInboundSize = 512

	// sendBuffer is the per-client queue; a client this far behind
	// gets dropped.
	sendBuffer = 64
)

// Client is one WebSocket subscriber in a room.
type Client struct {
	roomID string
	conn   *websocket.Conn
	send   chan []byte
	logger *zap.Logger
}

func NewClient(roomID string, conn *websocket.Conn, logger *zap.Logger) *Client {
	return &Client{
		roomID: roomID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		logger: logger,
	}
}

// ReadPump drains the connection until it errors, which is how a
// disconnect is detected. Blocks; run it on the request goroutine.
func (c *Client) ReadPump(hub *Hub) {
	defer func() {
		hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxInboundSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket closed unexpectedly", zap.Error(err))
			}
			return
		}
	}
}

// WritePump serializes all writes to the connection: queued payloads
// plus keepalive pings. gorilla conns allow one concurrent writer, so
// this goroutine is the only place that writes.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel: say goodbye properly.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
