package notifications

import (
	"time"

	"mutualaid/internal/middleware"
	"mutualaid/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Clients only send control frames; anything larger is a misbehaving peer.
	maxInboundSize = 1024

	sendBuffer = 64
)

var droppedNotice = []byte(`{"type":"notifications_dropped","payload":{"reason":"buffer_full"}}`)

// Unregisterer is the part of the hub a client needs when its socket closes.
type Unregisterer interface {
	UnregisterClient(c *Client)
}

// Client is one websocket subscribed to a user's notification stream.
// The stream is server-to-client; inbound frames only keep the connection alive.
type Client struct {
	hub    Unregisterer
	conn   *websocket.Conn
	UserID uint

	// Send is closed by the hub when the client is unregistered.
	Send chan []byte
}

// NewClient wraps conn for userID. conn may be nil in tests.
func NewClient(hub Unregisterer, conn *websocket.Conn, userID uint) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, sendBuffer),
	}
}

// Serve pumps queued notifications to the socket until either side goes away.
// It blocks until the peer disconnects.
func (c *Client) Serve() {
	go c.writeLoop()
	c.readLoop()
}

func (c *Client) readLoop() {
	defer func() {
		c.hub.UnregisterClient(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxInboundSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				middleware.Logger.Warn("notification socket read failed", "user_id", c.UserID, "error", err)
			}
			return
		}
	}
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.Send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Deliver queues payload without blocking. When the buffer is full the
// payload is dropped and the client is told so it can re-fetch.
func (c *Client) Deliver(payload []byte) {
	defer func() {
		// Send was closed by a concurrent unregister.
		if recover() != nil {
			observability.WebSocketBackpressureDrops.WithLabelValues("closed").Inc()
		}
	}()

	select {
	case c.Send <- payload:
		return
	default:
	}

	observability.WebSocketBackpressureDrops.WithLabelValues("full").Inc()
	middleware.Logger.Warn("notification buffer full, dropped event", "user_id", c.UserID)
	select {
	case c.Send <- droppedNotice:
	default:
	}
}
