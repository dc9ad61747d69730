package ws

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"taskpanel/internal/domain"
	"taskpanel/internal/events"
)

const (
	// writeWait is the deadline for a single outbound frame.
	writeWait = 10 * time.Second

	// pongWait is how long a connection may stay silent before it is
	// considered dead; pings go out at pingPeriod to keep it alive.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// sendBuffer is the per-connection outbound queue. When it fills,
	// further events for this connection are dropped; delivery is
	// best-effort by contract.
	sendBuffer = 64
)

// client is one websocket connection. It holds at most one task
// subscription and, until the auth frame arrives, no principal.
type client struct {
	sessionID string
	conn      *websocket.Conn
	send      chan interface{}
	done      chan struct{}
	principal *domain.Principal
	logger    *slog.Logger
}

// Deliver implements events.Subscriber. It never blocks: the event is
// queued or, if the connection cannot keep up, dropped.
func (c *client) Deliver(event events.Event) {
	select {
	case c.send <- event:
	case <-c.done:
	default:
		c.logger.Warn("dropping event for slow connection",
			"session_id", c.sessionID,
			"task_id", event.TaskID,
			"event_type", event.Type)
	}
}

// enqueue queues a non-event frame (auth_success) for writing.
func (c *client) enqueue(v interface{}) {
	select {
	case c.send <- v:
	case <-c.done:
	default:
	}
}

// writePump serializes all writes to the connection. It exits when the
// read loop signals done or a write fails.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case v := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(v); err != nil {
				c.logger.Debug("websocket write failed",
					"error", err,
					"session_id", c.sessionID)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// readLoop consumes inbound frames until the connection closes.
// Malformed frames are logged and dropped; they never terminate the
// connection. Returns when the peer goes away.
func (c *client) readLoop(h *Hub) {
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket closed unexpectedly",
					"error", err,
					"session_id", c.sessionID)
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("dropping malformed websocket message",
				"error", err,
				"session_id", c.sessionID)
			continue
		}

		h.handleMessage(c, msg)
	}
}
