package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"taskpanel/internal/events"
	"taskpanel/internal/service"
	"taskpanel/internal/service/auth"
	"taskpanel/internal/store"
)

// Hub upgrades websocket connections and runs their protocol: an auth
// frame establishes the principal, a subscribe frame attaches the
// connection to one task on the event bus and sends the full snapshot.
// Connection teardown always releases the subscription.
type Hub struct {
	bus        *events.Bus
	tasks      *service.TaskService
	jwtService auth.JWTService
	upgrader   websocket.Upgrader
	logger     *slog.Logger

	mu    sync.RWMutex
	conns map[*client]struct{}
}

// NewHub creates a Hub wired to the event bus and task service.
func NewHub(bus *events.Bus, tasks *service.TaskService, jwtService auth.JWTService, logger *slog.Logger) *Hub {
	return &Hub{
		bus:        bus,
		tasks:      tasks,
		jwtService: jwtService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The panel and the API share an origin; token auth happens
			// in-protocol, so cross-origin upgrades are acceptable.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.With("component", "ws_hub"),
		conns:  make(map[*client]struct{}),
	}
}

// ActiveConnections implements service.ConnectionCounter.
func (h *Hub) ActiveConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// ServeHTTP upgrades the request and runs the connection until the
// peer disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	c := &client{
		sessionID: uuid.New().String(),
		conn:      conn,
		send:      make(chan interface{}, sendBuffer),
		done:      make(chan struct{}),
		logger:    h.logger,
	}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	h.logger.Info("websocket connected", "session_id", c.sessionID, "remote", r.RemoteAddr)

	go c.writePump()
	c.readLoop(h)

	// Teardown: the subscription goes first so no publish can race a
	// closed connection, then the writer is released.
	h.bus.Unsubscribe(c)
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
	close(c.done)
	conn.Close()

	h.logger.Info("websocket disconnected", "session_id", c.sessionID)
}

// handleMessage dispatches one inbound frame. Unknown types and frames
// that fail auth are dropped with a diagnostic; the connection lives on.
func (h *Hub) handleMessage(c *client, msg inboundMessage) {
	switch msg.Type {
	case "auth":
		h.handleAuth(c, msg)
	case "subscribe":
		h.handleSubscribe(c, msg)
	default:
		h.logger.Warn("dropping websocket message of unknown type",
			"type", msg.Type,
			"session_id", c.sessionID)
	}
}

// handleAuth validates the token and attaches the principal to the
// connection.
func (h *Hub) handleAuth(c *client, msg inboundMessage) {
	principal, err := h.jwtService.ValidateToken(context.Background(), msg.Token)
	if err != nil {
		h.logger.Warn("websocket auth rejected",
			"error", err,
			"session_id", c.sessionID,
			"username", msg.Username)
		if errors.Is(err, auth.ErrExpiredToken) {
			c.enqueue(errorMessage{Type: "error", Message: "Token expired"})
		} else {
			c.enqueue(errorMessage{Type: "error", Message: "Invalid token"})
		}
		return
	}

	c.principal = &principal
	c.enqueue(authSuccessMessage{Type: "auth_success", SessionID: c.sessionID})

	h.logger.Debug("websocket authenticated",
		"session_id", c.sessionID,
		"username", principal.Username)
}

// handleSubscribe attaches the connection to a task. The connection
// must have authenticated and the principal must be allowed to see the
// task; the snapshot goes out before the subscription activates so the
// client always has the state every later event builds on.
func (h *Hub) handleSubscribe(c *client, msg inboundMessage) {
	if c.principal == nil {
		h.logger.Warn("dropping subscribe from unauthenticated connection",
			"session_id", c.sessionID,
			"task_id", msg.TaskID)
		c.enqueue(errorMessage{Type: "error", Message: "Authentication required"})
		return
	}

	task, err := h.tasks.Snapshot(context.Background(), *c.principal, msg.TaskID)
	if err != nil {
		h.logger.Warn("websocket subscribe rejected",
			"error", err,
			"session_id", c.sessionID,
			"task_id", msg.TaskID,
			"username", c.principal.Username)
		// Existence first, authorization second, same as the REST
		// surface.
		switch {
		case store.IsNotFoundError(err):
			c.enqueue(errorMessage{Type: "error", Message: "Task not found"})
		case errors.Is(err, service.ErrTaskNotOwned):
			c.enqueue(errorMessage{Type: "error", Message: "Access denied"})
		default:
			c.enqueue(errorMessage{Type: "error", Message: "Subscription failed"})
		}
		return
	}

	c.enqueue(events.NewTaskUpdateEvent(task))
	h.bus.Subscribe(c, msg.TaskID)

	h.logger.Debug("websocket subscribed",
		"session_id", c.sessionID,
		"task_id", msg.TaskID)
}
