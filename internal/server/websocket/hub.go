// Package websocket pushes analysis events to WebSocket clients.
package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Message is one event, written to clients as a JSON text frame.
type Message struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

const (
	queueSize  = 256
	clientSize = 64

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	readLimit  = 512
)

// Hub fans messages out to connected clients. Clients following a
// session only receive that session's messages and global ones; a client
// that cannot keep up is disconnected.
type Hub struct {
	queue  chan Message
	logger *zerolog.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// NewHub returns a hub. Messages are delivered once Run starts.
func NewHub(logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		queue:   make(chan Message, queueSize),
		logger:  logger,
		clients: make(map[*Client]struct{}),
	}
}

// Broadcast queues msg. When the queue is full msg is dropped.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.queue <- msg:
	default:
		h.logger.Warn().Str("type", msg.Type).Msg("WebSocket queue full, message dropped")
	}
}

// Register adds c. The caller starts its pumps.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug().Str("client_id", c.id).Str("session_id", c.session).Int("clients", n).Msg("WebSocket client connected")
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Run delivers queued messages until ctx is done, then disconnects every
// client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case msg := <-h.queue:
			h.deliver(msg)
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				h.dropLocked(c)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) deliver(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if !c.follows(msg.SessionID) {
			continue
		}
		select {
		case c.send <- msg:
		default:
			h.logger.Warn().Str("client_id", c.id).Msg("WebSocket client too slow, disconnecting")
			h.dropLocked(c)
		}
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

// dropLocked forgets c and closes its queue once. h.mu must be held.
func (h *Hub) dropLocked(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.logger.Debug().Str("client_id", c.id).Int("clients", len(h.clients)).Msg("WebSocket client disconnected")
}

// Client is one connection, following one session or, when session is
// empty, all of them.
type Client struct {
	id      string
	session string
	hub     *Hub
	conn    *websocket.Conn
	send    chan Message
}

// NewClient wraps conn for hub.
func NewClient(id, session string, hub *Hub, conn *websocket.Conn) *Client {
	return &Client{id: id, session: session, hub: hub, conn: conn, send: make(chan Message, clientSize)}
}

func (c *Client) follows(session string) bool {
	return c.session == "" || session == "" || c.session == session
}

// ReadPump keeps the read deadline alive through pongs and discards what
// the client sends. It removes the client when the connection ends.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.remove(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn().Err(err).Str("client_id", c.id).Msg("WebSocket read failed")
			}
			return
		}
	}
}

// WritePump writes queued messages and pings until the queue closes or a
// write fails.
func (c *Client) WritePump() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
