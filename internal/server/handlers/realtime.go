package handlers

import (
	"fmt"
	"net/http"

	"github.com/agentstation/sightline/internal/server/events"
	ws "github.com/agentstation/sightline/internal/server/websocket"
)

// HandleWebSocket handles WebSocket connections at /updates/ws. The
// optional session query parameter limits events to one session.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID != "" {
		if _, err := h.sessions.Get(sessionID); err != nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	clientID := fmt.Sprintf("%s-%d", r.RemoteAddr, h.clock().UnixNano())
	client := ws.NewClient(clientID, sessionID, h.wsHub, conn)
	h.wsHub.Register(client)

	h.broker.Publish(events.ClientConnected, sessionID, map[string]any{
		"client_id": clientID,
		"transport": "websocket",
	})

	go client.WritePump()
	go client.ReadPump()
}

// HandleSSE handles Server-Sent Events at /updates/stream.
func (h *Handlers) HandleSSE(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID != "" {
		if _, err := h.sessions.Get(sessionID); err != nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
	}
	h.sseBroadcaster.Serve(w, r, sessionID)
}

// HandleSessionEvents handles GET /sessions/{id}/events, an SSE stream of
// one session's events.
func (h *Handlers) HandleSessionEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.sseBroadcaster.Serve(w, r, sess.ID())
}
