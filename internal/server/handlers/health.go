package handlers

import (
	"net/http"
	"time"

	"github.com/agentstation/sightline/internal/server/response"
)

// Health is the body of GET /health.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// Readiness is the body of GET /api/v1/ready.
type Readiness struct {
	Status           string `json:"status"`
	Sessions         int    `json:"sessions"`
	WebSocketClients int    `json:"websocket_clients"`
	SSEClients       int    `json:"sse_clients"`
	DroppedEvents    int64  `json:"dropped_events"`
	Uptime           string `json:"uptime"`
}

// HandleHealth reports liveness. It never touches the store.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, Health{Status: "healthy", Service: "sightline-api", Version: h.app.Version()})
}

// HandleReady reports 503 until the mapping store opens, then the live
// session and client counts.
func (h *Handlers) HandleReady(w http.ResponseWriter, _ *http.Request) {
	if _, err := h.app.Store(); err != nil {
		h.logger.Warn().Err(err).Msg("Mapping store unavailable")
		response.ServiceUnavailable(w, "Mapping store not available")
		return
	}

	response.OK(w, Readiness{
		Status:           "ready",
		Sessions:         h.sessions.Count(),
		WebSocketClients: h.wsHub.ClientCount(),
		SSEClients:       h.sseBroadcaster.ClientCount(),
		DroppedEvents:    h.broker.Dropped(),
		Uptime:           h.clock().Sub(h.startTime).Round(time.Second).String(),
	})
}
