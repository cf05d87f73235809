// Package adapters turns the real-time transports into event subscribers.
package adapters

import (
	"strconv"

	"github.com/agentstation/sightline/internal/server/events"
	"github.com/agentstation/sightline/internal/server/sse"
	ws "github.com/agentstation/sightline/internal/server/websocket"
)

// SSE forwards events to b. The event timestamp becomes the SSE id.
func SSE(b *sse.Broadcaster) events.Subscriber {
	return events.SubscriberFunc(func(e events.Event) error {
		b.Broadcast(sse.Event{
			Event:   string(e.Type),
			ID:      strconv.FormatInt(e.Timestamp.UnixNano(), 10),
			Session: e.SessionID,
			Data:    e.Data,
		})
		return nil
	})
}

// WebSocket forwards events to hub.
func WebSocket(hub *ws.Hub) events.Subscriber {
	return events.SubscriberFunc(func(e events.Event) error {
		hub.Broadcast(ws.Message{
			Type:      string(e.Type),
			SessionID: e.SessionID,
			Timestamp: e.Timestamp,
			Data:      e.Data,
		})
		return nil
	})
}
