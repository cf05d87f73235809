// Package events fans analysis events out to the real-time transports.
//
// Handlers publish to a Broker; every transport (SSE, WebSocket) is a
// Subscriber and filters by session on its own side.
package events

import "time"

// EventType represents the type of an analysis event.
type EventType string

// Event types.
const (
	SessionCreated EventType = "session.created"
	SessionClosed  EventType = "session.closed"

	AnalysisStarted   EventType = "analysis.started"
	AnalysisCompleted EventType = "analysis.completed"
	AnalysisFailed    EventType = "analysis.failed"

	// SourceFailed is published once per file that failed within an
	// otherwise completed run.
	SourceFailed EventType = "source.failed"

	ClientConnected EventType = "client.connected"
)

// Event is one published event. SessionID is empty for events that
// concern every client.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Matches reports whether a client following sessionID should receive
// the event. An empty sessionID follows every session.
func (e Event) Matches(sessionID string) bool {
	return sessionID == "" || e.SessionID == "" || e.SessionID == sessionID
}

// Subscriber consumes events for one transport. Send must not block on
// slow clients.
type Subscriber interface {
	Send(Event) error
	Close() error
}

// SubscriberFunc is a Subscriber with nothing to close.
type SubscriberFunc func(Event) error

// Send calls f.
func (f SubscriberFunc) Send(e Event) error { return f(e) }

// Close does nothing.
func (f SubscriberFunc) Close() error { return nil }
