// Package sse streams analysis events to browsers as Server-Sent Events.
package sse

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event is one SSE frame. Session scopes the event to the streams
// following that session; it is not written to the wire.
type Event struct {
	Event   string `json:"event,omitempty"`
	ID      string `json:"id,omitempty"`
	Session string `json:"-"`
	Data    any    `json:"data"`
}

// MarshalFrame encodes e in the text/event-stream format.
func (e Event) MarshalFrame() ([]byte, error) {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if e.Event != "" {
		buf.WriteString("event: " + e.Event + "\n")
	}
	if e.ID != "" {
		buf.WriteString("id: " + e.ID + "\n")
	}
	buf.WriteString("data: ")
	buf.Write(data)
	buf.WriteString("\n\n")
	return buf.Bytes(), nil
}

type stream struct {
	session string
	events  chan Event
}

// Broadcaster fans events out to open streams. A stream whose buffer is
// full skips events rather than stall the others.
type Broadcaster struct {
	queue  chan Event
	logger *zerolog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	streams map[*stream]struct{}
}

// NewBroadcaster returns a broadcaster. Events are delivered once Run
// starts.
func NewBroadcaster(logger *zerolog.Logger) *Broadcaster {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Broadcaster{
		queue:   make(chan Event, 256),
		logger:  logger,
		now:     time.Now,
		streams: make(map[*stream]struct{}),
	}
}

// Broadcast queues an event. When the queue is full the event is dropped.
func (b *Broadcaster) Broadcast(e Event) {
	select {
	case b.queue <- e:
	default:
		b.logger.Warn().Str("event", e.Event).Msg("SSE queue full, event dropped")
	}
}

// ClientCount returns the number of open streams.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.streams)
}

// Run delivers queued events until ctx is done, then ends every stream.
func (b *Broadcaster) Run(ctx context.Context) {
	for {
		select {
		case e := <-b.queue:
			b.mu.RLock()
			for s := range b.streams {
				if s.session != "" && e.Session != "" && s.session != e.Session {
					continue
				}
				select {
				case s.events <- e:
				default:
					b.logger.Warn().Str("session_id", s.session).Msg("SSE stream buffer full, event skipped")
				}
			}
			b.mu.RUnlock()
		case <-ctx.Done():
			b.mu.Lock()
			for s := range b.streams {
				b.closeLocked(s)
			}
			b.mu.Unlock()
			return
		}
	}
}

func (b *Broadcaster) open(session string) *stream {
	s := &stream{session: session, events: make(chan Event, 64)}
	b.mu.Lock()
	b.streams[s] = struct{}{}
	b.mu.Unlock()
	return s
}

func (b *Broadcaster) close(s *stream) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeLocked(s)
}

func (b *Broadcaster) closeLocked(s *stream) {
	if _, ok := b.streams[s]; ok {
		delete(b.streams, s)
		close(s.events)
	}
}

// ServeHTTP streams every event.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.Serve(w, r, "")
}

// Serve streams the events of session, or all events when session is
// empty, starting with a connected frame. It returns when the client
// leaves or the broadcaster stops.
func (b *Broadcaster) Serve(w http.ResponseWriter, r *http.Request, session string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")

	s := b.open(session)
	defer b.close(s)
	b.logger.Debug().Str("session_id", session).Msg("SSE client connected")

	send := func(e Event) bool {
		frame, err := e.MarshalFrame()
		if err != nil {
			b.logger.Error().Err(err).Str("event", e.Event).Msg("Failed to encode SSE event")
			return true
		}
		if _, err := w.Write(frame); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !send(Event{Event: "connected", Data: map[string]any{"session_id": session, "timestamp": b.now().UTC()}}) {
		return
	}
	for {
		select {
		case e, ok := <-s.events:
			if !ok || !send(e) {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}
