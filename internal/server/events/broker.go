package events

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// queueSize bounds the events waiting for delivery.
const queueSize = 256

// Broker queues published events and delivers them, in publish order, to
// every named subscriber.
type Broker struct {
	queue   chan Event
	logger  *zerolog.Logger
	now     func() time.Time
	dropped atomic.Int64

	mu   sync.RWMutex
	subs map[string]Subscriber
}

// NewBroker returns a broker. Nothing is delivered until Run starts.
func NewBroker(logger *zerolog.Logger) *Broker {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Broker{
		queue:  make(chan Event, queueSize),
		logger: logger,
		now:    time.Now,
		subs:   make(map[string]Subscriber),
	}
}

// Subscribe registers sub under name, replacing and closing any previous
// subscriber of that name. The returned func unsubscribes it.
func (b *Broker) Subscribe(name string, sub Subscriber) (unsubscribe func()) {
	b.mu.Lock()
	if old, ok := b.subs[name]; ok {
		_ = old.Close()
	}
	b.subs[name] = sub
	b.mu.Unlock()
	b.logger.Debug().Str("subscriber", name).Msg("Subscriber registered")

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.subs[name] == sub {
			delete(b.subs, name)
			_ = sub.Close()
		}
	}
}

// Subscribers returns the registered subscriber names, sorted.
func (b *Broker) Subscribers() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.subs))
	for name := range b.subs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Publish queues an event without blocking. Events published while the
// queue is full are dropped and counted.
func (b *Broker) Publish(eventType EventType, sessionID string, data any) {
	e := Event{Type: eventType, SessionID: sessionID, Timestamp: b.now(), Data: data}
	select {
	case b.queue <- e:
	default:
		b.dropped.Add(1)
		b.logger.Warn().Str("event_type", string(eventType)).Str("session_id", sessionID).Msg("Event queue full, event dropped")
	}
}

// Dropped returns how many events Publish discarded.
func (b *Broker) Dropped() int64 {
	return b.dropped.Load()
}

// Run delivers queued events until ctx is done, then closes and forgets
// every subscriber.
func (b *Broker) Run(ctx context.Context) {
	for {
		select {
		case e := <-b.queue:
			b.deliver(e)
		case <-ctx.Done():
			b.mu.Lock()
			for name, sub := range b.subs {
				_ = sub.Close()
				delete(b.subs, name)
			}
			b.mu.Unlock()
			b.logger.Debug().Msg("Event broker stopped")
			return
		}
	}
}

func (b *Broker) deliver(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for name, sub := range b.subs {
		if err := sub.Send(e); err != nil {
			b.logger.Warn().Err(err).Str("subscriber", name).Str("event_type", string(e.Type)).Msg("Event delivery failed")
		}
	}
}
