package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// subscriberBuffer bounds each subscriber channel. A slow consumer drops
// events rather than blocking publishers.
const subscriberBuffer = 16

// Bus fans events out to subscribers, optionally filtered by organism ID.
type Bus struct {
	subscribers map[chan Event]string // channel -> organism ID filter ("" = all)
	mu          sync.RWMutex
	log         zerolog.Logger
}

// NewBus creates a new event bus.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		subscribers: make(map[chan Event]string),
		log:         log.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe adds a subscriber. An empty organismID receives every event.
func (b *Bus) Subscribe(organismID string) chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	b.subscribers[ch] = organismID

	b.log.Debug().
		Str("organism_id", organismID).
		Int("total_subscribers", len(b.subscribers)).
		Msg("New subscriber added")

	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[ch]; !ok {
		return
	}
	delete(b.subscribers, ch)
	close(ch)

	b.log.Debug().
		Int("total_subscribers", len(b.subscribers)).
		Msg("Subscriber removed")
}

// Publish broadcasts an event to all matching subscribers.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	for ch, filter := range b.subscribers {
		if filter != "" && filter != event.OrganismID {
			continue
		}
		select {
		case ch <- event:
		default:
			b.log.Warn().
				Str("event_type", string(event.Type)).
				Str("organism_id", event.OrganismID).
				Msg("Subscriber channel full, event dropped")
		}
	}
}
