// Package broadcast fans scan and mapping events out to any number of
// live observers. Publish never blocks: each subscriber has a bounded
// queue and a subscriber that stops draining is dropped rather than
// allowed to stall producers or grow memory.
package broadcast

import (
	"log"
	"sync"
)

// Event names on the wire.
const (
	EventTagScanned      = "tag_scanned"
	EventTagRemoved      = "tag_removed"
	EventMappingsUpdated = "mappings_updated"
	EventReaderStatus    = "reader_status"
)

// Event is the message envelope delivered to subscribers. Name is
// always set; the remaining fields depend on it.
type Event struct {
	Name      string `json:"event"`
	Tag       string `json:"tag,omitempty"`
	URI       string `json:"uri,omitempty"`
	Action    string `json:"action,omitempty"`
	Available *bool  `json:"available,omitempty"`
}

// TagScanned builds a tag_scanned event. action is empty for an
// unmapped tag; uri is set only for play actions.
func TagScanned(tag, action, uri string) Event {
	return Event{Name: EventTagScanned, Tag: tag, Action: action, URI: uri}
}

// TagRemoved builds a tag_removed event.
func TagRemoved(tag string) Event {
	return Event{Name: EventTagRemoved, Tag: tag}
}

// MappingsUpdated builds a mappings_updated event.
func MappingsUpdated() Event {
	return Event{Name: EventMappingsUpdated}
}

// ReaderStatus builds a reader_status event.
func ReaderStatus(available bool) Event {
	return Event{Name: EventReaderStatus, Available: &available}
}

// Subscriber is one observer's outbound queue. Its channel is closed
// when the subscriber is dropped or the broker shuts down.
type Subscriber struct {
	ch chan Event
}

// Events returns the subscriber's receive channel.
func (s *Subscriber) Events() <-chan Event {
	return s.ch
}

// Broker owns the subscriber set.
type Broker struct {
	mu        sync.Mutex
	subs      map[*Subscriber]struct{}
	queueSize int
	closed    bool
}

// New creates a Broker with the given per-subscriber queue size
// (default 16 when <= 0).
func New(queueSize int) *Broker {
	if queueSize <= 0 {
		queueSize = 16
	}
	return &Broker{
		subs:      make(map[*Subscriber]struct{}),
		queueSize: queueSize,
	}
}

// Subscribe registers a new observer. Subscribers receive only events
// published after this call; there is no replay.
func (b *Broker) Subscribe() *Subscriber {
	s := &Subscriber{ch: make(chan Event, b.queueSize)}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(s.ch)
		return s
	}
	b.subs[s] = struct{}{}
	return s
}

// Unsubscribe removes an observer and closes its channel.
func (b *Broker) Unsubscribe(s *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[s]; ok {
		delete(b.subs, s)
		close(s.ch)
	}
}

// Publish delivers e to every subscriber whose queue has room and
// drops the ones whose queue is full. Completes in bounded time
// regardless of subscriber count or health.
func (b *Broker) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	var dropped []*Subscriber
	for s := range b.subs {
		select {
		case s.ch <- e:
		default:
			dropped = append(dropped, s)
		}
	}
	for _, s := range dropped {
		delete(b.subs, s)
		close(s.ch)
	}
	if len(dropped) > 0 {
		log.Printf("Dropped %d slow event subscriber(s)", len(dropped))
	}
}

// SubscriberCount reports the current number of observers.
func (b *Broker) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close drops all subscribers and rejects future publishes.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subs {
		delete(b.subs, s)
		close(s.ch)
	}
}
