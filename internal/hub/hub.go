// Package hub provides in-process multicast of broker events to any number
// of local stream consumers. One broker subscription feeds a topic; every
// attached sink gets its own buffered copy.
package hub

import (
	"sync"

	"github.com/choiseongjun/chat-with-stream/pkg/log"
	"github.com/choiseongjun/chat-with-stream/pkg/pubsub"
)

const defaultSinkBuffer = 64

// Sink is one consumer's feed from a hub topic. It satisfies
// pubsub.Subscription so transports can treat local and broker feeds alike.
type Sink struct {
	hub    *Hub
	topic  string
	events chan *pubsub.Event
	once   sync.Once
}

// Events returns the sink's event feed. The channel closes when the sink
// or the hub is closed.
func (s *Sink) Events() <-chan *pubsub.Event {
	return s.events
}

// Close detaches the sink from its topic.
func (s *Sink) Close() error {
	s.hub.remove(s)
	return nil
}

// Hub fans events out to per-topic sink sets.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Sink]struct{}
	buffer int
	closed bool
}

// New creates a hub. buffer <= 0 uses the default per-sink buffer.
func New(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultSinkBuffer
	}
	return &Hub{
		topics: make(map[string]map[*Sink]struct{}),
		buffer: buffer,
	}
}

// Subscribe attaches a new sink to a topic.
func (h *Hub) Subscribe(topic string) *Sink {
	sink := &Sink{
		hub:    h,
		topic:  topic,
		events: make(chan *pubsub.Event, h.buffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sink.events)
		return sink
	}
	sinks, ok := h.topics[topic]
	if !ok {
		sinks = make(map[*Sink]struct{})
		h.topics[topic] = sinks
	}
	sinks[sink] = struct{}{}
	return sink
}

// Publish delivers the event to every sink on the topic. Delivery never
// blocks; a sink that cannot keep up loses the event.
func (h *Hub) Publish(topic string, event *pubsub.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sink := range h.topics[topic] {
		select {
		case sink.events <- event:
		default:
			log.L().Warn().Str("topic", topic).Msg("dropping event for slow consumer")
		}
	}
}

// Subscribers reports how many sinks a topic currently has.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Close detaches and closes every sink. Further subscribes get an already
// closed feed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, sinks := range h.topics {
		for sink := range sinks {
			sink.once.Do(func() { close(sink.events) })
		}
	}
	h.topics = make(map[string]map[*Sink]struct{})
}

func (h *Hub) remove(s *Sink) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sinks, ok := h.topics[s.topic]; ok {
		if _, attached := sinks[s]; attached {
			delete(sinks, s)
			if len(sinks) == 0 {
				delete(h.topics, s.topic)
			}
			s.once.Do(func() { close(s.events) })
		}
	}
}
