package pubsub

import (
	"context"
	"encoding/json"
	"time"
)

// Event represents a message published to the event bus.
type Event struct {
	Type      string          `json:"type"`
	RoomID    int64           `json:"room_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent creates a new event with the current timestamp.
func NewEvent(eventType string, roomID int64, payload interface{}) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		RoomID:    roomID,
		Payload:   data,
		Timestamp: time.Now(),
	}, nil
}

// UnmarshalPayload unmarshals the event payload into the given struct.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// Subscription is a live feed of events from one channel or pattern.
// Close releases the underlying broker subscription; the event channel
// is closed afterwards.
type Subscription interface {
	Events() <-chan *Event
	Close() error
}

// Publisher publishes events to the event bus.
type Publisher interface {
	Publish(ctx context.Context, channel string, event *Event) error
}

// Subscriber opens per-caller subscriptions to the event bus. Every call
// returns an independent subscription, so many local consumers can listen
// on the same channel without sharing a feed.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (Subscription, error)
	SubscribePattern(ctx context.Context, pattern string) (Subscription, error)
}

// PubSub combines Publisher and Subscriber interfaces.
type PubSub interface {
	Publisher
	Subscriber
	Close() error
}
