package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// subscriberBuffer is the per-subscription local buffer size. When a
// consumer falls this far behind, further events are dropped rather than
// blocking the reader goroutine.
const subscriberBuffer = 100

// RedisPubSub implements PubSub using Redis.
type RedisPubSub struct {
	client *redis.Client
}

// NewRedisPubSub wraps an existing Redis client as a PubSub.
func NewRedisPubSub(client *redis.Client) *RedisPubSub {
	return &RedisPubSub{client: client}
}

// Connect creates a Redis client, verifies the connection, and returns a
// PubSub backed by it.
func Connect(addr, password string, db int) (*RedisPubSub, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisPubSub{client: client}, nil
}

// Publish publishes an event to the specified channel.
func (r *RedisPubSub) Publish(ctx context.Context, channel string, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return r.client.Publish(ctx, channel, data).Err()
}

// Subscribe opens a new subscription to a single channel.
func (r *RedisPubSub) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	ps := r.client.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}
	return newRedisSubscription(ctx, ps), nil
}

// SubscribePattern opens a new subscription to channels matching a pattern.
func (r *RedisPubSub) SubscribePattern(ctx context.Context, pattern string) (Subscription, error) {
	ps := r.client.PSubscribe(ctx, pattern)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("failed to psubscribe to %s: %w", pattern, err)
	}
	return newRedisSubscription(ctx, ps), nil
}

// Close closes the underlying Redis client. Open subscriptions are closed
// individually by their owners.
func (r *RedisPubSub) Close() error {
	return r.client.Close()
}

// GetClient returns the underlying Redis client for advanced operations.
func (r *RedisPubSub) GetClient() *redis.Client {
	return r.client
}

type redisSubscription struct {
	pubsub *redis.PubSub
	events chan *Event
}

func newRedisSubscription(ctx context.Context, ps *redis.PubSub) *redisSubscription {
	s := &redisSubscription{
		pubsub: ps,
		events: make(chan *Event, subscriberBuffer),
	}
	go s.pump(ctx)
	return s
}

func (s *redisSubscription) Events() <-chan *Event { return s.events }

func (s *redisSubscription) Close() error {
	return s.pubsub.Close()
}

// pump reads messages from the Redis pubsub and forwards decoded events
// until the subscription is closed or the context is cancelled.
func (s *redisSubscription) pump(ctx context.Context) {
	defer close(s.events)

	ch := s.pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			s.pubsub.Close()
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}

			select {
			case s.events <- &event:
			case <-ctx.Done():
				s.pubsub.Close()
				return
			default:
				// Consumer buffer full, drop event
			}
		}
	}
}
