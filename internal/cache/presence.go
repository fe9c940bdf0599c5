package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/choiseongjun/chat-with-stream/internal/domain"
	"github.com/choiseongjun/chat-with-stream/pkg/pubsub"
)

// PresenceTTL is how long a presence record survives without refresh.
const PresenceTTL = time.Hour

// PresenceStore keeps ephemeral per-user presence records in Redis under
// a TTL and announces every change on the presence channel so watchers
// see updates without polling.
type PresenceStore struct {
	client    *redis.Client
	publisher pubsub.Publisher
}

// NewPresenceStore creates a PresenceStore on the given Redis client.
func NewPresenceStore(client *redis.Client, publisher pubsub.Publisher) *PresenceStore {
	return &PresenceStore{client: client, publisher: publisher}
}

// Set writes the record with a fresh TTL and publishes the change.
func (s *PresenceStore) Set(ctx context.Context, record *domain.PresenceRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	key := pubsub.PresenceKey(record.UserID)
	if err := s.client.Set(ctx, key, data, PresenceTTL).Err(); err != nil {
		return err
	}
	event, err := pubsub.NewEvent(pubsub.EventPresence, 0, record)
	if err != nil {
		return err
	}
	return s.publisher.Publish(ctx, pubsub.ChannelPresenceUpdates, event)
}

// Get returns the record, or (nil, nil) when none exists or it expired.
func (s *PresenceStore) Get(ctx context.Context, userID int64) (*domain.PresenceRecord, error) {
	raw, err := s.client.Get(ctx, pubsub.PresenceKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var record domain.PresenceRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// GetMany returns the present records for the given users, skipping users
// with no live record.
func (s *PresenceStore) GetMany(ctx context.Context, userIDs []int64) ([]*domain.PresenceRecord, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, pubsub.PresenceKey(id))
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	records := make([]*domain.PresenceRecord, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var record domain.PresenceRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			continue
		}
		records = append(records, &record)
	}
	return records, nil
}
