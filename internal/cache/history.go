package cache

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/choiseongjun/chat-with-stream/internal/domain"
	"github.com/choiseongjun/chat-with-stream/pkg/log"
	"github.com/choiseongjun/chat-with-stream/pkg/pubsub"
)

// HistoryLimit bounds the per-room recent-message list.
const HistoryLimit = 100

// HistoryCache keeps a bounded, newest-first list of broadcast envelopes
// per room in Redis.
type HistoryCache struct {
	client *redis.Client
}

// NewHistoryCache creates a HistoryCache on the given Redis client.
func NewHistoryCache(client *redis.Client) *HistoryCache {
	return &HistoryCache{client: client}
}

// Append pushes an envelope to the head of the room's history list and
// trims the list back to HistoryLimit.
func (c *HistoryCache) Append(ctx context.Context, env *domain.BroadcastEnvelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	key := pubsub.RoomHistoryKey(env.RoomID)
	pipe := c.client.Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, HistoryLimit-1)
	_, err = pipe.Exec(ctx)
	return err
}

// Recent returns up to limit envelopes, newest first. A missing key is an
// empty history, not an error.
func (c *HistoryCache) Recent(ctx context.Context, roomID int64, limit int) ([]*domain.BroadcastEnvelope, error) {
	if limit <= 0 || limit > HistoryLimit {
		limit = HistoryLimit
	}
	key := pubsub.RoomHistoryKey(roomID)
	raw, err := c.client.LRange(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	envelopes := make([]*domain.BroadcastEnvelope, 0, len(raw))
	for _, item := range raw {
		var env domain.BroadcastEnvelope
		if err := json.Unmarshal([]byte(item), &env); err != nil {
			log.L().Warn().Err(err).
				Int64(log.FieldRoomID, roomID).
				Msg("skipping malformed history entry")
			continue
		}
		envelopes = append(envelopes, &env)
	}
	return envelopes, nil
}

// Drop removes the room's history list entirely.
func (c *HistoryCache) Drop(ctx context.Context, roomID int64) error {
	return c.client.Del(ctx, pubsub.RoomHistoryKey(roomID)).Err()
}
