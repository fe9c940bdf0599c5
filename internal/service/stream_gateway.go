package service

import (
	"context"

	"github.com/choiseongjun/chat-with-stream/internal/hub"
	"github.com/choiseongjun/chat-with-stream/pkg/log"
	"github.com/choiseongjun/chat-with-stream/pkg/pubsub"
)

// Hub topics fed by the gateway's shared broker subscriptions.
const (
	topicGlobal   = "global"
	topicPresence = "presence"
)

// StreamGateway bridges the broker to local stream consumers. The global
// message feed and the presence feed each use one shared broker
// subscription multicast through the hub; room feeds get their own broker
// subscription per consumer.
type StreamGateway struct {
	broker pubsub.PubSub
	local  *hub.Hub
}

// NewStreamGateway creates the gateway on the given broker and hub.
func NewStreamGateway(broker pubsub.PubSub, local *hub.Hub) *StreamGateway {
	return &StreamGateway{broker: broker, local: local}
}

// Run pumps the shared feeds until ctx is cancelled. It blocks.
func (g *StreamGateway) Run(ctx context.Context) error {
	global, err := g.broker.Subscribe(ctx, pubsub.ChannelGlobalMessages)
	if err != nil {
		return err
	}
	defer global.Close()

	presence, err := g.broker.Subscribe(ctx, pubsub.ChannelPresenceUpdates)
	if err != nil {
		return err
	}
	defer presence.Close()

	log.L().Info().Msg("stream gateway running")

	for {
		select {
		case <-ctx.Done():
			g.local.Close()
			return ctx.Err()
		case event, ok := <-global.Events():
			if !ok {
				return nil
			}
			g.local.Publish(topicGlobal, event)
		case event, ok := <-presence.Events():
			if !ok {
				return nil
			}
			g.local.Publish(topicPresence, event)
		}
	}
}

// SubscribeGlobal returns a feed of every message in the system.
func (g *StreamGateway) SubscribeGlobal() pubsub.Subscription {
	return g.local.Subscribe(topicGlobal)
}

// SubscribePresence returns a feed of presence changes.
func (g *StreamGateway) SubscribePresence() pubsub.Subscription {
	return g.local.Subscribe(topicPresence)
}

// SubscribeRoom returns a feed of one room's messages, backed by a
// dedicated broker subscription.
func (g *StreamGateway) SubscribeRoom(ctx context.Context, roomID int64) (pubsub.Subscription, error) {
	return g.broker.Subscribe(ctx, pubsub.RoomChannel(roomID))
}
