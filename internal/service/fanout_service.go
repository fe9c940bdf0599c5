package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/choiseongjun/chat-with-stream/internal/domain"
	"github.com/choiseongjun/chat-with-stream/pkg/log"
	"github.com/choiseongjun/chat-with-stream/pkg/pubsub"
)

const (
	dispatchTimeout   = 5 * time.Second
	maxInflightFanout = 64
)

type fanout struct {
	publisher pubsub.Publisher
	history   HistoryCache
	group     *errgroup.Group
}

// NewFanout creates the fan-out service. Dispatched deliveries run on a
// bounded worker group so a slow broker cannot pile up goroutines.
func NewFanout(publisher pubsub.Publisher, history HistoryCache) Fanout {
	g := &errgroup.Group{}
	g.SetLimit(maxInflightFanout)
	return &fanout{
		publisher: publisher,
		history:   history,
		group:     g,
	}
}

// Publish delivers the envelope to all three targets. Each target is
// attempted even when an earlier one fails.
func (f *fanout) Publish(ctx context.Context, env *domain.BroadcastEnvelope) error {
	event, err := pubsub.NewEvent(pubsub.EventMessage, env.RoomID, env)
	if err != nil {
		return err
	}

	var errs []error
	if err := f.publisher.Publish(ctx, pubsub.ChannelGlobalMessages, event); err != nil {
		errs = append(errs, err)
	}
	if err := f.publisher.Publish(ctx, pubsub.RoomChannel(env.RoomID), event); err != nil {
		errs = append(errs, err)
	}
	if err := f.history.Append(ctx, env); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Dispatch runs Publish detached from the caller. A failed delivery is
// logged and swallowed; the message is already durable by the time this
// runs, so the sender never sees broker trouble.
func (f *fanout) Dispatch(env *domain.BroadcastEnvelope) {
	f.group.Go(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		if err := f.Publish(ctx, env); err != nil {
			log.L().Error().Err(err).
				Int64(log.FieldRoomID, env.RoomID).
				Int64(log.FieldMessageID, env.ID).
				Msg("message fan-out failed")
		}
		return nil
	})
}

// Wait blocks until all dispatched deliveries finish. Used on shutdown.
func (f *fanout) Wait() {
	_ = f.group.Wait()
}
