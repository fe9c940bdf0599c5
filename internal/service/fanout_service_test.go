package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/choiseongjun/chat-with-stream/internal/domain"
	"github.com/choiseongjun/chat-with-stream/pkg/pubsub"
)

type capturePublisher struct {
	mu       sync.Mutex
	err      error
	channels []string
}

func (p *capturePublisher) Publish(_ context.Context, channel string, _ *pubsub.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.channels = append(p.channels, channel)
	return nil
}

func (p *capturePublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.channels))
	copy(out, p.channels)
	return out
}

func TestPublishDeliversToAllTargets(t *testing.T) {
	publisher := &capturePublisher{}
	history := newFakeHistory()
	fanout := NewFanout(publisher, history)

	env := &domain.BroadcastEnvelope{ID: 1, RoomID: 7, Content: "hi"}
	require.NoError(t, fanout.Publish(context.Background(), env))

	channels := publisher.published()
	assert.Contains(t, channels, pubsub.ChannelGlobalMessages)
	assert.Contains(t, channels, pubsub.RoomChannel(7))

	cached, err := history.Recent(context.Background(), 7, 10)
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, int64(1), cached[0].ID)
}

func TestPublishAttemptsEveryTargetOnFailure(t *testing.T) {
	publisher := &capturePublisher{err: errors.New("broker down")}
	history := newFakeHistory()
	fanout := NewFanout(publisher, history)

	env := &domain.BroadcastEnvelope{ID: 1, RoomID: 7}
	err := fanout.Publish(context.Background(), env)
	require.Error(t, err)

	// The history write still happened despite the broker failure.
	cached, cacheErr := history.Recent(context.Background(), 7, 10)
	require.NoError(t, cacheErr)
	assert.Len(t, cached, 1)
}

func TestDispatchSwallowsFailures(t *testing.T) {
	publisher := &capturePublisher{err: errors.New("broker down")}
	history := newFakeHistory()
	history.appendErr = errors.New("cache down")
	fanout := NewFanout(publisher, history)

	fanout.Dispatch(&domain.BroadcastEnvelope{ID: 1, RoomID: 7})
	fanout.Wait()
}

func TestHistoryStaysBoundedUnderSustainedTraffic(t *testing.T) {
	publisher := &capturePublisher{}
	history := newFakeHistory()
	fanout := NewFanout(publisher, history)

	for i := 1; i <= 150; i++ {
		require.NoError(t, fanout.Publish(context.Background(), &domain.BroadcastEnvelope{
			ID:     int64(i),
			RoomID: 3,
		}))
	}

	cached, err := history.Recent(context.Background(), 3, 100)
	require.NoError(t, err)
	require.Len(t, cached, 100)
	assert.Equal(t, int64(150), cached[0].ID, "newest kept first")
	assert.Equal(t, int64(51), cached[99].ID, "oldest fifty evicted")
}

func TestDispatchRunsDetached(t *testing.T) {
	publisher := &capturePublisher{}
	history := newFakeHistory()
	fanout := NewFanout(publisher, history)

	for i := 0; i < 10; i++ {
		fanout.Dispatch(&domain.BroadcastEnvelope{ID: int64(i + 1), RoomID: 3})
	}
	fanout.Wait()

	cached, err := history.Recent(context.Background(), 3, 100)
	require.NoError(t, err)
	assert.Len(t, cached, 10)
}
