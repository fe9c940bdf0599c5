package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/choiseongjun/chat-with-stream/internal/domain"
)

func newMessageFixture(t *testing.T) (*fakeStore, *fakeHistory, *fakeFanout, MessageService, *domain.User, int64) {
	t.Helper()
	store := newFakeStore()
	history := newFakeHistory()
	fanout := &fakeFanout{}
	svc := NewMessageService(store, history, fanout)

	memberships := NewMembershipService(store, history)
	sender := store.addUser("alice")
	room, err := memberships.CreateRoom(context.Background(), sender.ID, &domain.CreateRoomRequest{Name: "general"})
	require.NoError(t, err)

	return store, history, fanout, svc, sender, room.ID
}

func TestSendMessagePersistsBeforeReturning(t *testing.T) {
	store, _, fanout, svc, sender, roomID := newMessageFixture(t)

	resp, err := svc.SendMessage(context.Background(), sender.ID, &domain.CreateMessageRequest{
		RoomID:  roomID,
		Content: "hello",
		Type:    "TEXT",
	})
	require.NoError(t, err)
	assert.NotZero(t, resp.ID)
	assert.Equal(t, "alice", resp.SenderName)

	stored, err := store.Messages().ListByRoom(context.Background(), roomID, 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, resp.ID, stored[0].ID)
	assert.Equal(t, "hello", stored[0].Content)

	dispatched := fanout.envelopes()
	require.Len(t, dispatched, 1)
	assert.Equal(t, resp.ID, dispatched[0].ID)
	assert.Equal(t, "alice", dispatched[0].SenderName)
}

func TestSendMessageRejectsNonMember(t *testing.T) {
	store, _, fanout, svc, _, roomID := newMessageFixture(t)
	outsider := store.addUser("mallory")

	_, err := svc.SendMessage(context.Background(), outsider.ID, &domain.CreateMessageRequest{
		RoomID:  roomID,
		Content: "let me in",
	})
	assert.ErrorIs(t, err, ErrNotAMember)

	stored, err := store.Messages().ListByRoom(context.Background(), roomID, 10)
	require.NoError(t, err)
	assert.Empty(t, stored, "rejected send must not persist")
	assert.Empty(t, fanout.envelopes(), "rejected send must not fan out")
}

func TestSendMessageUnknownTypeFallsBackToText(t *testing.T) {
	_, _, _, svc, sender, roomID := newMessageFixture(t)

	resp, err := svc.SendMessage(context.Background(), sender.ID, &domain.CreateMessageRequest{
		RoomID:  roomID,
		Content: "hi",
		Type:    "HOLOGRAM",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.MessageText, resp.Type)
}

func TestGetRoomMessagesReadsCacheFirst(t *testing.T) {
	_, history, _, svc, sender, roomID := newMessageFixture(t)

	now := time.Now()
	for i := 1; i <= 3; i++ {
		require.NoError(t, history.Append(context.Background(), &domain.BroadcastEnvelope{
			ID:         int64(i),
			RoomID:     roomID,
			SenderID:   sender.ID,
			SenderName: "alice",
			Content:    "cached",
			Type:       domain.MessageText,
			CreatedAt:  now.UnixMilli(),
		}))
	}

	messages, err := svc.GetRoomMessages(context.Background(), roomID, sender.ID, 10)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	// Newest first.
	assert.Equal(t, int64(3), messages[0].ID)
	assert.Equal(t, "alice", messages[0].SenderName)
}

func TestGetRoomMessagesFallsBackToStore(t *testing.T) {
	_, _, _, svc, sender, roomID := newMessageFixture(t)

	for i := 0; i < 2; i++ {
		_, err := svc.SendMessage(context.Background(), sender.ID, &domain.CreateMessageRequest{
			RoomID:  roomID,
			Content: "durable",
		})
		require.NoError(t, err)
	}

	// The fake fanout never fills the cache, so this read exercises the
	// store path including sender-name hydration.
	messages, err := svc.GetRoomMessages(context.Background(), roomID, sender.ID, 10)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "alice", messages[0].SenderName)
	assert.True(t, messages[0].ID > messages[1].ID, "newest first")
}

func TestGetRoomMessagesRequiresMembership(t *testing.T) {
	store, _, _, svc, _, roomID := newMessageFixture(t)
	outsider := store.addUser("mallory")

	_, err := svc.GetRoomMessages(context.Background(), roomID, outsider.ID, 10)
	assert.ErrorIs(t, err, ErrNotAMember)
}

func TestGetMessagesBeforePages(t *testing.T) {
	_, _, _, svc, sender, roomID := newMessageFixture(t)

	var ids []int64
	for i := 0; i < 5; i++ {
		resp, err := svc.SendMessage(context.Background(), sender.ID, &domain.CreateMessageRequest{
			RoomID:  roomID,
			Content: "page",
		})
		require.NoError(t, err)
		ids = append(ids, resp.ID)
	}

	older, err := svc.GetMessagesBefore(context.Background(), roomID, sender.ID, ids[3], 10)
	require.NoError(t, err)
	require.Len(t, older, 3)
	for _, msg := range older {
		assert.Less(t, msg.ID, ids[3])
	}
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, defaultHistoryLimit, clampLimit(0))
	assert.Equal(t, defaultHistoryLimit, clampLimit(-5))
	assert.Equal(t, 10, clampLimit(10))
	assert.Equal(t, maxHistoryLimit, clampLimit(1000))
}
