package service

import (
	"context"

	"github.com/choiseongjun/chat-with-stream/internal/domain"
)

// MembershipService manages rooms and the membership relation. Composite
// updates (create, leave) run transactionally so the one-owner-per-room
// invariant holds at every commit point.
type MembershipService interface {
	CreateRoom(ctx context.Context, creatorID int64, req *domain.CreateRoomRequest) (*domain.ChatRoomResponse, error)
	JoinRoom(ctx context.Context, roomID, userID int64) (*domain.RoomMembership, error)
	LeaveRoom(ctx context.Context, roomID, userID int64) error
	GetRoom(ctx context.Context, roomID, userID int64) (*domain.ChatRoomResponse, error)
	GetPublicRooms(ctx context.Context) ([]*domain.ChatRoomResponse, error)
	GetUserRooms(ctx context.Context, userID int64) ([]*domain.ChatRoomResponse, error)
	GetRoomMembers(ctx context.Context, roomID int64) ([]*domain.RoomMembership, error)
	IsMember(ctx context.Context, roomID, userID int64) (bool, error)
	MarkAsRead(ctx context.Context, roomID, userID int64) error
}

// MessageService persists and reads messages. Sends fan out asynchronously
// after the durable write.
type MessageService interface {
	SendMessage(ctx context.Context, senderID int64, req *domain.CreateMessageRequest) (*domain.MessageResponse, error)
	GetRoomMessages(ctx context.Context, roomID, userID int64, limit int) ([]*domain.MessageResponse, error)
	GetMessagesBefore(ctx context.Context, roomID, userID, beforeID int64, limit int) ([]*domain.MessageResponse, error)
}

// Fanout delivers a broadcast envelope to every live target: the global
// channel, the room channel and the bounded history list.
type Fanout interface {
	Publish(ctx context.Context, env *domain.BroadcastEnvelope) error
	Dispatch(env *domain.BroadcastEnvelope)
	Wait()
}

// HistoryCache is the bounded per-room recent-message list.
type HistoryCache interface {
	Append(ctx context.Context, env *domain.BroadcastEnvelope) error
	Recent(ctx context.Context, roomID int64, limit int) ([]*domain.BroadcastEnvelope, error)
	Drop(ctx context.Context, roomID int64) error
}

// PresenceCache is the TTL'd per-user presence record store.
type PresenceCache interface {
	Set(ctx context.Context, record *domain.PresenceRecord) error
	Get(ctx context.Context, userID int64) (*domain.PresenceRecord, error)
	GetMany(ctx context.Context, userIDs []int64) ([]*domain.PresenceRecord, error)
}

// UserService manages users and their ephemeral presence.
type UserService interface {
	Register(ctx context.Context, req *domain.CreateUserRequest) (*domain.RegisterResponse, error)
	GetUser(ctx context.Context, userID int64) (*domain.UserResponse, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.UserResponse, error)
	OnlineUsers(ctx context.Context) ([]*domain.UserResponse, error)
	UpdateStatus(ctx context.Context, userID int64, status domain.UserStatus) (*domain.UserResponse, error)
	Touch(ctx context.Context, userID int64) error
	GetPresence(ctx context.Context, userID int64) (*domain.PresenceRecord, error)
	OnlineRoomMembers(ctx context.Context, roomID int64) ([]*domain.PresenceRecord, error)
}
