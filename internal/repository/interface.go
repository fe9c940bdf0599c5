package repository

import (
	"context"
	"errors"
	"time"

	"github.com/choiseongjun/chat-with-stream/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// UserRepository manages durable user records.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	ListByStatus(ctx context.Context, status domain.UserStatus) ([]*domain.User, error)
	UpdateStatus(ctx context.Context, id int64, status domain.UserStatus, lastActiveAt time.Time) error
}

// RoomRepository manages durable room records.
type RoomRepository interface {
	Create(ctx context.Context, room *domain.ChatRoom) error
	GetByID(ctx context.Context, id int64) (*domain.ChatRoom, error)
	ListPublic(ctx context.Context) ([]*domain.ChatRoom, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.ChatRoom, error)
	Delete(ctx context.Context, id int64) error
}

// MembershipRepository manages the room/user membership relation.
type MembershipRepository interface {
	Create(ctx context.Context, m *domain.RoomMembership) error
	Get(ctx context.Context, roomID, userID int64) (*domain.RoomMembership, error)
	Exists(ctx context.Context, roomID, userID int64) (bool, error)
	ListByRoom(ctx context.Context, roomID int64) ([]*domain.RoomMembership, error)
	CountByRoom(ctx context.Context, roomID int64) (int, error)
	Delete(ctx context.Context, roomID, userID int64) error
	DeleteByRoom(ctx context.Context, roomID int64) error
	UpdateRole(ctx context.Context, id int64, role domain.MemberRole) error
	UpdateLastReadAt(ctx context.Context, roomID, userID int64, at time.Time) error
}

// MessageRepository manages durable messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	ListByRoom(ctx context.Context, roomID int64, limit int) ([]*domain.Message, error)
	ListBefore(ctx context.Context, roomID, beforeID int64, limit int) ([]*domain.Message, error)
	CountSince(ctx context.Context, roomID int64, since time.Time) (int, error)
	DeleteByRoom(ctx context.Context, roomID int64) error
}

// Store bundles the repositories behind a single transactional boundary.
// Transaction runs fn against a Store whose repositories share one
// transaction; returning an error rolls everything back.
type Store interface {
	Users() UserRepository
	Rooms() RoomRepository
	Memberships() MembershipRepository
	Messages() MessageRepository
	Transaction(ctx context.Context, fn func(Store) error) error
}
