package repository

import (
	"context"

	"gorm.io/gorm"
)

type gormStore struct {
	db          *gorm.DB
	users       UserRepository
	rooms       RoomRepository
	memberships MembershipRepository
	messages    MessageRepository
}

// NewStore creates a GORM-backed Store.
func NewStore(db *gorm.DB) Store {
	return &gormStore{
		db:          db,
		users:       NewUserRepository(db),
		rooms:       NewRoomRepository(db),
		memberships: NewMembershipRepository(db),
		messages:    NewMessageRepository(db),
	}
}

func (s *gormStore) Users() UserRepository             { return s.users }
func (s *gormStore) Rooms() RoomRepository             { return s.rooms }
func (s *gormStore) Memberships() MembershipRepository { return s.memberships }
func (s *gormStore) Messages() MessageRepository       { return s.messages }

func (s *gormStore) Transaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
