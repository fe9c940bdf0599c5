package service

import (
	"context"
	"errors"
	"time"

	"github.com/choiseongjun/chat-with-stream/internal/domain"
	"github.com/choiseongjun/chat-with-stream/internal/repository"
	"github.com/choiseongjun/chat-with-stream/pkg/log"
)

type membershipService struct {
	store   repository.Store
	history HistoryCache
}

// NewMembershipService creates the membership service. history may be nil
// in tests that do not exercise room deletion.
func NewMembershipService(store repository.Store, history HistoryCache) MembershipService {
	return &membershipService{store: store, history: history}
}

func (s *membershipService) CreateRoom(ctx context.Context, creatorID int64, req *domain.CreateRoomRequest) (*domain.ChatRoomResponse, error) {
	if _, err := s.store.Users().GetByID(ctx, creatorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	now := time.Now()
	room := &domain.ChatRoom{
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   creatorID,
		IsPrivate:   req.IsPrivate,
		MaxUsers:    req.MaxUsers,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// The room and its owner membership commit together; a room without
	// an owner must never be observable.
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Rooms().Create(ctx, room); err != nil {
			return err
		}
		return tx.Memberships().Create(ctx, &domain.RoomMembership{
			RoomID:     room.ID,
			UserID:     creatorID,
			Role:       domain.RoleOwner,
			JoinedAt:   now,
			LastReadAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().
		Int64(log.FieldRoomID, room.ID).
		Int64(log.FieldUserID, creatorID).
		Msg("room created")

	resp := room.ToResponse(1, 0)
	return &resp, nil
}

func (s *membershipService) JoinRoom(ctx context.Context, roomID, userID int64) (*domain.RoomMembership, error) {
	if _, err := s.store.Users().GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	room, err := s.store.Rooms().GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	// Joining a room you are already in returns the existing membership
	// unchanged.
	existing, err := s.store.Memberships().Get(ctx, roomID, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	var membership *domain.RoomMembership
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		count, err := tx.Memberships().CountByRoom(ctx, roomID)
		if err != nil {
			return err
		}
		if room.MaxUsers != nil && count >= *room.MaxUsers {
			return ErrRoomFull
		}
		now := time.Now()
		membership = &domain.RoomMembership{
			RoomID:     roomID,
			UserID:     userID,
			Role:       domain.RoleMember,
			JoinedAt:   now,
			LastReadAt: now,
		}
		return tx.Memberships().Create(ctx, membership)
	})
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().
		Int64(log.FieldRoomID, roomID).
		Int64(log.FieldUserID, userID).
		Msg("user joined room")

	return membership, nil
}

func (s *membershipService) LeaveRoom(ctx context.Context, roomID, userID int64) error {
	var roomDeleted bool

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		membership, err := tx.Memberships().Get(ctx, roomID, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotAMember
			}
			return err
		}

		if err := tx.Memberships().Delete(ctx, roomID, userID); err != nil {
			return err
		}

		remaining, err := tx.Memberships().ListByRoom(ctx, roomID)
		if err != nil {
			return err
		}

		// Last member out deletes the room and everything in it.
		if len(remaining) == 0 {
			if err := tx.Messages().DeleteByRoom(ctx, roomID); err != nil {
				return err
			}
			if err := tx.Rooms().Delete(ctx, roomID); err != nil {
				return err
			}
			roomDeleted = true
			return nil
		}

		// When the owner leaves, ownership passes to the longest-standing
		// member; ties break on the lower user id. ListByRoom returns
		// members in exactly that order.
		if membership.Role == domain.RoleOwner {
			return tx.Memberships().UpdateRole(ctx, remaining[0].ID, domain.RoleOwner)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if roomDeleted && s.history != nil {
		if err := s.history.Drop(ctx, roomID); err != nil {
			log.Ctx(ctx).Warn().Err(err).
				Int64(log.FieldRoomID, roomID).
				Msg("failed to drop room history")
		}
	}

	log.Ctx(ctx).Info().
		Int64(log.FieldRoomID, roomID).
		Int64(log.FieldUserID, userID).
		Bool("room_deleted", roomDeleted).
		Msg("user left room")

	return nil
}

func (s *membershipService) GetRoom(ctx context.Context, roomID, userID int64) (*domain.ChatRoomResponse, error) {
	room, err := s.store.Rooms().GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	resp, err := s.enrich(ctx, room, userID)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *membershipService) GetPublicRooms(ctx context.Context) ([]*domain.ChatRoomResponse, error) {
	rooms, err := s.store.Rooms().ListPublic(ctx)
	if err != nil {
		return nil, err
	}
	return s.enrichAll(ctx, rooms, 0)
}

func (s *membershipService) GetUserRooms(ctx context.Context, userID int64) ([]*domain.ChatRoomResponse, error) {
	rooms, err := s.store.Rooms().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.enrichAll(ctx, rooms, userID)
}

func (s *membershipService) GetRoomMembers(ctx context.Context, roomID int64) ([]*domain.RoomMembership, error) {
	if _, err := s.store.Rooms().GetByID(ctx, roomID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return s.store.Memberships().ListByRoom(ctx, roomID)
}

func (s *membershipService) IsMember(ctx context.Context, roomID, userID int64) (bool, error) {
	return s.store.Memberships().Exists(ctx, roomID, userID)
}

func (s *membershipService) MarkAsRead(ctx context.Context, roomID, userID int64) error {
	err := s.store.Memberships().UpdateLastReadAt(ctx, roomID, userID, time.Now())
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotAMember
	}
	return err
}

// enrich builds the response with member and unread counts. userID 0 means
// an anonymous view with no unread count.
func (s *membershipService) enrich(ctx context.Context, room *domain.ChatRoom, userID int64) (*domain.ChatRoomResponse, error) {
	memberCount, err := s.store.Memberships().CountByRoom(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	unread := 0
	if userID != 0 {
		membership, err := s.store.Memberships().Get(ctx, room.ID, userID)
		if err == nil {
			unread, err = s.store.Messages().CountSince(ctx, room.ID, membership.LastReadAt)
			if err != nil {
				return nil, err
			}
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	resp := room.ToResponse(memberCount, unread)
	return &resp, nil
}

func (s *membershipService) enrichAll(ctx context.Context, rooms []*domain.ChatRoom, userID int64) ([]*domain.ChatRoomResponse, error) {
	responses := make([]*domain.ChatRoomResponse, 0, len(rooms))
	for _, room := range rooms {
		resp, err := s.enrich(ctx, room, userID)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, nil
}
