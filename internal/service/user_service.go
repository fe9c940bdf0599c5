package service

import (
	"context"
	"errors"
	"time"

	"github.com/choiseongjun/chat-with-stream/internal/domain"
	"github.com/choiseongjun/chat-with-stream/internal/repository"
	"github.com/choiseongjun/chat-with-stream/pkg/log"
	"github.com/choiseongjun/chat-with-stream/pkg/token"
)

type userService struct {
	store    repository.Store
	presence PresenceCache
	tokens   *token.Manager
}

// NewUserService creates the user service.
func NewUserService(store repository.Store, presence PresenceCache, tokens *token.Manager) UserService {
	return &userService{store: store, presence: presence, tokens: tokens}
}

func (s *userService) Register(ctx context.Context, req *domain.CreateUserRequest) (*domain.RegisterResponse, error) {
	_, err := s.store.Users().GetByUsername(ctx, req.Username)
	if err == nil {
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		Username:     req.Username,
		Email:        req.Email,
		Status:       domain.StatusOnline,
		LastActiveAt: now,
		CreatedAt:    now,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.refreshPresence(ctx, user); err != nil {
		log.Ctx(ctx).Warn().Err(err).
			Int64(log.FieldUserID, user.ID).
			Msg("failed to record presence for new user")
	}

	accessToken, err := s.tokens.Generate(user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().
		Int64(log.FieldUserID, user.ID).
		Str(log.FieldUsername, user.Username).
		Msg("user registered")

	return &domain.RegisterResponse{
		User:        user.ToResponse(),
		AccessToken: accessToken,
	}, nil
}

func (s *userService) GetUser(ctx context.Context, userID int64) (*domain.UserResponse, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// A live presence record overrides the stored status; the store only
	// reflects the last explicit change.
	record, err := s.presence.Get(ctx, userID)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).
			Int64(log.FieldUserID, userID).
			Msg("presence lookup failed")
	} else if record != nil {
		user.Status = record.Status
		user.LastActiveAt = record.LastActiveAt
	}

	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) GetUserByUsername(ctx context.Context, username string) (*domain.UserResponse, error) {
	user, err := s.store.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

// OnlineUsers lists users whose stored status is ONLINE, most recently
// active first.
func (s *userService) OnlineUsers(ctx context.Context) ([]*domain.UserResponse, error) {
	users, err := s.store.Users().ListByStatus(ctx, domain.StatusOnline)
	if err != nil {
		return nil, err
	}
	responses := make([]*domain.UserResponse, 0, len(users))
	for _, user := range users {
		resp := user.ToResponse()
		responses = append(responses, &resp)
	}
	return responses, nil
}

func (s *userService) UpdateStatus(ctx context.Context, userID int64, status domain.UserStatus) (*domain.UserResponse, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	now := time.Now()
	if err := s.store.Users().UpdateStatus(ctx, userID, status, now); err != nil {
		return nil, err
	}
	user.Status = status
	user.LastActiveAt = now

	if err := s.refreshPresence(ctx, user); err != nil {
		log.Ctx(ctx).Warn().Err(err).
			Int64(log.FieldUserID, userID).
			Msg("failed to refresh presence")
	}

	resp := user.ToResponse()
	return &resp, nil
}

// Touch refreshes the user's presence TTL without changing their status.
// Called on a heartbeat from any live connection.
func (s *userService) Touch(ctx context.Context, userID int64) error {
	record, err := s.presence.Get(ctx, userID)
	if err != nil {
		return err
	}
	if record == nil {
		user, err := s.store.Users().GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		user.Status = domain.StatusOnline
		user.LastActiveAt = time.Now()
		return s.refreshPresence(ctx, user)
	}
	record.LastActiveAt = time.Now()
	return s.presence.Set(ctx, record)
}

func (s *userService) GetPresence(ctx context.Context, userID int64) (*domain.PresenceRecord, error) {
	record, err := s.presence.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if record != nil {
		return record, nil
	}

	// No live record: fall back to the stored profile as OFFLINE.
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &domain.PresenceRecord{
		UserID:       user.ID,
		Username:     user.Username,
		Status:       domain.StatusOffline,
		LastActiveAt: user.LastActiveAt,
	}, nil
}

func (s *userService) OnlineRoomMembers(ctx context.Context, roomID int64) ([]*domain.PresenceRecord, error) {
	members, err := s.store.Memberships().ListByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	userIDs := make([]int64, 0, len(members))
	for _, m := range members {
		userIDs = append(userIDs, m.UserID)
	}

	records, err := s.presence.GetMany(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	online := make([]*domain.PresenceRecord, 0, len(records))
	for _, r := range records {
		if r.Status != domain.StatusOffline {
			online = append(online, r)
		}
	}
	return online, nil
}

func (s *userService) refreshPresence(ctx context.Context, user *domain.User) error {
	return s.presence.Set(ctx, &domain.PresenceRecord{
		UserID:       user.ID,
		Username:     user.Username,
		Status:       user.Status,
		LastActiveAt: user.LastActiveAt,
	})
}
