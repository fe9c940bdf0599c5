package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/choiseongjun/chat-with-stream/internal/cache"
	"github.com/choiseongjun/chat-with-stream/internal/domain"
	"github.com/choiseongjun/chat-with-stream/internal/repository"
	"github.com/choiseongjun/chat-with-stream/pkg/log"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = cache.HistoryLimit
)

type messageService struct {
	store   repository.Store
	history HistoryCache
	fanout  Fanout
	reads   singleflight.Group
}

// NewMessageService creates the message service.
func NewMessageService(store repository.Store, history HistoryCache, fanout Fanout) MessageService {
	return &messageService{
		store:   store,
		history: history,
		fanout:  fanout,
	}
}

// SendMessage validates, persists and then fans out. The durable write
// completes before the response; delivery runs detached and its failures
// never surface to the sender.
func (s *messageService) SendMessage(ctx context.Context, senderID int64, req *domain.CreateMessageRequest) (*domain.MessageResponse, error) {
	member, err := s.store.Memberships().Exists(ctx, req.RoomID, senderID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotAMember
	}

	sender, err := s.store.Users().GetByID(ctx, senderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSenderNotFound
		}
		return nil, err
	}

	msg := &domain.Message{
		RoomID:    req.RoomID,
		SenderID:  senderID,
		Content:   req.Content,
		Type:      domain.ParseMessageType(req.Type),
		CreatedAt: time.Now(),
	}
	if err := s.store.Messages().Create(ctx, msg); err != nil {
		return nil, err
	}

	s.fanout.Dispatch(&domain.BroadcastEnvelope{
		ID:         msg.ID,
		RoomID:     msg.RoomID,
		SenderID:   msg.SenderID,
		SenderName: sender.Username,
		Content:    msg.Content,
		Type:       msg.Type,
		CreatedAt:  msg.CreatedAt.UnixMilli(),
	})

	log.Ctx(ctx).Debug().
		Int64(log.FieldRoomID, msg.RoomID).
		Int64(log.FieldMessageID, msg.ID).
		Msg("message persisted")

	return &domain.MessageResponse{
		ID:         msg.ID,
		RoomID:     msg.RoomID,
		SenderID:   msg.SenderID,
		SenderName: sender.Username,
		Content:    msg.Content,
		Type:       msg.Type,
		CreatedAt:  msg.CreatedAt,
	}, nil
}

// GetRoomMessages returns the room's recent messages, newest first. The
// bounded cache list is consulted first; identical concurrent reads are
// collapsed so a hot room issues one lookup.
func (s *messageService) GetRoomMessages(ctx context.Context, roomID, userID int64, limit int) ([]*domain.MessageResponse, error) {
	if err := s.requireMembership(ctx, roomID, userID); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)

	key := fmt.Sprintf("history:%d:%d", roomID, limit)
	result, err, _ := s.reads.Do(key, func() (interface{}, error) {
		return s.loadRecent(ctx, roomID, limit)
	})
	if err != nil {
		return nil, err
	}
	return result.([]*domain.MessageResponse), nil
}

func (s *messageService) loadRecent(ctx context.Context, roomID int64, limit int) ([]*domain.MessageResponse, error) {
	envelopes, err := s.history.Recent(ctx, roomID, limit)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).
			Int64(log.FieldRoomID, roomID).
			Msg("history cache unavailable, reading from store")
	} else if len(envelopes) > 0 {
		responses := make([]*domain.MessageResponse, 0, len(envelopes))
		for _, env := range envelopes {
			responses = append(responses, envelopeToResponse(env))
		}
		return responses, nil
	}

	messages, err := s.store.Messages().ListByRoom(ctx, roomID, limit)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, messages)
}

// GetMessagesBefore pages further back than the cache covers, straight
// from the durable store.
func (s *messageService) GetMessagesBefore(ctx context.Context, roomID, userID, beforeID int64, limit int) ([]*domain.MessageResponse, error) {
	if err := s.requireMembership(ctx, roomID, userID); err != nil {
		return nil, err
	}
	messages, err := s.store.Messages().ListBefore(ctx, roomID, beforeID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, messages)
}

func (s *messageService) requireMembership(ctx context.Context, roomID, userID int64) error {
	member, err := s.store.Memberships().Exists(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !member {
		return ErrNotAMember
	}
	return nil
}

// hydrate attaches sender names, resolving each distinct sender once.
func (s *messageService) hydrate(ctx context.Context, messages []*domain.Message) ([]*domain.MessageResponse, error) {
	names := make(map[int64]string)
	responses := make([]*domain.MessageResponse, 0, len(messages))
	for _, msg := range messages {
		name, ok := names[msg.SenderID]
		if !ok {
			user, err := s.store.Users().GetByID(ctx, msg.SenderID)
			if err != nil {
				if !errors.Is(err, repository.ErrNotFound) {
					return nil, err
				}
				name = "unknown"
			} else {
				name = user.Username
			}
			names[msg.SenderID] = name
		}
		responses = append(responses, &domain.MessageResponse{
			ID:         msg.ID,
			RoomID:     msg.RoomID,
			SenderID:   msg.SenderID,
			SenderName: name,
			Content:    msg.Content,
			Type:       msg.Type,
			CreatedAt:  msg.CreatedAt,
		})
	}
	return responses, nil
}

func envelopeToResponse(env *domain.BroadcastEnvelope) *domain.MessageResponse {
	return &domain.MessageResponse{
		ID:         env.ID,
		RoomID:     env.RoomID,
		SenderID:   env.SenderID,
		SenderName: env.SenderName,
		Content:    env.Content,
		Type:       env.Type,
		CreatedAt:  time.UnixMilli(env.CreatedAt),
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		return maxHistoryLimit
	}
	return limit
}
