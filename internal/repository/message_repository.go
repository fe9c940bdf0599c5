package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/choiseongjun/chat-with-stream/internal/domain"
)

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a GORM-backed MessageRepository.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	model := messageToModel(msg)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	msg.ID = model.ID
	return nil
}

func (r *messageRepository) ListByRoom(ctx context.Context, roomID int64, limit int) ([]*domain.Message, error) {
	var models []MessageModel
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toDomainMessages(models), nil
}

func (r *messageRepository) ListBefore(ctx context.Context, roomID, beforeID int64, limit int) ([]*domain.Message, error) {
	var models []MessageModel
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND id < ?", roomID, beforeID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toDomainMessages(models), nil
}

func (r *messageRepository) CountSince(ctx context.Context, roomID int64, since time.Time) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&MessageModel{}).
		Where("room_id = ? AND created_at > ?", roomID, since).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *messageRepository) DeleteByRoom(ctx context.Context, roomID int64) error {
	return r.db.WithContext(ctx).
		Delete(&MessageModel{}, "room_id = ?", roomID).Error
}

func toDomainMessages(models []MessageModel) []*domain.Message {
	messages := make([]*domain.Message, 0, len(models))
	for i := range models {
		messages = append(messages, models[i].ToDomain())
	}
	return messages
}
