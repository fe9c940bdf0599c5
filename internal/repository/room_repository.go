package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/choiseongjun/chat-with-stream/internal/domain"
)

type roomRepository struct {
	db *gorm.DB
}

// NewRoomRepository creates a GORM-backed RoomRepository.
func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepository{db: db}
}

func (r *roomRepository) Create(ctx context.Context, room *domain.ChatRoom) error {
	model := roomToModel(room)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	room.ID = model.ID
	return nil
}

func (r *roomRepository) GetByID(ctx context.Context, id int64) (*domain.ChatRoom, error) {
	var model ChatRoomModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

func (r *roomRepository) ListPublic(ctx context.Context) ([]*domain.ChatRoom, error) {
	var models []ChatRoomModel
	err := r.db.WithContext(ctx).
		Where("is_private = ?", false).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	rooms := make([]*domain.ChatRoom, 0, len(models))
	for i := range models {
		rooms = append(rooms, models[i].ToDomain())
	}
	return rooms, nil
}

func (r *roomRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.ChatRoom, error) {
	var models []ChatRoomModel
	err := r.db.WithContext(ctx).
		Joins("JOIN room_memberships ON room_memberships.room_id = chat_rooms.id").
		Where("room_memberships.user_id = ?", userID).
		Order("chat_rooms.updated_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	rooms := make([]*domain.ChatRoom, 0, len(models))
	for i := range models {
		rooms = append(rooms, models[i].ToDomain())
	}
	return rooms, nil
}

func (r *roomRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&ChatRoomModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
