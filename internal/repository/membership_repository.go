package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/choiseongjun/chat-with-stream/internal/domain"
)

type membershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository creates a GORM-backed MembershipRepository.
func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) Create(ctx context.Context, m *domain.RoomMembership) error {
	model := membershipToModel(m)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	m.ID = model.ID
	return nil
}

func (r *membershipRepository) Get(ctx context.Context, roomID, userID int64) (*domain.RoomMembership, error) {
	var model RoomMembershipModel
	err := r.db.WithContext(ctx).
		First(&model, "room_id = ? AND user_id = ?", roomID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

func (r *membershipRepository) Exists(ctx context.Context, roomID, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&RoomMembershipModel{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *membershipRepository) ListByRoom(ctx context.Context, roomID int64) ([]*domain.RoomMembership, error) {
	var models []RoomMembershipModel
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("joined_at ASC, user_id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	members := make([]*domain.RoomMembership, 0, len(models))
	for i := range models {
		members = append(members, models[i].ToDomain())
	}
	return members, nil
}

func (r *membershipRepository) CountByRoom(ctx context.Context, roomID int64) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&RoomMembershipModel{}).
		Where("room_id = ?", roomID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *membershipRepository) Delete(ctx context.Context, roomID, userID int64) error {
	result := r.db.WithContext(ctx).
		Delete(&RoomMembershipModel{}, "room_id = ? AND user_id = ?", roomID, userID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *membershipRepository) DeleteByRoom(ctx context.Context, roomID int64) error {
	return r.db.WithContext(ctx).
		Delete(&RoomMembershipModel{}, "room_id = ?", roomID).Error
}

func (r *membershipRepository) UpdateRole(ctx context.Context, id int64, role domain.MemberRole) error {
	result := r.db.WithContext(ctx).Model(&RoomMembershipModel{}).
		Where("id = ?", id).
		Update("role", string(role))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *membershipRepository) UpdateLastReadAt(ctx context.Context, roomID, userID int64, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&RoomMembershipModel{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Update("last_read_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
