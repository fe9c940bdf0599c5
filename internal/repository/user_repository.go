package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/choiseongjun/chat-with-stream/internal/domain"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a GORM-backed UserRepository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	model := userToModel(user)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	user.ID = model.ID
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var model UserModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var model UserModel
	err := r.db.WithContext(ctx).First(&model, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

func (r *userRepository) ListByStatus(ctx context.Context, status domain.UserStatus) ([]*domain.User, error) {
	var models []UserModel
	err := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("last_active_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	users := make([]*domain.User, 0, len(models))
	for i := range models {
		users = append(users, models[i].ToDomain())
	}
	return users, nil
}

func (r *userRepository) UpdateStatus(ctx context.Context, id int64, status domain.UserStatus, lastActiveAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&UserModel{}).Where("id = ?", id).Updates(map[string]any{
		"status":         string(status),
		"last_active_at": lastActiveAt,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
