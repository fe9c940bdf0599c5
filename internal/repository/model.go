package repository

import (
	"time"

	"github.com/choiseongjun/chat-with-stream/internal/domain"
)

// UserModel is the GORM mapping for users.
type UserModel struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	Username     string    `gorm:"size:50;uniqueIndex;not null"`
	Email        string    `gorm:"size:255;uniqueIndex;not null"`
	Status       string    `gorm:"size:20;not null;default:OFFLINE"`
	LastActiveAt time.Time `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (UserModel) TableName() string { return "users" }

func (m *UserModel) ToDomain() *domain.User {
	return &domain.User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		Status:       domain.ParseUserStatus(m.Status),
		LastActiveAt: m.LastActiveAt,
		CreatedAt:    m.CreatedAt,
	}
}

func userToModel(u *domain.User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Status:       string(u.Status),
		LastActiveAt: u.LastActiveAt,
		CreatedAt:    u.CreatedAt,
	}
}

// ChatRoomModel is the GORM mapping for chat rooms.
type ChatRoomModel struct {
	ID          int64   `gorm:"primaryKey;autoIncrement"`
	Name        string  `gorm:"size:200;not null"`
	Description *string `gorm:"size:1000"`
	CreatedBy   int64   `gorm:"not null;index"`
	IsPrivate   bool    `gorm:"not null;default:false"`
	MaxUsers    *int
	CreatedAt   time.Time `gorm:"not null;index"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (ChatRoomModel) TableName() string { return "chat_rooms" }

func (m *ChatRoomModel) ToDomain() *domain.ChatRoom {
	return &domain.ChatRoom{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		CreatedBy:   m.CreatedBy,
		IsPrivate:   m.IsPrivate,
		MaxUsers:    m.MaxUsers,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func roomToModel(r *domain.ChatRoom) *ChatRoomModel {
	return &ChatRoomModel{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedBy:   r.CreatedBy,
		IsPrivate:   r.IsPrivate,
		MaxUsers:    r.MaxUsers,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// RoomMembershipModel is the GORM mapping for memberships. The composite
// unique index enforces at most one membership per user per room.
type RoomMembershipModel struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	RoomID     int64     `gorm:"not null;uniqueIndex:idx_room_user"`
	UserID     int64     `gorm:"not null;uniqueIndex:idx_room_user;index"`
	Role       string    `gorm:"size:20;not null;default:MEMBER"`
	JoinedAt   time.Time `gorm:"not null"`
	LastReadAt time.Time `gorm:"not null"`
}

func (RoomMembershipModel) TableName() string { return "room_memberships" }

func (m *RoomMembershipModel) ToDomain() *domain.RoomMembership {
	return &domain.RoomMembership{
		ID:         m.ID,
		RoomID:     m.RoomID,
		UserID:     m.UserID,
		Role:       domain.MemberRole(m.Role),
		JoinedAt:   m.JoinedAt,
		LastReadAt: m.LastReadAt,
	}
}

func membershipToModel(m *domain.RoomMembership) *RoomMembershipModel {
	return &RoomMembershipModel{
		ID:         m.ID,
		RoomID:     m.RoomID,
		UserID:     m.UserID,
		Role:       string(m.Role),
		JoinedAt:   m.JoinedAt,
		LastReadAt: m.LastReadAt,
	}
}

// MessageModel is the GORM mapping for messages.
type MessageModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	RoomID    int64     `gorm:"not null;index:idx_room_created"`
	SenderID  int64     `gorm:"not null;index"`
	Content   string    `gorm:"type:text;not null"`
	Type      string    `gorm:"size:20;not null;default:TEXT"`
	CreatedAt time.Time `gorm:"not null;index:idx_room_created"`
}

func (MessageModel) TableName() string { return "messages" }

func (m *MessageModel) ToDomain() *domain.Message {
	return &domain.Message{
		ID:        m.ID,
		RoomID:    m.RoomID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		Type:      domain.ParseMessageType(m.Type),
		CreatedAt: m.CreatedAt,
	}
}

func messageToModel(msg *domain.Message) *MessageModel {
	return &MessageModel{
		ID:        msg.ID,
		RoomID:    msg.RoomID,
		SenderID:  msg.SenderID,
		Content:   msg.Content,
		Type:      string(msg.Type),
		CreatedAt: msg.CreatedAt,
	}
}

// AllModels lists every model for schema migration.
func AllModels() []any {
	return []any{
		&UserModel{},
		&ChatRoomModel{},
		&RoomMembershipModel{},
		&MessageModel{},
	}
}
