package domain

import "time"

// ChatRoom represents a named container of memberships and messages.
// A room exists only while it has at least one member.
type ChatRoom struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedBy   int64     `json:"created_by"`
	IsPrivate   bool      `json:"is_private"`
	MaxUsers    *int      `json:"max_users,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateRoomRequest represents a create room request.
type CreateRoomRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=200"`
	Description *string `json:"description"`
	IsPrivate   bool    `json:"is_private"`
	MaxUsers    *int    `json:"max_users" binding:"omitempty,min=1"`
}

// ChatRoomResponse represents a room in API responses, enriched with
// member and unread counts.
type ChatRoomResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedBy   int64     `json:"created_by"`
	IsPrivate   bool      `json:"is_private"`
	MaxUsers    *int      `json:"max_users,omitempty"`
	MemberCount int       `json:"member_count"`
	UnreadCount int       `json:"unread_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToResponse converts ChatRoom to ChatRoomResponse with the given counts.
func (r *ChatRoom) ToResponse(memberCount, unreadCount int) ChatRoomResponse {
	return ChatRoomResponse{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedBy:   r.CreatedBy,
		IsPrivate:   r.IsPrivate,
		MaxUsers:    r.MaxUsers,
		MemberCount: memberCount,
		UnreadCount: unreadCount,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
