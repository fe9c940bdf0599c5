package domain

import "time"

// UserStatus represents a user's availability.
type UserStatus string

const (
	StatusOnline  UserStatus = "ONLINE"
	StatusOffline UserStatus = "OFFLINE"
	StatusAway    UserStatus = "AWAY"
)

// ParseUserStatus resolves a status string against the known set.
// Unknown values fall back to OFFLINE.
func ParseUserStatus(s string) UserStatus {
	switch UserStatus(s) {
	case StatusOnline, StatusOffline, StatusAway:
		return UserStatus(s)
	default:
		return StatusOffline
	}
}

// User represents a registered chat user. Users are never hard-deleted.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Status       UserStatus `json:"status"`
	LastActiveAt time.Time  `json:"last_active_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// CreateUserRequest represents a user registration request.
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=1,max=50"`
	Email    string `json:"email" binding:"required,email"`
}

// UpdateStatusRequest represents a status change request.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Status       UserStatus `json:"status"`
	LastActiveAt time.Time  `json:"last_active_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// RegisterResponse is returned on registration: the new user plus an
// access token for subsequent requests.
type RegisterResponse struct {
	User        UserResponse `json:"user"`
	AccessToken string       `json:"access_token"`
}

// ToResponse converts User to UserResponse.
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Status:       u.Status,
		LastActiveAt: u.LastActiveAt,
		CreatedAt:    u.CreatedAt,
	}
}
