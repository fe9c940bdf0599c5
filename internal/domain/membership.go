package domain

import "time"

// MemberRole represents a user's role within a room.
type MemberRole string

const (
	RoleOwner  MemberRole = "OWNER"
	RoleAdmin  MemberRole = "ADMIN"
	RoleMember MemberRole = "MEMBER"
)

// RoomMembership links a user to a room. Every existing room has exactly
// one OWNER membership.
type RoomMembership struct {
	ID         int64      `json:"id"`
	RoomID     int64      `json:"room_id"`
	UserID     int64      `json:"user_id"`
	Role       MemberRole `json:"role"`
	JoinedAt   time.Time  `json:"joined_at"`
	LastReadAt time.Time  `json:"last_read_at"`
}
