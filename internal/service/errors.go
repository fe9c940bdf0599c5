package service

import "errors"

var (
	// ErrRoomNotFound is returned when the target room does not exist.
	ErrRoomNotFound = errors.New("room not found")

	// ErrUserNotFound is returned when the target user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrSenderNotFound is returned when a message sender cannot be resolved.
	ErrSenderNotFound = errors.New("sender not found")

	// ErrNotAMember is returned when an operation requires room membership
	// the caller does not have.
	ErrNotAMember = errors.New("user is not a member of this room")

	// ErrRoomFull is returned when joining would exceed the room's capacity.
	ErrRoomFull = errors.New("room is at capacity")

	// ErrUsernameTaken is returned when registering a duplicate username.
	ErrUsernameTaken = errors.New("username already taken")
)
