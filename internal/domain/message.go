package domain

import "time"

// MessageType is the closed set of message kinds.
type MessageType string

const (
	MessageText   MessageType = "TEXT"
	MessageImage  MessageType = "IMAGE"
	MessageFile   MessageType = "FILE"
	MessageSystem MessageType = "SYSTEM"
)

// ParseMessageType resolves a declared type against the known set.
// Unknown values fall back to TEXT; a bad type never fails a send.
func ParseMessageType(s string) MessageType {
	switch MessageType(s) {
	case MessageText, MessageImage, MessageFile, MessageSystem:
		return MessageType(s)
	default:
		return MessageText
	}
}

// Message is a durably stored chat message. Immutable once persisted.
type Message struct {
	ID        int64       `json:"id"`
	RoomID    int64       `json:"room_id"`
	SenderID  int64       `json:"sender_id"`
	Content   string      `json:"content"`
	Type      MessageType `json:"type"`
	CreatedAt time.Time   `json:"created_at"`
}

// CreateMessageRequest represents a send-message request.
type CreateMessageRequest struct {
	RoomID  int64  `json:"room_id" binding:"required"`
	Content string `json:"content" binding:"required"`
	Type    string `json:"type"`
}

// MessageResponse represents a message in API responses, with the sender's
// display name hydrated.
type MessageResponse struct {
	ID         int64       `json:"id"`
	RoomID     int64       `json:"room_id"`
	SenderID   int64       `json:"sender_id"`
	SenderName string      `json:"sender_name"`
	Content    string      `json:"content"`
	Type       MessageType `json:"type"`
	CreatedAt  time.Time   `json:"created_at"`
}
