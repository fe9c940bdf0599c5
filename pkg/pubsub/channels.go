package pubsub

import "fmt"

// Channel and key naming conventions for the chat system.
const (
	// All chat messages, across every room.
	ChannelGlobalMessages = "chat:messages"

	// Per-room message channel.
	channelRoomMessages = "chat:room:%d"

	// Presence updates channel and the key prefix for TTL'd presence records.
	ChannelPresenceUpdates = "chat:presence:updates"
	KeyPresencePrefix      = "chat:presence:"

	// Per-room bounded recent-history list.
	keyRoomHistory = "chat:room:%d:messages"
)

// Event types carried on the chat channels.
const (
	EventMessage  = "message"
	EventPresence = "presence"
)

// RoomChannel returns the broadcast channel name for a room.
func RoomChannel(roomID int64) string {
	return fmt.Sprintf(channelRoomMessages, roomID)
}

// RoomHistoryKey returns the Redis list key holding a room's recent messages.
func RoomHistoryKey(roomID int64) string {
	return fmt.Sprintf(keyRoomHistory, roomID)
}

// PresenceKey returns the Redis key holding a user's presence record.
func PresenceKey(userID int64) string {
	return fmt.Sprintf("%s%d", KeyPresencePrefix, userID)
}
