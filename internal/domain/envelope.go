package domain

// BroadcastEnvelope is the denormalized, transport-ready copy of a message
// used for live fan-out and the bounded per-room history list. It lives
// only in the cache layer, never in the durable store.
type BroadcastEnvelope struct {
	ID         int64       `json:"id"`
	RoomID     int64       `json:"room_id"`
	SenderID   int64       `json:"sender_id"`
	SenderName string      `json:"sender_name"`
	Content    string      `json:"content"`
	Type       MessageType `json:"type"`
	CreatedAt  int64       `json:"created_at"` // epoch millis
}
