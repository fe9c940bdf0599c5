package domain

import "time"

// PresenceRecord is a user's ephemeral presence, stored in the cache with
// a TTL. An expired record means "presence unknown", not OFFLINE.
type PresenceRecord struct {
	UserID       int64      `json:"user_id"`
	Username     string     `json:"username"`
	Status       UserStatus `json:"status"`
	LastActiveAt time.Time  `json:"last_active_at"`
}
