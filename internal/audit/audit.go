// Package audit records membership and account changes as structured log
// entries, separable from operational logs by the log_type field.
package audit

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/choiseongjun/chat-with-stream/pkg/log"
)

// Recorder writes audit entries.
type Recorder struct {
	logger zerolog.Logger
}

// NewRecorder creates a Recorder on top of the given base logger.
func NewRecorder(base *zerolog.Logger) *Recorder {
	return &Recorder{
		logger: base.With().Str(log.FieldLogType, log.LogTypeAudit).Logger(),
	}
}

func (r *Recorder) event(_ context.Context, action string) *zerolog.Event {
	return r.logger.Info().Str("action", action)
}

// UserRegistered records a new account.
func (r *Recorder) UserRegistered(ctx context.Context, userID int64, username string) {
	r.event(ctx, "user.registered").
		Int64(log.FieldUserID, userID).
		Str(log.FieldUsername, username).
		Msg("audit")
}

// RoomCreated records a new room and its owner.
func (r *Recorder) RoomCreated(ctx context.Context, roomID, ownerID int64) {
	r.event(ctx, "room.created").
		Int64(log.FieldRoomID, roomID).
		Int64(log.FieldUserID, ownerID).
		Msg("audit")
}

// MemberJoined records a join.
func (r *Recorder) MemberJoined(ctx context.Context, roomID, userID int64) {
	r.event(ctx, "room.member_joined").
		Int64(log.FieldRoomID, roomID).
		Int64(log.FieldUserID, userID).
		Msg("audit")
}

// MemberLeft records a leave.
func (r *Recorder) MemberLeft(ctx context.Context, roomID, userID int64) {
	r.event(ctx, "room.member_left").
		Int64(log.FieldRoomID, roomID).
		Int64(log.FieldUserID, userID).
		Msg("audit")
}

// StatusChanged records an explicit presence status change.
func (r *Recorder) StatusChanged(ctx context.Context, userID int64, status string) {
	r.event(ctx, "user.status_changed").
		Int64(log.FieldUserID, userID).
		Str("status", status).
		Msg("audit")
}
