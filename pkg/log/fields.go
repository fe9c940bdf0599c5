package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor (matches internal/handler middleware keys)
	FieldUserID   = "user_id"
	FieldUsername = "username"

	// Chat domain
	FieldRoomID    = "room_id"
	FieldMessageID = "message_id"
	FieldChannel   = "channel"

	// Service
	FieldService = "service"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
