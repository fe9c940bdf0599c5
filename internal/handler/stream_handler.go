package handler

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/choiseongjun/chat-with-stream/internal/service"
	"github.com/choiseongjun/chat-with-stream/pkg/log"
	"github.com/choiseongjun/chat-with-stream/pkg/pubsub"
	"github.com/choiseongjun/chat-with-stream/pkg/response"
)

const sseHeartbeatInterval = 25 * time.Second

// StreamHandler serves the Server-Sent Events endpoints.
type StreamHandler struct {
	gateway     *service.StreamGateway
	memberships service.MembershipService
}

// NewStreamHandler creates the SSE handler.
func NewStreamHandler(gateway *service.StreamGateway, memberships service.MembershipService) *StreamHandler {
	return &StreamHandler{gateway: gateway, memberships: memberships}
}

// Register mounts the SSE routes behind auth.
func (h *StreamHandler) Register(r gin.IRouter, auth gin.HandlerFunc) {
	stream := r.Group("/api/stream", auth)
	stream.GET("/messages", h.streamGlobal)
	stream.GET("/rooms/:id", h.streamRoom)
	stream.GET("/presence", h.streamPresence)
}

func (h *StreamHandler) streamGlobal(c *gin.Context) {
	sub := h.gateway.SubscribeGlobal()
	defer sub.Close()
	h.pump(c, sub)
}

func (h *StreamHandler) streamPresence(c *gin.Context) {
	sub := h.gateway.SubscribePresence()
	defer sub.Close()
	h.pump(c, sub)
}

func (h *StreamHandler) streamRoom(c *gin.Context) {
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}

	// Only members may watch a room's live feed.
	member, err := h.memberships.IsMember(c.Request.Context(), roomID, CurrentUserID(c))
	if err != nil {
		response.InternalError(c, "internal server error")
		return
	}
	if !member {
		response.Forbidden(c, "not a member of this room")
		return
	}

	sub, err := h.gateway.SubscribeRoom(c.Request.Context(), roomID)
	if err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).
			Int64(log.FieldRoomID, roomID).
			Msg("room subscription failed")
		response.InternalError(c, "stream unavailable")
		return
	}
	defer sub.Close()

	h.pump(c, sub)
}

// pump writes broker events to the client as SSE frames until the client
// goes away or the subscription closes. Periodic comments keep idle
// connections alive through proxies.
func (h *StreamHandler) pump(c *gin.Context, sub pubsub.Subscription) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	heartbeat := time.NewTicker(sseHeartbeatInterval)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case event, ok := <-sub.Events():
			if !ok {
				return false
			}
			c.SSEvent(event.Type, event)
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
}
