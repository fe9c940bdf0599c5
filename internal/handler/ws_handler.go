package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/choiseongjun/chat-with-stream/internal/service"
	"github.com/choiseongjun/chat-with-stream/pkg/log"
	"github.com/choiseongjun/chat-with-stream/pkg/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is enforced at the edge proxy.
		return true
	},
}

// WSHandler serves the bidirectional room connection: inbound frames are
// message sends, outbound frames are the room's live feed.
type WSHandler struct {
	gateway     *service.StreamGateway
	memberships service.MembershipService
	messages    service.MessageService
	users       service.UserService
}

// NewWSHandler creates the WebSocket handler.
func NewWSHandler(
	gateway *service.StreamGateway,
	memberships service.MembershipService,
	messages service.MessageService,
	users service.UserService,
) *WSHandler {
	return &WSHandler{
		gateway:     gateway,
		memberships: memberships,
		messages:    messages,
		users:       users,
	}
}

// Register mounts the WebSocket route behind auth.
func (h *WSHandler) Register(r gin.IRouter, auth gin.HandlerFunc) {
	r.GET("/ws/rooms/:id", auth, h.serveRoom)
}

func (h *WSHandler) serveRoom(c *gin.Context) {
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID := CurrentUserID(c)

	member, err := h.memberships.IsMember(c.Request.Context(), roomID, userID)
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

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		sub.Close()
		log.Ctx(c.Request.Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := newWSClient(conn, sub, roomID, userID, h.messages, h.users)
	go client.writePump()
	go client.readPump()
}
