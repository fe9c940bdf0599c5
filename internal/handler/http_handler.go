package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/choiseongjun/chat-with-stream/internal/audit"
	"github.com/choiseongjun/chat-with-stream/internal/domain"
	"github.com/choiseongjun/chat-with-stream/internal/service"
	"github.com/choiseongjun/chat-with-stream/pkg/response"
)

// HTTPHandler serves the REST API.
type HTTPHandler struct {
	users       service.UserService
	memberships service.MembershipService
	messages    service.MessageService
	auditor     *audit.Recorder
}

// NewHTTPHandler creates the REST handler.
func NewHTTPHandler(
	users service.UserService,
	memberships service.MembershipService,
	messages service.MessageService,
	auditor *audit.Recorder,
) *HTTPHandler {
	return &HTTPHandler{
		users:       users,
		memberships: memberships,
		messages:    messages,
		auditor:     auditor,
	}
}

// Register mounts the REST routes. Registration is open; everything else
// requires an authenticated caller.
func (h *HTTPHandler) Register(r gin.IRouter, auth gin.HandlerFunc) {
	api := r.Group("/api")

	api.POST("/users", h.registerUser)

	authed := api.Group("", auth)
	authed.GET("/users/online", h.listOnlineUsers)
	authed.GET("/users/by-username/:username", h.getUserByUsername)
	authed.GET("/users/:id", h.getUser)
	authed.GET("/users/:id/presence", h.getPresence)
	authed.PUT("/users/me/status", h.updateStatus)

	authed.POST("/rooms", h.createRoom)
	authed.GET("/rooms", h.listPublicRooms)
	authed.GET("/rooms/my", h.listMyRooms)
	authed.GET("/rooms/:id", h.getRoom)
	authed.POST("/rooms/:id/join", h.joinRoom)
	authed.POST("/rooms/:id/leave", h.leaveRoom)
	authed.GET("/rooms/:id/members", h.listMembers)
	authed.GET("/rooms/:id/online", h.listOnlineMembers)
	authed.POST("/rooms/:id/read", h.markAsRead)
	authed.GET("/rooms/:id/messages", h.listMessages)

	authed.POST("/messages", h.sendMessage)
}

func (h *HTTPHandler) registerUser(c *gin.Context) {
	var req domain.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.users.Register(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.auditor.UserRegistered(c.Request.Context(), result.User.ID, result.User.Username)
	response.Created(c, result)
}

func (h *HTTPHandler) getUser(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, user)
}

func (h *HTTPHandler) getUserByUsername(c *gin.Context) {
	user, err := h.users.GetUserByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, user)
}

func (h *HTTPHandler) listOnlineUsers(c *gin.Context) {
	users, err := h.users.OnlineUsers(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, users)
}

func (h *HTTPHandler) getPresence(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	record, err := h.users.GetPresence(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, record)
}

func (h *HTTPHandler) updateStatus(c *gin.Context) {
	var req domain.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := CurrentUserID(c)
	user, err := h.users.UpdateStatus(c.Request.Context(), userID, domain.ParseUserStatus(req.Status))
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.auditor.StatusChanged(c.Request.Context(), userID, string(user.Status))
	response.Success(c, user)
}

func (h *HTTPHandler) createRoom(c *gin.Context) {
	var req domain.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	creatorID := CurrentUserID(c)
	room, err := h.memberships.CreateRoom(c.Request.Context(), creatorID, &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.auditor.RoomCreated(c.Request.Context(), room.ID, creatorID)
	response.Created(c, room)
}

func (h *HTTPHandler) listPublicRooms(c *gin.Context) {
	rooms, err := h.memberships.GetPublicRooms(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, rooms)
}

func (h *HTTPHandler) listMyRooms(c *gin.Context) {
	rooms, err := h.memberships.GetUserRooms(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, rooms)
}

func (h *HTTPHandler) getRoom(c *gin.Context) {
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	room, err := h.memberships.GetRoom(c.Request.Context(), roomID, CurrentUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, room)
}

func (h *HTTPHandler) joinRoom(c *gin.Context) {
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID := CurrentUserID(c)
	membership, err := h.memberships.JoinRoom(c.Request.Context(), roomID, userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.auditor.MemberJoined(c.Request.Context(), roomID, userID)
	response.Success(c, membership)
}

func (h *HTTPHandler) leaveRoom(c *gin.Context) {
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID := CurrentUserID(c)
	if err := h.memberships.LeaveRoom(c.Request.Context(), roomID, userID); err != nil {
		h.writeError(c, err)
		return
	}
	h.auditor.MemberLeft(c.Request.Context(), roomID, userID)
	response.Success(c, gin.H{"left": true})
}

func (h *HTTPHandler) listMembers(c *gin.Context) {
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	members, err := h.memberships.GetRoomMembers(c.Request.Context(), roomID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, members)
}

func (h *HTTPHandler) listOnlineMembers(c *gin.Context) {
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	online, err := h.users.OnlineRoomMembers(c.Request.Context(), roomID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, online)
}

func (h *HTTPHandler) markAsRead(c *gin.Context) {
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.memberships.MarkAsRead(c.Request.Context(), roomID, CurrentUserID(c)); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, gin.H{"read": true})
}

func (h *HTTPHandler) listMessages(c *gin.Context) {
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID := CurrentUserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	ctx := c.Request.Context()
	if before := c.Query("before"); before != "" {
		beforeID, err := strconv.ParseInt(before, 10, 64)
		if err != nil || beforeID <= 0 {
			response.BadRequest(c, "invalid before cursor")
			return
		}
		messages, err := h.messages.GetMessagesBefore(ctx, roomID, userID, beforeID, limit)
		if err != nil {
			h.writeError(c, err)
			return
		}
		response.Success(c, messages)
		return
	}

	messages, err := h.messages.GetRoomMessages(ctx, roomID, userID, limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, messages)
}

func (h *HTTPHandler) sendMessage(c *gin.Context) {
	var req domain.CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	msg, err := h.messages.SendMessage(c.Request.Context(), CurrentUserID(c), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Created(c, msg)
}

// writeError maps service errors onto HTTP statuses.
func (h *HTTPHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrSenderNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrNotAMember):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrRoomFull),
		errors.Is(err, service.ErrUsernameTaken):
		response.Conflict(c, err.Error())
	default:
		response.InternalError(c, "internal server error")
	}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
