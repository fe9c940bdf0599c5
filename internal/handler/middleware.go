package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/choiseongjun/chat-with-stream/pkg/log"
	"github.com/choiseongjun/chat-with-stream/pkg/response"
	"github.com/choiseongjun/chat-with-stream/pkg/token"
)

const (
	ctxUserID   = "user_id"
	ctxUsername = "username"
)

// Auth resolves the caller's identity. A Bearer access token wins; the
// X-User-Id header is accepted as a fallback for internal callers that
// sit behind the gateway's own authentication.
func Auth(tokens *token.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			claims, err := tokens.Validate(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				response.Unauthorized(c, "invalid access token")
				c.Abort()
				return
			}
			c.Set(ctxUserID, claims.UserID)
			c.Set(ctxUsername, claims.Username)
			c.Next()
			return
		}

		if raw := c.GetHeader("X-User-Id"); raw != "" {
			userID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || userID <= 0 {
				response.Unauthorized(c, "invalid X-User-Id header")
				c.Abort()
				return
			}
			c.Set(ctxUserID, userID)
			c.Next()
			return
		}

		response.Unauthorized(c, "authentication required")
		c.Abort()
	}
}

// CurrentUserID returns the authenticated user's id. Only valid behind Auth.
func CurrentUserID(c *gin.Context) int64 {
	id, _ := c.Get(ctxUserID)
	userID, _ := id.(int64)
	return userID
}

// Recovery converts panics into structured error logs and a 500 response.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Ctx(c.Request.Context()).Error().
					Interface("panic", r).
					Msg("request panicked")
				response.InternalError(c, "internal server error")
				c.Abort()
			}
		}()
		c.Next()
	}
}
