package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/choiseongjun/chat-with-stream/pkg/log"
	"github.com/choiseongjun/chat-with-stream/pkg/token"
)

// NewRouter assembles the gin engine with logging, recovery and every
// transport mounted: REST, SSE and WebSocket.
func NewRouter(
	tokens *token.Manager,
	rest *HTTPHandler,
	stream *StreamHandler,
	ws *WSHandler,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(log.GinMiddleware(log.L()))
	r.Use(Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := Auth(tokens)
	rest.Register(r, auth)
	stream.Register(r, auth)
	ws.Register(r, auth)

	return r
}
