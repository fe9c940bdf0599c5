package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/choiseongjun/chat-with-stream/pkg/token"
)

func authProbe(tokens *token.Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/probe", Auth(tokens), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": CurrentUserID(c)})
	})
	return r
}

func TestAuthAcceptsBearerToken(t *testing.T) {
	tokens := token.NewManager("secret", time.Hour, "test")
	router := authProbe(tokens)

	signed, err := tokens.Generate(42, "alice")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":42`)
}

func TestAuthRejectsBadBearerToken(t *testing.T) {
	tokens := token.NewManager("secret", time.Hour, "test")
	router := authProbe(tokens)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthAcceptsUserIDHeader(t *testing.T) {
	tokens := token.NewManager("secret", time.Hour, "test")
	router := authProbe(tokens)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("X-User-Id", "7")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":7`)
}

func TestAuthRejectsBadUserIDHeader(t *testing.T) {
	tokens := token.NewManager("secret", time.Hour, "test")
	router := authProbe(tokens)

	for _, value := range []string{"abc", "-1", "0"} {
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.Header.Set("X-User-Id", value)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "value %q", value)
	}
}

func TestAuthRequiresIdentity(t *testing.T) {
	tokens := token.NewManager("secret", time.Hour, "test")
	router := authProbe(tokens)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
