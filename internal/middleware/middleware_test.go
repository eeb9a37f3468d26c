package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"copyforge/config"
	"copyforge/internal/auth"
	"copyforge/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jwtCfg = &config.JWTConfig{AccessSecret: "test-secret", AccessExpiry: time.Hour, Issuer: "copyforge"}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthRequired(jwtCfg), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c)})
	})
	r.GET("/admin", AuthRequired(jwtCfg), AdminRequired(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	r := setupRouter()
	token, err := auth.GenerateAccessToken(jwtCfg, 7, "u@example.com", domain.RoleUser)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "not-a-token").Code)

	w := do(r, "/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":7}`, w.Body.String())
}

func TestAdminRequired(t *testing.T) {
	r := setupRouter()
	user, err := auth.GenerateAccessToken(jwtCfg, 7, "u@example.com", domain.RoleUser)
	require.NoError(t, err)
	admin, err := auth.GenerateAccessToken(jwtCfg, 1, "a@example.com", domain.RoleAdmin)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, do(r, "/admin", user).Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/admin", admin).Code)
}

func TestRateLimiter(t *testing.T) {
	l := NewInMemoryRateLimiter(2, time.Minute)
	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))

	short := NewInMemoryRateLimiter(1, 10*time.Millisecond)
	assert.True(t, short.Allow("a"))
	assert.False(t, short.Allow("a"))
	time.Sleep(20 * time.Millisecond)
	short.sweep()
	assert.Empty(t, short.requests)
	assert.True(t, short.Allow("a"))
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(NewInMemoryRateLimiter(1, time.Minute)))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, "/", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, "/", "").Code)
}

func TestRateLimitKeysByUserAfterAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthRequired(jwtCfg), RateLimit(NewInMemoryRateLimiter(1, time.Minute)), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	alice, err := auth.GenerateAccessToken(jwtCfg, 1, "alice@example.com", domain.RoleUser)
	require.NoError(t, err)
	bob, err := auth.GenerateAccessToken(jwtCfg, 2, "bob@example.com", domain.RoleUser)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, do(r, "/me", alice).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, "/me", alice).Code)
	assert.Equal(t, http.StatusOK, do(r, "/me", bob).Code)
}
