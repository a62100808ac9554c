package rate_limiter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLimiter(t *testing.T, limit int) (*RateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRateLimiter(client, limit, time.Hour), mr
}

func TestIsAllowed(t *testing.T) {
	limiter, _ := newTestLimiter(t, 2)
	ctx := context.Background()

	allowed, remaining, err := limiter.IsAllowed(ctx, "actor:1")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, remaining)

	allowed, remaining, err = limiter.IsAllowed(ctx, "actor:1")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 0, remaining)

	allowed, remaining, err = limiter.IsAllowed(ctx, "actor:1")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)

	allowed, _, err = limiter.IsAllowed(ctx, "actor:2")
	require.NoError(t, err)
	assert.True(t, allowed, "keys are limited independently")
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter, mr := newTestLimiter(t, 1)

	router := gin.New()
	router.Use(limiter.Middleware(func(c *gin.Context) string { return "actor:1" }, zap.NewNop()))
	router.POST("/assets/1/checkout", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/assets/1/checkout", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/assets/1/checkout", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	mr.Close()

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/assets/1/checkout", nil))
	assert.Equal(t, http.StatusOK, w.Code, "requests pass when redis is down")
}
