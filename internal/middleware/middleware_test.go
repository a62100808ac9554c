package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakePinger struct {
	err   error
	calls int
}

func (p *fakePinger) PingContext(context.Context) error {
	p.calls++
	return p.err
}

func serve(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthCheckCachesPing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	pinger := &fakePinger{}
	checker := NewHealthChecker(pinger, "test")
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	checker.now = func() time.Time { return now }

	router := gin.New()
	router.GET("/health", checker.Handler())

	assert.Equal(t, http.StatusOK, serve(router, "/health").Code)
	assert.Equal(t, http.StatusOK, serve(router, "/health").Code)
	assert.Equal(t, 1, pinger.calls)

	now = now.Add(10 * time.Second)
	pinger.err = errors.New("connection refused")
	w := serve(router, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
	assert.Equal(t, 2, pinger.calls)
}

func TestRecoveryMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RecoveryMiddleware(zap.NewNop()))
	router.GET("/panic", func(*gin.Context) { panic("boom") })

	assert.Equal(t, http.StatusInternalServerError, serve(router, "/panic").Code)
}

func TestTimeoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(TimeoutMiddleware(10 * time.Millisecond))
	router.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	router.GET("/fast", func(c *gin.Context) {
		_, hasDeadline := c.Request.Context().Deadline()
		c.JSON(http.StatusOK, gin.H{"deadline": hasDeadline})
	})

	assert.Equal(t, http.StatusGatewayTimeout, serve(router, "/slow").Code)

	w := serve(router, "/fast")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deadline":true`)
}
