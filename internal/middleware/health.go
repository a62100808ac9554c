package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthStatus is the body served by the health endpoint.
type HealthStatus struct {
	Status      string    `json:"status"`
	Database    string    `json:"database"`
	LastChecked time.Time `json:"last_checked"`
	Uptime      string    `json:"uptime"`
	Version     string    `json:"version"`
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthChecker struct {
	db            Pinger
	version       string
	cacheDuration time.Duration
	startTime     time.Time
	now           func() time.Time

	mu               sync.Mutex
	lastResponse     []byte
	lastCode         int
	lastResponseTime time.Time
}

func NewHealthChecker(db Pinger, version string) *HealthChecker {
	return &HealthChecker{
		db:            db,
		version:       version,
		cacheDuration: 5 * time.Second,
		startTime:     time.Now(),
		now:           time.Now,
	}
}

// Handler serves the cached status, pinging the database at most once per
// cache window.
func (h *HealthChecker) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.mu.Lock()
		defer h.mu.Unlock()

		now := h.now()
		if h.lastResponse != nil && now.Sub(h.lastResponseTime) < h.cacheDuration {
			c.Data(h.lastCode, "application/json", h.lastResponse)
			return
		}

		status := HealthStatus{
			Status:      "ok",
			Database:    "ok",
			LastChecked: now,
			Uptime:      now.Sub(h.startTime).Round(time.Second).String(),
			Version:     h.version,
		}
		code := http.StatusOK

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			status.Status = "degraded"
			status.Database = err.Error()
			code = http.StatusServiceUnavailable
		}

		response, _ := json.Marshal(status)
		h.lastResponse = response
		h.lastCode = code
		h.lastResponseTime = now

		c.Data(code, "application/json", response)
	}
}
