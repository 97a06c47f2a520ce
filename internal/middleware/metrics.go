package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestMetrics holds in-memory request metrics
type RequestMetrics struct {
	mu                 sync.RWMutex
	StartedAt          time.Time
	TotalRequests      uint64
	RequestsByEndpoint map[string]uint64
	RequestsByStatus   map[string]uint64
}

var metrics = newRequestMetrics()

func newRequestMetrics() *RequestMetrics {
	return &RequestMetrics{
		StartedAt:          time.Now(),
		RequestsByEndpoint: make(map[string]uint64),
		RequestsByStatus:   make(map[string]uint64),
	}
}

func (m *RequestMetrics) record(endpoint string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TotalRequests++
	m.RequestsByEndpoint[endpoint]++
	m.RequestsByStatus[strconv.Itoa(status)]++
}

// GetMetrics returns a copy of the current request metrics
func GetMetrics() RequestMetrics {
	metrics.mu.RLock()
	defer metrics.mu.RUnlock()
	return RequestMetrics{
		StartedAt:          metrics.StartedAt,
		TotalRequests:      metrics.TotalRequests,
		RequestsByEndpoint: copyMap(metrics.RequestsByEndpoint),
		RequestsByStatus:   copyMap(metrics.RequestsByStatus),
	}
}

// ResetMetrics clears all counters
func ResetMetrics() {
	fresh := newRequestMetrics()
	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	metrics.StartedAt = fresh.StartedAt
	metrics.TotalRequests = 0
	metrics.RequestsByEndpoint = fresh.RequestsByEndpoint
	metrics.RequestsByStatus = fresh.RequestsByStatus
}

func copyMap(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// MetricsHandler returns current request metrics
func MetricsHandler(c *gin.Context) {
	m := GetMetrics()
	c.JSON(http.StatusOK, gin.H{
		"uptime_seconds":       int64(time.Since(m.StartedAt).Seconds()),
		"total_requests":       m.TotalRequests,
		"requests_by_endpoint": m.RequestsByEndpoint,
		"requests_by_status":   m.RequestsByStatus,
	})
}
