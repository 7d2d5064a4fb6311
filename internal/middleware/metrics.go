package middleware

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
)

// Metrics holds in-memory request metrics
type Metrics struct {
	mu                 sync.RWMutex
	totalRequests      uint64
	requestsByEndpoint map[string]uint64
	requestsByStatus   map[string]uint64
}

// MetricsSnapshot is a point-in-time copy of Metrics
type MetricsSnapshot struct {
	TotalRequests      uint64            `json:"total_requests"`
	RequestsByEndpoint map[string]uint64 `json:"requests_by_endpoint"`
	RequestsByStatus   map[string]uint64 `json:"requests_by_status"`
}

// NewMetrics creates an empty metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		requestsByEndpoint: make(map[string]uint64),
		requestsByStatus:   make(map[string]uint64),
	}
}

// Record counts one completed request
func (m *Metrics) Record(endpoint string, status int) {
	m.mu.Lock()
	m.totalRequests++
	m.requestsByEndpoint[endpoint]++
	m.requestsByStatus[strconv.Itoa(status)]++
	m.mu.Unlock()
}

// Snapshot returns the current request metrics
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return MetricsSnapshot{
		TotalRequests:      m.totalRequests,
		RequestsByEndpoint: copyMap(m.requestsByEndpoint),
		RequestsByStatus:   copyMap(m.requestsByStatus),
	}
}

// copyMap creates a copy of the map
func copyMap(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// CacheStatsFunc reports weather cache hits and misses
type CacheStatsFunc func() (hits, misses int)

// MetricsHandler returns current request metrics and, when cacheStats is
// set, the weather cache counters
func MetricsHandler(m *Metrics, cacheStats CacheStatsFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		snapshot := m.Snapshot()
		body := gin.H{
			"total_requests":       snapshot.TotalRequests,
			"requests_by_endpoint": snapshot.RequestsByEndpoint,
			"requests_by_status":   snapshot.RequestsByStatus,
		}
		if cacheStats != nil {
			hits, misses := cacheStats()
			body["weather_cache"] = gin.H{"hits": hits, "misses": misses}
		}
		c.JSON(http.StatusOK, body)
	}
}
