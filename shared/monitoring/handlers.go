package monitoring

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes adds GET /health and GET /status to r.
func RegisterRoutes(r gin.IRoutes, m *Monitor) {
	r.GET("/health", HealthHandler(m))
	r.GET("/status", StatusHandler(m))
}

func HealthHandler(m *Monitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.IsHealthy() {
			c.String(http.StatusOK, "OK - %s", m.GetStatusSummary())
			return
		}
		c.String(http.StatusServiceUnavailable, "Service unhealthy - %s", m.GetStatusSummary())
	}
}

func StatusHandler(m *Monitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, m.Snapshot())
	}
}
