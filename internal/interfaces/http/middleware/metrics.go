package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/moleculab/sarscope/internal/infrastructure/monitoring/prometheus"
)

// Metrics records one observation per request on the shared collectors.
func Metrics(m *prometheus.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, route,
			strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
