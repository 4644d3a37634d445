package middleware

import (
	"strconv"
	"time"

	"github.com/artfolio/backend/internal/metrics"
	"github.com/gin-gonic/gin"
)

// MetricsMiddleware collects HTTP metrics for Prometheus
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		m := metrics.Get()
		if m == nil {
			c.Next()
			return
		}

		method := c.Request.Method

		startTime := time.Now()
		c.Next()
		duration := time.Since(startTime).Seconds()

		// Use the route template, not the raw URL, to bound cardinality
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		// Numeric status code as string so Grafana queries like
		// status=~"5.." match 5xx errors
		statusStr := strconv.Itoa(c.Writer.Status())

		m.HTTPRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, path, statusStr).Observe(duration)
	}
}
