package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/records-panel/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics observes request latency per route template. Static assets and
// event streams are not observed: streams stay open for the page lifetime.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil || strings.HasPrefix(c.Request.URL.Path, "/static/") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		if c.Writer.Header().Get("Content-Type") == "text/event-stream" {
			return
		}
		route := c.FullPath()
		if route == "" {
			// raw paths of 404s would explode label cardinality
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
