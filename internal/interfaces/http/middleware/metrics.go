package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	prom "github.com/turtacn/MetaNet/internal/infrastructure/monitoring/prometheus"
)

// Metrics records request count, latency and in-flight requests.  Routes are
// labelled by their pattern so ids do not explode label cardinality.
func Metrics(m *prom.NetworkMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		done := m.TrackInFlight(c.Request.Method)
		start := time.Now()
		c.Next()
		done()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
