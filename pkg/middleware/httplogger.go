package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/elviskahoro/gtm-growth-machine/pkg/metric"
)

// HTTPLogger logs the request and publishes per-route count/latency metrics.
func HTTPLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}

		clientIP := c.ClientIP()
		method := c.Request.Method
		statusCode := c.Writer.Status()

		metricTags := []string{
			metric.TagAsString("path", route),
			metric.TagAsString("method", method),
			metric.TagAsString("http_status_code", strconv.Itoa(statusCode)),
		}
		metric.Incr("api_request_count", metricTags)
		metric.Timing("api_request_latency", latency, metricTags)
		log.Info().Msgf("[access] [%s] %s %s %d %v", clientIP, method, route, statusCode, latency)
	}
}
