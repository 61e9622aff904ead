package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/elviskahoro/gtm-growth-machine/pkg/metric"
)

// HTTPRecovery recovers from handler panics and returns a 500 instead of
// tearing down the connection.
func HTTPRecovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				route := c.FullPath()
				if route == "" {
					route = "unknown"
				}
				metric.Incr("api_request_panic", []string{metric.TagAsString("path", route)})
				log.Error().Msgf("Recovered from panic on %s: %v\n%s", route, r, debug.Stack())
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}
