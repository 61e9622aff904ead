package webhook

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/elviskahoro/gtm-growth-machine/pkg/httpframework"
)

const HealthCheckPath = "/health"

// InitRouter expects http framework to be initialized before calling this function
func InitRouter() {
	api := httpframework.Instance().Group("/api")
	{
		v1Group := api.Group("/v1")
		{
			v1Group.POST("/webhook/:integration", NewController().Ingest)
			v1Group.GET("/runs/:runId", NewController().GetRun)
		}
	}

	httpframework.Instance().GET(HealthCheckPath, Health)
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
