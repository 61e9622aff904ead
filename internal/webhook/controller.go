package webhook

import (
	"context"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/elviskahoro/gtm-growth-machine/internal/config/structs"
	"github.com/elviskahoro/gtm-growth-machine/internal/pipeline"
	"github.com/elviskahoro/gtm-growth-machine/internal/records"
	"github.com/elviskahoro/gtm-growth-machine/pkg/metric"
)

const AuthTokenHeader = "X-Auth-Token"

var (
	v1   *ControllerV1
	once sync.Once
)

type ControllerV1 struct {
	registry  *records.Registry
	runner    *pipeline.Runner
	appConfig structs.Configs
}

func NewController() *ControllerV1 {
	if v1 == nil {
		once.Do(func() {
			cfg := structs.GetAppConfig().Configs
			registry, err := records.LoadRegistry(cfg.IntegrationSchemaPath)
			if err != nil {
				log.Panic().Err(err).Msgf("Failed to load integration schema registry from %s", cfg.IntegrationSchemaPath)
			}
			v1 = &ControllerV1{
				registry:  registry,
				runner:    pipeline.NewRunner(),
				appConfig: cfg,
			}
		})
	}
	return v1
}

// Ingest accepts one webhook delivery, validates it against the
// integration's schema and starts a pipeline run in the background. The
// response carries the run ID for later report lookup.
func (ctrl *ControllerV1) Ingest(c *gin.Context) {
	integration := c.Param("integration")
	tags := []string{metric.TagAsString("integration", integration)}
	metric.Incr("webhook_request", tags)

	if !ctrl.isAuthorized(c) {
		metric.Incr("webhook_request_401", tags)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid auth token"})
		return
	}

	schema, ok := ctrl.registry.Get(integration)
	if !ok {
		metric.Incr("webhook_request_404", tags)
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown integration " + integration})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		metric.Incr("webhook_request_4xx", tags)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}
	recs, err := records.ParsePayload(body)
	if err != nil {
		metric.Incr("webhook_request_4xx", tags)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(recs) == 0 {
		metric.Incr("webhook_request_4xx", tags)
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty payload"})
		return
	}
	if err := schema.ValidateAll(recs); err != nil {
		metric.Incr("webhook_request_4xx", tags)
		log.Debug().Err(err).Str("integration", integration).Msg("Webhook payload failed validation")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	force := ctrl.appConfig.ForceReprocess || c.Query("force") == "true"
	runId := uuid.NewString()
	go func() {
		// Detached from the request context — the run outlives the response.
		if _, runErr := ctrl.runner.RunWithId(context.Background(), runId, integration, schema, recs, force); runErr != nil {
			log.Error().Err(runErr).Str("runId", runId).Msg("Async pipeline run failed")
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"run_id":  runId,
		"records": len(recs),
	})
}

// GetRun returns the report of a finished or errored pipeline run.
func (ctrl *ControllerV1) GetRun(c *gin.Context) {
	runId := c.Param("runId")
	report, ok := pipeline.Reports().Get(runId)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run " + runId + " not found"})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (ctrl *ControllerV1) isAuthorized(c *gin.Context) bool {
	if ctrl.appConfig.AuthTokens == "" {
		return true
	}
	token := c.GetHeader(AuthTokenHeader)
	return slices.Contains(strings.Split(ctrl.appConfig.AuthTokens, ","), token)
}
