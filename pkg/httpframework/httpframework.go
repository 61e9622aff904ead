package httpframework

import (
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/elviskahoro/gtm-growth-machine/pkg/middleware"
)

var (
	router *gin.Engine
	once   sync.Once
)

// Init builds the shared gin engine. Tracing, request logging and panic
// recovery middleware are always attached after any caller-supplied ones;
// release mode is selected when APP_ENV says prod.
func Init(middlewares ...gin.HandlerFunc) {
	once.Do(func() {
		if env := os.Getenv("APP_ENV"); env == "prod" || env == "production" {
			gin.SetMode(gin.ReleaseMode)
		}
		appName := viper.GetString("APP_NAME")
		if appName == "" {
			log.Fatal().Msg("APP_NAME cannot be empty!!!")
		}
		router = gin.New()
		middlewares = append(middlewares, otelgin.Middleware(appName), middleware.HTTPLogger(), middleware.HTTPRecovery())
		router.Use(middlewares...)
	})
}

// Instance returns the shared engine; Init must have run first.
func Instance() *gin.Engine {
	if router == nil {
		log.Fatal().Msg("Router not initialized")
	}
	return router
}

// ResetForTesting resets the global state for testing purposes
// This function should only be used in tests
func ResetForTesting() {
	router = nil
	once = sync.Once{}
}
