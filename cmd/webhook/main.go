package main

import (
	"github.com/elviskahoro/gtm-growth-machine/internal/bootstrap"
	"github.com/elviskahoro/gtm-growth-machine/internal/config/structs"
	"github.com/elviskahoro/gtm-growth-machine/internal/repositories/vector"
	"github.com/elviskahoro/gtm-growth-machine/internal/server"
	"github.com/elviskahoro/gtm-growth-machine/internal/webhook"
	"github.com/elviskahoro/gtm-growth-machine/pkg/httpframework"
	skafka "github.com/elviskahoro/gtm-growth-machine/pkg/kafka"
	"github.com/elviskahoro/gtm-growth-machine/pkg/logger"
	"github.com/elviskahoro/gtm-growth-machine/pkg/metric"
	"github.com/elviskahoro/gtm-growth-machine/pkg/profiling"
	"github.com/elviskahoro/gtm-growth-machine/pkg/tracing"
)

func main() {
	bootstrap.Init()
	appConfig := structs.GetAppConfig()
	logger.Init()
	metric.Init()
	tracing.Init()
	defer tracing.ShutdownTracer()
	profiling.Init()

	// Failure producer is a static ID known at startup; 0 disables it.
	if appConfig.Configs.FailureProducerKafkaId > 0 {
		skafka.InitProducer(appConfig.Configs.FailureProducerKafkaId)
	}

	httpframework.Init()
	webhook.InitRouter()

	go vector.PublishCollectionMetrics(vector.NewRepository(vector.DefaultVersion))

	server.InitServer(appConfig.Configs.Port)
}
