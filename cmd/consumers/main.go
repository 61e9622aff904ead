package main

import (
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/rs/zerolog/log"

	"github.com/elviskahoro/gtm-growth-machine/internal/bootstrap"
	"github.com/elviskahoro/gtm-growth-machine/internal/config/structs"
	"github.com/elviskahoro/gtm-growth-machine/internal/consumers/api"
	"github.com/elviskahoro/gtm-growth-machine/internal/consumers/listener"
	"github.com/elviskahoro/gtm-growth-machine/internal/server"
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

	if appConfig.Configs.FailureProducerKafkaId > 0 {
		skafka.InitProducer(appConfig.Configs.FailureProducerKafkaId)
	}

	// Export batch consumers
	if appConfig.Configs.ExportConsumerKafkaIds == "" {
		log.Error().Msg("ExportConsumerKafkaIds is not set")
	} else {
		skafka.StartConsumers(appConfig.Configs.ExportConsumerKafkaIds, "export", func(msgs []*kafka.Message, c *kafka.Consumer) error {
			records := skafka.MessagesToRecordBytes(msgs)
			return listener.ProcessExportEvents(records, c)
		})
	}

	httpframework.Init()
	api.Init()
	server.InitServer(appConfig.Configs.Port)
}
