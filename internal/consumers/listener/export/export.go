package export

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/elviskahoro/gtm-growth-machine/internal/config/structs"
	"github.com/elviskahoro/gtm-growth-machine/internal/pipeline"
	"github.com/elviskahoro/gtm-growth-machine/internal/records"
	"github.com/elviskahoro/gtm-growth-machine/pkg/metric"
)

var (
	exportConsumer Consumer
	exportOnce     sync.Once
)

type ExportConsumer struct {
	registry  *records.Registry
	runner    *pipeline.Runner
	limiter   *rate.Limiter
	AppConfig *structs.AppConfig
}

func newExportConsumer() Consumer {
	if exportConsumer == nil {
		exportOnce.Do(func() {
			appConfig := structs.GetAppConfig()
			registry, err := records.LoadRegistry(appConfig.Configs.IntegrationSchemaPath)
			if err != nil {
				log.Panic().Err(err).Msgf("Failed to load integration schema registry from %s", appConfig.Configs.IntegrationSchemaPath)
			}
			limit := rate.Inf
			burst := 1
			if perSec := appConfig.Configs.ExportRateLimitPerSec; perSec > 0 {
				limit = rate.Limit(perSec)
				burst = perSec
			}
			exportConsumer = &ExportConsumer{
				registry:  registry,
				runner:    pipeline.NewRunner(),
				limiter:   rate.NewLimiter(limit, burst),
				AppConfig: appConfig,
			}
		})
	}
	return exportConsumer
}

// Process runs each export event through the pipeline, grouped by
// integration so one batch of records becomes one run. Any failure returns
// an error so the listener can seek the batch back.
func (e *ExportConsumer) Process(events []Event) error {
	grouped := make(map[string][]records.Record)
	force := make(map[string]bool)
	order := make([]string, 0)
	for i, event := range events {
		if event.Integration == "" {
			return fmt.Errorf("export event %d missing integration", i)
		}
		if _, ok := e.registry.Get(event.Integration); !ok {
			return fmt.Errorf("export event %d references unknown integration %s", i, event.Integration)
		}
		recs, err := records.ParsePayload(event.Payload)
		if err != nil {
			return fmt.Errorf("export event %d: %w", i, err)
		}
		if _, seen := grouped[event.Integration]; !seen {
			order = append(order, event.Integration)
		}
		grouped[event.Integration] = append(grouped[event.Integration], recs...)
		if event.Force {
			force[event.Integration] = true
		}
	}

	for _, integration := range order {
		recs := grouped[integration]
		schema, _ := e.registry.Get(integration)
		if err := schema.ValidateAll(recs); err != nil {
			return fmt.Errorf("export batch for %s failed validation: %w", integration, err)
		}
		if err := e.limiter.Wait(context.Background()); err != nil {
			return err
		}
		tags := []string{metric.TagAsString("integration", integration)}
		metric.Count("export_consumer_records", int64(len(recs)), tags)
		report, err := e.runner.Run(context.Background(), integration, schema, recs, force[integration])
		if err != nil {
			log.Error().Err(err).Str("integration", integration).Int("records", len(recs)).Msg("Export pipeline run failed")
			return err
		}
		log.Info().Str("runId", report.RunId).Str("integration", integration).
			Int("uploaded", len(report.UploadedKeys)).Int("skipped", report.SkippedExisting).
			Msg("Export pipeline run finished")
	}
	return nil
}
