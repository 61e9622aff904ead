package listener

import (
	"encoding/json"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/rs/zerolog/log"

	"github.com/elviskahoro/gtm-growth-machine/internal/consumers/listener/export"
	skafka "github.com/elviskahoro/gtm-growth-machine/pkg/kafka"
	"github.com/elviskahoro/gtm-growth-machine/pkg/metric"
)

// ProcessExportEvents deserializes one polled batch into export events and
// hands them to the export consumer. Messages that are bare webhook payloads
// fall back to the record key as the integration name.
func ProcessExportEvents(recs []skafka.ConsumerRecord[string, []byte], c *kafka.Consumer) error {
	exportConsumer := export.NewConsumer(export.DefaultVersion)
	var events []export.Event

	for _, r := range recs {
		var event export.Event
		err := json.Unmarshal(r.Value, &event)
		if err != nil || event.Integration == "" || len(event.Payload) == 0 {
			event = export.Event{
				Integration: r.Key,
				Payload:     r.Value,
			}
		}

		metric.Incr("export_consumer_event", []string{
			metric.TagAsString("integration", event.Integration),
		})
		events = append(events, event)
	}

	err := exportConsumer.Process(events)
	if err != nil {
		log.Error().Msgf("Error in processing export events %v", err)
		return err
	}
	return nil
}
