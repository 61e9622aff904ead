package kafka

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/rs/zerolog/log"

	kafkaConf "github.com/elviskahoro/gtm-growth-machine/internal/config"
)

// ProducerMessage is one message to produce. Key and Partition are optional;
// a nil Partition lets the broker pick.
type ProducerMessage struct {
	Key       *string
	Value     []byte
	Headers   map[string][]byte
	Partition *int
}

// producerEntry binds a kafkaId to its target topic on a shared producer.
// KafkaIds pointing at the same broker and auth reuse one confluent
// *kafka.Producer; only the topic differs.
type producerEntry struct {
	producer *kafka.Producer
	topic    string
}

var producerRegistry = struct {
	sync.RWMutex
	entries  map[int]*producerEntry
	clusters map[string]*kafka.Producer
}{
	entries:  make(map[int]*producerEntry),
	clusters: make(map[string]*kafka.Producer),
}

// InitProducer registers a producer for the given kafkaId from the
// KAFKA_PRODUCER_<kafkaId> env prefix. Idempotent; reuses an existing
// confluent producer when the broker and auth match a registered one.
func InitProducer(kafkaId int) {
	producerRegistry.RLock()
	_, exists := producerRegistry.entries[kafkaId]
	producerRegistry.RUnlock()
	if exists {
		return
	}

	cfg, err := kafkaConf.NewKafkaConfig().BuildProducerConfigFromEnv("KAFKA_PRODUCER_" + strconv.Itoa(kafkaId))
	if err != nil {
		log.Error().Err(err).Int("kafkaId", kafkaId).Msg("Failed to build producer config")
		return
	}

	producerRegistry.Lock()
	defer producerRegistry.Unlock()
	if _, exists := producerRegistry.entries[kafkaId]; exists {
		return
	}

	key := cfg.BootstrapURLs + "|" + cfg.SecurityProtocol + "|" + cfg.SaslMechanism + "|" + cfg.SaslUsername
	producer, ok := producerRegistry.clusters[key]
	if !ok {
		producer, err = newClusterProducer(cfg)
		if err != nil {
			log.Error().Err(err).Int("kafkaId", kafkaId).Msg("Failed to create kafka producer")
			return
		}
		producerRegistry.clusters[key] = producer
	}

	producerRegistry.entries[kafkaId] = &producerEntry{producer: producer, topic: cfg.Topics}
	log.Info().Int("kafkaId", kafkaId).Str("topic", cfg.Topics).Msg("Kafka producer registered")
}

// SendAndForget produces messages to the topic registered for kafkaId.
// Delivery reports are drained in the background; callers only see
// enqueue-time errors.
func SendAndForget(kafkaId int, msgs []ProducerMessage) error {
	producerRegistry.RLock()
	entry, ok := producerRegistry.entries[kafkaId]
	producerRegistry.RUnlock()
	if !ok {
		return fmt.Errorf("producer not initialised for kafkaId=%d", kafkaId)
	}

	for _, m := range msgs {
		kafkaMsg := &kafka.Message{
			TopicPartition: kafka.TopicPartition{
				Topic:     &entry.topic,
				Partition: kafka.PartitionAny,
			},
			Value: m.Value,
		}
		if m.Key != nil {
			kafkaMsg.Key = []byte(*m.Key)
		}
		if m.Partition != nil {
			kafkaMsg.TopicPartition.Partition = int32(*m.Partition)
		}
		for k, v := range m.Headers {
			kafkaMsg.Headers = append(kafkaMsg.Headers, kafka.Header{Key: k, Value: v})
		}
		if err := entry.producer.Produce(kafkaMsg, nil); err != nil {
			return fmt.Errorf("kafka produce error: %w", err)
		}
	}
	return nil
}

func newClusterProducer(cfg *kafkaConf.ProducerConfig) (*kafka.Producer, error) {
	configMap := kafka.ConfigMap{
		bootstrapServers: cfg.BootstrapURLs,
		clientId:         cfg.ClientID,
	}
	if cfg.SecurityProtocol != "" {
		configMap[securityProtocol] = cfg.SecurityProtocol
	}
	if cfg.SaslMechanism != "" {
		configMap["sasl.mechanism"] = cfg.SaslMechanism
	}
	if cfg.SaslUsername != "" {
		configMap[saslUsername] = cfg.SaslUsername
	}
	if cfg.SaslPassword != "" {
		configMap[saslPassword] = cfg.SaslPassword
	}

	producer, err := kafka.NewProducer(&configMap)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	// Drain delivery reports so Produce never blocks on a full event queue.
	go func() {
		for e := range producer.Events() {
			if msg, ok := e.(*kafka.Message); ok && msg.TopicPartition.Error != nil {
				log.Error().Err(msg.TopicPartition.Error).
					Str("topic", *msg.TopicPartition.Topic).
					Msg("Kafka delivery failed")
			}
		}
	}()
	return producer, nil
}
