package kafka

import (
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/rs/zerolog/log"

	kafkaConf "github.com/elviskahoro/gtm-growth-machine/internal/config"
	"github.com/elviskahoro/gtm-growth-machine/pkg/metric"
)

const (
	bootstrapServers     = "bootstrap.servers"
	groupID              = "group.id"
	autoOffsetReset      = "auto.offset.reset"
	reBalanceEnable      = "go.application.rebalance.enable"
	enableAutoCommit     = "enable.auto.commit"
	autoCommitIntervalMs = "auto.commit.interval.ms"
	saslUsername         = "sasl.username"
	saslPassword         = "sasl.password"
	saslMechanism        = "sasl.mechanisms"
	securityProtocol     = "security.protocol"
	clientId             = "client.id"

	batchFlushInterval = 30 * time.Second
)

// BatchHandler processes one polled batch. A nil return commits the batch;
// an error makes the listener seek the batch back for redelivery.
type BatchHandler func(msgs []*kafka.Message, c *kafka.Consumer) error

// BatchListener polls a set of consumers and hands full or stale batches to
// the handler. A batch is flushed when it reaches the configured size or
// when the flush interval elapses with messages pending.
type BatchListener struct {
	consumers    []*kafka.Consumer
	kafkaConfig  *kafkaConf.KafkaConfig
	sigChan      chan os.Signal
	done         chan struct{}
	shutdownOnce sync.Once
	batchHandler BatchHandler
}

// StartConsumers builds one BatchListener per kafka ID in the comma-separated
// list, reading each listener's config from the KAFKA_<id> env prefix.
func StartConsumers(kafkaIds string, consumerName string, handler BatchHandler) {
	for _, kafkaId := range strings.Split(kafkaIds, ",") {
		kafkaId = strings.TrimSpace(kafkaId)
		if kafkaId == "" {
			continue
		}
		cfg, err := kafkaConf.NewKafkaConfig().BuildConfigFromEnv("KAFKA_" + kafkaId)
		if err != nil {
			log.Error().Err(err).Msgf("Failed to build kafka config for %s consumer, kafkaId=%s", consumerName, kafkaId)
			continue
		}
		listener := NewBatchListener(cfg, handler)
		listener.Init()
		listener.Consume()
		log.Info().Str("topics", cfg.Topics).Str("group", cfg.GroupID).
			Msgf("Started %s consumer for kafkaId=%s", consumerName, kafkaId)
	}
}

func NewBatchListener(cfg *kafkaConf.KafkaConfig, batchHandler BatchHandler) *BatchListener {
	return &BatchListener{
		kafkaConfig:  cfg,
		batchHandler: batchHandler,
	}
}

func (k *BatchListener) configMapFor(index int) *kafka.ConfigMap {
	configMap := &kafka.ConfigMap{
		bootstrapServers:     k.kafkaConfig.BootstrapURLs,
		groupID:              k.kafkaConfig.GroupID,
		autoOffsetReset:      k.kafkaConfig.AutoOffsetReset,
		reBalanceEnable:      k.kafkaConfig.ReBalanceEnable,
		enableAutoCommit:     k.kafkaConfig.AutoCommitEnable,
		autoCommitIntervalMs: k.kafkaConfig.AutoCommitIntervalInMs,
		clientId:             k.kafkaConfig.ClientID + "-" + strconv.Itoa(index),
	}
	if k.kafkaConfig.SecurityProtocol != "" {
		(*configMap)[securityProtocol] = k.kafkaConfig.SecurityProtocol
	}
	if k.kafkaConfig.SaslMechanism != "" {
		(*configMap)[saslMechanism] = k.kafkaConfig.SaslMechanism
	}
	if k.kafkaConfig.SaslUsername != "" {
		(*configMap)[saslUsername] = k.kafkaConfig.SaslUsername
	}
	if k.kafkaConfig.SaslPassword != "" {
		(*configMap)[saslPassword] = k.kafkaConfig.SaslPassword
	}
	return configMap
}

func (k *BatchListener) Init() {
	topics := splitAndTrim(k.kafkaConfig.Topics)
	if len(topics) == 0 {
		log.Panic().Msgf("No topics configured for group %s", k.kafkaConfig.GroupID)
	}
	for i := 0; i < k.kafkaConfig.Concurrency; i++ {
		consumer, err := kafka.NewConsumer(k.configMapFor(i))
		if err != nil {
			log.Panic().Err(err).Msg("Failed to create Kafka consumer.")
		}
		if err = consumer.SubscribeTopics(topics, nil); err != nil {
			log.Panic().Err(err).Msgf("Failed to subscribe to topics %v", topics)
		}
		k.consumers = append(k.consumers, consumer)
	}
	k.initShutdown()
}

// initShutdown turns the single OS signal into a broadcast: the watcher
// closes done, which every poll loop observes regardless of concurrency.
func (k *BatchListener) initShutdown() {
	k.done = make(chan struct{})
	k.sigChan = make(chan os.Signal, 1)
	signal.Notify(k.sigChan, syscall.SIGINT, syscall.SIGTERM)
	go k.watchSignals()
}

func (k *BatchListener) watchSignals() {
	sig := <-k.sigChan
	log.Info().Str("group", k.kafkaConfig.GroupID).Msgf("Received %s, shutting down consumers", sig)
	k.Shutdown()
}

// Shutdown signals every poll loop to drain its batch and exit. Idempotent.
func (k *BatchListener) Shutdown() {
	k.shutdownOnce.Do(func() { close(k.done) })
}

// Consume starts one polling goroutine per consumer and returns immediately.
func (k *BatchListener) Consume() {
	for _, c := range k.consumers {
		go k.pollLoop(c)
	}
}

func (k *BatchListener) pollLoop(consumer *kafka.Consumer) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("Recovered from consumer panic: %v", r)
			partitions, _ := consumer.Assignment()
			if _, err := consumer.SeekPartitions(partitions); err != nil {
				log.Error().Err(err).Msg("Failed to seek partitions after panic")
			}
			metric.Incr("consumer_panic", []string{
				metric.TagAsString("group", k.kafkaConfig.GroupID),
				metric.TagAsString("client", k.kafkaConfig.ClientID),
			})
		}
	}()

	messages := make([]*kafka.Message, 0, k.kafkaConfig.BatchSize)
	flushTimer := time.NewTicker(batchFlushInterval)
	defer flushTimer.Stop()

	for {
		select {
		case <-k.done:
			log.Info().Str("group", k.kafkaConfig.GroupID).Msg("Shutting down consumer")
			if len(messages) > 0 {
				k.processBatch(consumer, messages)
			}
			if err := consumer.Unsubscribe(); err != nil {
				log.Error().Err(err).Msg("Error while unsubscribing topics")
			}
			if err := consumer.Close(); err != nil {
				log.Error().Err(err).Msg("Error while closing consumer")
			}
			return

		case <-flushTimer.C:
			if len(messages) > 0 {
				log.Info().Int("msgCount", len(messages)).Msg("Flushing stale batch")
				k.processBatch(consumer, messages)
				messages = messages[:0]
			}

		default:
			ev := consumer.Poll(k.kafkaConfig.PollTimeout)
			if ev == nil {
				continue
			}
			switch e := ev.(type) {
			case *kafka.Message:
				metric.Incr("events_consumed", []string{
					metric.TagAsString("topic", *e.TopicPartition.Topic),
					metric.TagAsString("group", k.kafkaConfig.GroupID),
				})
				messages = append(messages, e)
				if len(messages) == k.kafkaConfig.BatchSize {
					k.processBatch(consumer, messages)
					messages = messages[:0]
				}

			case kafka.Error:
				if !e.IsFatal() {
					log.Error().Err(e).Msg("Non-fatal Kafka error encountered.")
					continue
				}
				log.Error().Err(e).Msg("Fatal Kafka error. Shutting down consumer.")
				if len(messages) > 0 {
					k.processBatch(consumer, messages)
				}
				return

			default:
				log.Debug().Msgf("Ignored event: %#v", e)
			}
		}
	}
}

func (k *BatchListener) processBatch(consumer *kafka.Consumer, messages []*kafka.Message) {
	if len(messages) == 0 {
		return
	}
	if err := k.batchHandler(messages, consumer); err != nil {
		log.Error().Err(err).Int("msgCount", len(messages)).Msg("Batch processing failed, seeking back")
		k.seekBack(consumer, messages)
		return
	}
	if !k.kafkaConfig.AutoCommitEnable {
		if _, err := consumer.Commit(); err != nil {
			log.Error().Err(err).Msg("Failed to commit")
		}
	}
}

// seekBack rewinds each partition to the earliest offset in the failed batch
// so the whole batch is redelivered.
func (k *BatchListener) seekBack(consumer *kafka.Consumer, messages []*kafka.Message) {
	type partitionKey struct {
		topic     string
		partition int32
	}
	earliest := make(map[partitionKey]kafka.TopicPartition)
	for _, m := range messages {
		key := partitionKey{topic: *m.TopicPartition.Topic, partition: m.TopicPartition.Partition}
		if tp, ok := earliest[key]; !ok || m.TopicPartition.Offset < tp.Offset {
			earliest[key] = m.TopicPartition
		}
	}
	topicPartitions := make([]kafka.TopicPartition, 0, len(earliest))
	for _, tp := range earliest {
		topicPartitions = append(topicPartitions, tp)
	}
	if _, err := consumer.SeekPartitions(topicPartitions); err != nil {
		log.Error().Err(err).Msg("Failed to seek partitions")
	}
}

func splitAndTrim(topicsStr string) []string {
	parts := strings.Split(topicsStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
