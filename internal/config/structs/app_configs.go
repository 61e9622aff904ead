package structs

var (
	appConfig AppConfig
)

type AppConfig struct {
	Configs Configs
}

func (cfg *AppConfig) GetStaticConfig() interface{} {
	return &cfg.Configs
}

func GetAppConfig() *AppConfig {
	return &appConfig
}

type Configs struct {
	AppName                 string `mapstructure:"app_name"`
	AppEnv                  string `mapstructure:"app_env"`
	AuthTokens              string `mapstructure:"auth_tokens"`
	Port                    int    `mapstructure:"port"`
	IntegrationSchemaPath   string `mapstructure:"integration_schema_path"`
	ExportConsumerKafkaIds  string `mapstructure:"export_consumer_kafka_ids"`
	ExportRateLimitPerSec   int    `mapstructure:"export_rate_limit_per_sec"`
	FailureProducerKafkaId  int    `mapstructure:"failure_producer_kafka_id"`
	EmbeddingModel          string `mapstructure:"embedding_model"`
	EmbeddingBatchSize      int    `mapstructure:"embedding_batch_size"`
	UploadBatchSize         int    `mapstructure:"upload_batch_size"`
	UploadDelayInMs         int    `mapstructure:"upload_delay_in_ms"`
	RetryMaxAttempts        int    `mapstructure:"retry_max_attempts"`
	ExistingKeysPageSize    int    `mapstructure:"existing_keys_page_size"`
	DedupCacheSizeInMb      int    `mapstructure:"dedup_cache_size_in_mb"`
	DedupCacheTtlInSeconds  int    `mapstructure:"dedup_cache_ttl_in_seconds"`
	CollectionName          string `mapstructure:"collection_name"`
	PrimaryKeyField         string `mapstructure:"primary_key_field"`
	TextField               string `mapstructure:"text_field"`
	VectorDimension         int    `mapstructure:"vector_dimension"`
	IndexWaitTimeoutInMins  int    `mapstructure:"index_wait_timeout_in_mins"`
	ForceReprocess          bool   `mapstructure:"force_reprocess"`
	CollectionMetricEnabled bool   `mapstructure:"collection_metric_enabled"`
}
