package config

import (
	"log"

	"github.com/spf13/viper"

	"github.com/elviskahoro/gtm-growth-machine/internal/config/structs"
	"github.com/elviskahoro/gtm-growth-machine/pkg/config"
)

func InitConfig(appConfig *structs.AppConfig) {
	config.InitEnv()
	staticConfig := appConfig.GetStaticConfig()
	cfg, ok := staticConfig.(*structs.Configs)
	if !ok {
		log.Fatal("Failed to cast static config to *Configs")
	}
	bindEnvVars()
	setDefaults()
	if err := viper.Unmarshal(cfg); err != nil {
		log.Fatalf("Failed to unmarshal config from environment: %v", err)
	}
}

func bindEnvVars() {
	viper.BindEnv("app_name", "APP_NAME")
	viper.BindEnv("app_env", "APP_ENV")
	viper.BindEnv("auth_tokens", "AUTH_TOKENS")
	viper.BindEnv("port", "PORT")
	viper.BindEnv("integration_schema_path", "INTEGRATION_SCHEMA_PATH")
	viper.BindEnv("export_consumer_kafka_ids", "EXPORT_CONSUMER_KAFKA_IDS")
	viper.BindEnv("export_rate_limit_per_sec", "EXPORT_RATE_LIMIT_PER_SEC")
	viper.BindEnv("failure_producer_kafka_id", "FAILURE_PRODUCER_KAFKA_ID")
	viper.BindEnv("embedding_model", "EMBEDDING_MODEL")
	viper.BindEnv("embedding_batch_size", "EMBEDDING_BATCH_SIZE")
	viper.BindEnv("upload_batch_size", "UPLOAD_BATCH_SIZE")
	viper.BindEnv("upload_delay_in_ms", "UPLOAD_DELAY_IN_MS")
	viper.BindEnv("retry_max_attempts", "RETRY_MAX_ATTEMPTS")
	viper.BindEnv("existing_keys_page_size", "EXISTING_KEYS_PAGE_SIZE")
	viper.BindEnv("dedup_cache_size_in_mb", "DEDUP_CACHE_SIZE_IN_MB")
	viper.BindEnv("dedup_cache_ttl_in_seconds", "DEDUP_CACHE_TTL_IN_SECONDS")
	viper.BindEnv("collection_name", "COLLECTION_NAME")
	viper.BindEnv("primary_key_field", "PRIMARY_KEY_FIELD")
	viper.BindEnv("text_field", "TEXT_FIELD")
	viper.BindEnv("vector_dimension", "VECTOR_DIMENSION")
	viper.BindEnv("index_wait_timeout_in_mins", "INDEX_WAIT_TIMEOUT_IN_MINS")
	viper.BindEnv("force_reprocess", "FORCE_REPROCESS")
	viper.BindEnv("collection_metric_enabled", "COLLECTION_METRIC_ENABLED")
}

func setDefaults() {
	viper.SetDefault("embedding_batch_size", 250)
	viper.SetDefault("upload_batch_size", 250)
	viper.SetDefault("upload_delay_in_ms", 100)
	viper.SetDefault("retry_max_attempts", 3)
	viper.SetDefault("existing_keys_page_size", 10000)
	viper.SetDefault("dedup_cache_size_in_mb", 64)
	viper.SetDefault("dedup_cache_ttl_in_seconds", 300)
	viper.SetDefault("index_wait_timeout_in_mins", 15)
	viper.SetDefault("primary_key_field", "pk")
	viper.SetDefault("text_field", "text")
}
