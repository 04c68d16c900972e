package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"plategate/internal/constants"
)

// LoadConfig reads configFile, applies environment overrides and validates
// the result. An empty configFile loads defaults and environment only.
func LoadConfig(configFile string) (*Config, error) {
	viper.Reset()

	viper.SetConfigType("yaml")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()
	bindEnvVariables()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("listener.port", constants.DefaultListenerPort)
	viper.SetDefault("listener.read_timeout", 0)
	viper.SetDefault("listener.max_request_bytes", 0)
	viper.SetDefault("listener.shutdown_timeout", constants.ShutdownTimeout)
	viper.SetDefault("listener.discovery.max_attempts", 5)
	viper.SetDefault("listener.discovery.initial_interval", 500*time.Millisecond)
	viper.SetDefault("listener.discovery.max_interval", 5*time.Second)
	viper.SetDefault("listener.discovery.multiplier", 2.0)

	viper.SetDefault("server.enabled", true)
	viper.SetDefault("server.port", constants.DefaultAdminPort)
	viper.SetDefault("server.read_timeout", constants.DefaultHTTPTimeout)
	viper.SetDefault("server.write_timeout", constants.DefaultHTTPTimeout)

	viper.SetDefault("storage.type", constants.StorageTypeFilesystem)
	viper.SetDefault("storage.root", ".")
	viper.SetDefault("storage.sanitize_filenames", false)
	viper.SetDefault("storage.s3.timeout", 30*time.Second)

	viper.SetDefault("sink.type", constants.SinkTypeMongoDB)
	viper.SetDefault("sink.timeout", constants.DefaultSinkTimeout)
	viper.SetDefault("sink.mongodb.collection", constants.DefaultEventCollection)

	viper.SetDefault("database.mongodb.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.mongodb.database", constants.DefaultMongoDBName)

	viper.SetDefault("broker.kafka.topic", constants.DefaultEventTopic)
	viper.SetDefault("broker.kafka.write_timeout", constants.KafkaWriteTimeout)

	viper.SetDefault("deduplication.hash_algorithm", "sha256")
	viper.SetDefault("deduplication.ttl_seconds", constants.DefaultTTLSeconds)
	viper.SetDefault("deduplication.on_redis_error", constants.FallbackAllow)
	viper.SetDefault("deduplication.fields_to_hash", []string{"ip_address", "license_plate", "date_time"})

	viper.SetDefault("circuit_breaker.max_requests", 3)
	viper.SetDefault("circuit_breaker.interval", 60*time.Second)
	viper.SetDefault("circuit_breaker.timeout", 30*time.Second)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetDefault("tracing.service_name", constants.ServiceName)
	viper.SetDefault("tracing.sampler.type", "always_on")
}

func bindEnvVariables() {
	viper.BindEnv("listener.host", "LISTENER_HOST")
	viper.BindEnv("listener.port", "LISTENER_PORT")
	viper.BindEnv("listener.read_timeout", "LISTENER_READ_TIMEOUT")
	viper.BindEnv("listener.max_request_bytes", "LISTENER_MAX_REQUEST_BYTES")

	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.enabled", "SERVER_ENABLED")

	viper.BindEnv("storage.type", "STORAGE_TYPE")
	viper.BindEnv("storage.root", "STORAGE_ROOT")
	viper.BindEnv("storage.sanitize_filenames", "STORAGE_SANITIZE_FILENAMES")
	viper.BindEnv("storage.s3.bucket", "STORAGE_S3_BUCKET")
	viper.BindEnv("storage.s3.prefix", "STORAGE_S3_PREFIX")
	viper.BindEnv("storage.s3.region", "STORAGE_S3_REGION")
	viper.BindEnv("storage.s3.endpoint", "STORAGE_S3_ENDPOINT")

	viper.BindEnv("sink.type", "SINK_TYPE")
	viper.BindEnv("sink.filter", "SINK_FILTER")

	viper.BindEnv("broker.kafka.brokers", "BROKER_KAFKA_BROKERS")
	viper.BindEnv("broker.kafka.topic", "BROKER_KAFKA_TOPIC")

	viper.BindEnv("database.postgres.host", "DATABASE_POSTGRES_HOST")
	viper.BindEnv("database.postgres.port", "DATABASE_POSTGRES_PORT")
	viper.BindEnv("database.postgres.user", "DATABASE_POSTGRES_USER")
	viper.BindEnv("database.postgres.password", "DATABASE_POSTGRES_PASSWORD")
	viper.BindEnv("database.postgres.dbname", "DATABASE_POSTGRES_DBNAME")
	viper.BindEnv("database.postgres.sslmode", "DATABASE_POSTGRES_SSLMODE")

	viper.BindEnv("database.redis.host", "DATABASE_REDIS_HOST")
	viper.BindEnv("database.redis.port", "DATABASE_REDIS_PORT")
	viper.BindEnv("database.redis.password", "DATABASE_REDIS_PASSWORD")
	viper.BindEnv("database.redis.db", "DATABASE_REDIS_DB")

	viper.BindEnv("database.mongodb.uri", "DATABASE_MONGODB_URI")
	viper.BindEnv("database.mongodb.database", "DATABASE_MONGODB_DATABASE")

	viper.BindEnv("logging.level", "LOGGING_LEVEL")
	viper.BindEnv("logging.format", "LOGGING_FORMAT")

	viper.BindEnv("tracing.otlp.endpoint", "TRACING_OTLP_ENDPOINT")
	viper.BindEnv("tracing.otlp.insecure", "TRACING_OTLP_INSECURE")
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.service_name", "TRACING_SERVICE_NAME")
}

func applyEnvOverrides(cfg *Config) error {
	if brokersEnv := viper.GetString("BROKER_KAFKA_BROKERS"); brokersEnv != "" {
		brokers := strings.Split(brokersEnv, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		if len(brokers) > 0 && brokers[0] != "" {
			cfg.Broker.Kafka.Brokers = brokers
		}
	}

	if otlpEndpoint := viper.GetString("TRACING_OTLP_ENDPOINT"); otlpEndpoint != "" {
		cfg.Tracing.OTLP.Endpoint = otlpEndpoint
	}

	return nil
}
