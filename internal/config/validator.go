package config

import (
	"fmt"
	"strings"

	"plategate/internal/constants"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateStatic(cfg *Config) error {
	var errors []error

	if err := validateListener(cfg.Listener); err != nil {
		errors = append(errors, err)
	}

	if err := validateServer(cfg.Server); err != nil {
		errors = append(errors, err)
	}

	if err := validateStorage(cfg.Storage); err != nil {
		errors = append(errors, err)
	}

	if err := validateSink(cfg); err != nil {
		errors = append(errors, err)
	}

	if err := validateDatabase(cfg.Database); err != nil {
		errors = append(errors, err)
	}

	if err := validateDeduplication(cfg.Deduplication, cfg.Database.Redis); err != nil {
		errors = append(errors, err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}

func validatePort(field string, port int) error {
	if port < 1 || port > 65535 {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", port),
		}
	}
	return nil
}

func validateListener(cfg ListenerConfig) error {
	if err := validatePort("listener.port", cfg.Port); err != nil {
		return err
	}

	if cfg.ReadTimeout < 0 {
		return &ValidationError{
			Field:   "listener.read_timeout",
			Message: "read timeout must be non-negative",
		}
	}

	if cfg.MaxRequestBytes < 0 {
		return &ValidationError{
			Field:   "listener.max_request_bytes",
			Message: "max request bytes must be non-negative",
		}
	}

	if cfg.Discovery.MaxAttempts < 0 {
		return &ValidationError{
			Field:   "listener.discovery.max_attempts",
			Message: "max_attempts must be non-negative",
		}
	}

	if cfg.Discovery.MaxInterval > 0 && cfg.Discovery.InitialInterval > 0 && cfg.Discovery.MaxInterval < cfg.Discovery.InitialInterval {
		return &ValidationError{
			Field:   "listener.discovery.max_interval",
			Message: "max_interval must be greater than or equal to initial_interval",
		}
	}

	return nil
}

func validateServer(cfg ServerConfig) error {
	if !cfg.Enabled {
		return nil
	}

	if err := validatePort("server.port", cfg.Port); err != nil {
		return err
	}

	if cfg.ReadTimeout <= 0 {
		return &ValidationError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		}
	}

	if cfg.WriteTimeout <= 0 {
		return &ValidationError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		}
	}

	return nil
}

func validateStorage(cfg StorageConfig) error {
	switch cfg.Type {
	case constants.StorageTypeFilesystem:
		if cfg.Root == "" {
			return &ValidationError{
				Field:   "storage.root",
				Message: "storage root is required",
			}
		}
	case constants.StorageTypeS3:
		if cfg.S3.Bucket == "" {
			return &ValidationError{
				Field:   "storage.s3.bucket",
				Message: "S3 bucket is required when storage.type is s3",
			}
		}
	default:
		return &ValidationError{
			Field:   "storage.type",
			Message: fmt.Sprintf("unknown storage type: %s (supported: filesystem, s3)", cfg.Type),
		}
	}
	return nil
}

func validateSink(cfg *Config) error {
	switch cfg.Sink.Type {
	case constants.SinkTypeMongoDB:
		if cfg.Database.MongoDB.URI == "" {
			return &ValidationError{
				Field:   "database.mongodb.uri",
				Message: "MongoDB URI is required for the mongodb sink",
			}
		}
		if cfg.Sink.MongoDB.Collection == "" {
			return &ValidationError{
				Field:   "sink.mongodb.collection",
				Message: "collection is required for the mongodb sink",
			}
		}
	case constants.SinkTypePostgres:
		if cfg.Database.Postgres.Host == "" {
			return &ValidationError{
				Field:   "database.postgres.host",
				Message: "PostgreSQL host is required for the postgres sink",
			}
		}
	case constants.SinkTypeKafka:
		return validateKafka(cfg.Broker.Kafka)
	case constants.SinkTypeNone:
	default:
		return &ValidationError{
			Field:   "sink.type",
			Message: fmt.Sprintf("unknown sink type: %s (supported: mongodb, postgres, kafka, none)", cfg.Sink.Type),
		}
	}

	if cfg.Sink.Timeout < 0 {
		return &ValidationError{
			Field:   "sink.timeout",
			Message: "timeout must be non-negative",
		}
	}

	return nil
}

func validateKafka(cfg KafkaConfig) error {
	if len(cfg.Brokers) == 0 {
		return &ValidationError{
			Field:   "broker.kafka.brokers",
			Message: "at least one Kafka broker is required",
		}
	}

	for i, broker := range cfg.Brokers {
		if broker == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("broker.kafka.brokers[%d]", i),
				Message: "broker address cannot be empty",
			}
		}
	}

	if cfg.Topic == "" {
		return &ValidationError{
			Field:   "broker.kafka.topic",
			Message: "Kafka topic is required",
		}
	}

	return nil
}

func validateDatabase(cfg DatabaseConfig) error {
	if cfg.Postgres.Host != "" || cfg.Postgres.Port > 0 {
		if err := validatePostgres(cfg.Postgres); err != nil {
			return err
		}
	}

	if cfg.Redis.Host != "" || cfg.Redis.Port > 0 {
		if err := validateRedis(cfg.Redis); err != nil {
			return err
		}
	}

	if cfg.MongoDB.URI != "" {
		if err := validateMongoDB(cfg.MongoDB); err != nil {
			return err
		}
	}

	return nil
}

func validatePostgres(cfg PostgresConfig) error {
	if cfg.Host == "" {
		return &ValidationError{
			Field:   "database.postgres.host",
			Message: "PostgreSQL host is required",
		}
	}

	if err := validatePort("database.postgres.port", cfg.Port); err != nil {
		return err
	}

	if cfg.User == "" {
		return &ValidationError{
			Field:   "database.postgres.user",
			Message: "PostgreSQL user is required",
		}
	}

	if cfg.DBName == "" {
		return &ValidationError{
			Field:   "database.postgres.dbname",
			Message: "PostgreSQL database name is required",
		}
	}

	validSSLModes := map[string]bool{
		"disable": true, "allow": true, "prefer": true,
		"require": true, "verify-ca": true, "verify-full": true,
	}
	if cfg.SSLMode != "" && !validSSLModes[strings.ToLower(cfg.SSLMode)] {
		return &ValidationError{
			Field:   "database.postgres.sslmode",
			Message: fmt.Sprintf("invalid SSL mode: %s (valid: disable, allow, prefer, require, verify-ca, verify-full)", cfg.SSLMode),
		}
	}

	return nil
}

func validateRedis(cfg RedisConfig) error {
	if cfg.Host == "" {
		return &ValidationError{
			Field:   "database.redis.host",
			Message: "Redis host is required",
		}
	}

	return validatePort("database.redis.port", cfg.Port)
}

func validateMongoDB(cfg MongoDBConfig) error {
	if !strings.HasPrefix(cfg.URI, "mongodb://") && !strings.HasPrefix(cfg.URI, "mongodb+srv://") {
		return &ValidationError{
			Field:   "database.mongodb.uri",
			Message: "MongoDB URI must start with mongodb:// or mongodb+srv://",
		}
	}

	if cfg.Database == "" {
		return &ValidationError{
			Field:   "database.mongodb.database",
			Message: "MongoDB database name is required",
		}
	}

	return nil
}

func validateDeduplication(cfg DeduplicationConfig, redis RedisConfig) error {
	if !cfg.Enabled {
		return nil
	}

	if redis.Host == "" {
		return &ValidationError{
			Field:   "database.redis.host",
			Message: "Redis is required when deduplication is enabled",
		}
	}

	validAlgorithms := map[string]bool{
		"md5": true, "sha256": true, "sha1": true,
	}
	if cfg.HashAlgorithm != "" && !validAlgorithms[strings.ToLower(cfg.HashAlgorithm)] {
		return &ValidationError{
			Field:   "deduplication.hash_algorithm",
			Message: fmt.Sprintf("invalid hash algorithm: %s (valid: md5, sha256, sha1)", cfg.HashAlgorithm),
		}
	}

	if cfg.TTLSeconds <= 0 {
		return &ValidationError{
			Field:   "deduplication.ttl_seconds",
			Message: "TTL must be positive",
		}
	}

	validOnError := map[string]bool{
		constants.FallbackAllow: true, constants.FallbackDeny: true,
	}
	if cfg.OnRedisError != "" && !validOnError[strings.ToLower(cfg.OnRedisError)] {
		return &ValidationError{
			Field:   "deduplication.on_redis_error",
			Message: fmt.Sprintf("invalid on_redis_error value: %s (valid: allow, deny)", cfg.OnRedisError),
		}
	}

	if len(cfg.FieldsToHash) == 0 {
		return &ValidationError{
			Field:   "deduplication.fields_to_hash",
			Message: "at least one field is required",
		}
	}

	return nil
}
