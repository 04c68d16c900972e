package constants

import "time"

const (
	ServiceName = "ingest-service"
)

const (
	DefaultListenerPort = 9091
	DefaultAdminPort    = 9092
)

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	DefaultHTTPTimeout = 10 * time.Second
	DefaultSinkTimeout = 10 * time.Second
)

const (
	CacheKeyPrefixDedup = "anpr:dedup:"
)

const (
	DefaultEventTopic      = "anpr_events"
	DefaultEventCollection = "anpr_events"
	DefaultMongoDBName     = "plategate"
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	DefaultTTLSeconds = 300
)

const (
	StorageTypeFilesystem = "filesystem"
	StorageTypeS3         = "s3"
)

const (
	SinkTypeMongoDB  = "mongodb"
	SinkTypePostgres = "postgres"
	SinkTypeKafka    = "kafka"
	SinkTypeNone     = "none"
)

const (
	FallbackAllow = "allow"
	FallbackDeny  = "deny"
)
