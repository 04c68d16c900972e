package sink

import (
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"

	"plategate/internal/config"
	"plategate/internal/constants"
	"plategate/internal/logger"
	"plategate/pkg/cel"
)

// Dependencies are the shared clients a sink chain may need. Only those
// required by the configuration have to be set.
type Dependencies struct {
	Redis    *redis.Client
	Postgres *sql.DB
}

// New builds the configured chain, outermost first:
// filter, dedup, circuit breaker, then the base sink.
func New(cfg *config.Config, deps Dependencies, log logger.Logger) (Sink, error) {
	base, err := newBase(cfg, deps)
	if err != nil {
		return nil, err
	}

	var s Sink = instrumented{Sink: base}

	if cfg.CircuitBreaker.Enabled {
		s = NewCircuitBreakerSink(s, cfg.CircuitBreaker, log)
	}

	if cfg.Deduplication.Enabled {
		if deps.Redis == nil {
			return nil, fmt.Errorf("deduplication enabled but no redis client")
		}
		s = NewDedupSink(s, NewRedisRepository(deps.Redis), cfg.Deduplication, log)
	}

	if cfg.Sink.Filter != "" {
		eval, err := cel.NewEvaluator()
		if err != nil {
			return nil, err
		}
		filter, err := eval.CompileFilter(cfg.Sink.Filter)
		if err != nil {
			return nil, fmt.Errorf("sink.filter: %w", err)
		}
		s = NewFilterSink(s, filter, log)
	}

	log.Infow("Sink chain built",
		"sink", base.Name(),
		"filter", cfg.Sink.Filter != "",
		"deduplication", cfg.Deduplication.Enabled,
		"circuit_breaker", cfg.CircuitBreaker.Enabled,
	)
	return s, nil
}

func newBase(cfg *config.Config, deps Dependencies) (Sink, error) {
	switch cfg.Sink.Type {
	case constants.SinkTypeMongoDB:
		return NewMongoSink(
			cfg.Database.MongoDB.URI,
			cfg.Database.MongoDB.Database,
			cfg.Sink.MongoDB.Collection,
			cfg.Sink.Timeout,
		), nil
	case constants.SinkTypePostgres:
		if deps.Postgres == nil {
			return nil, fmt.Errorf("postgres sink configured but no database handle")
		}
		return NewPostgresSink(deps.Postgres, cfg.Sink.Timeout), nil
	case constants.SinkTypeKafka:
		return NewKafkaSink(cfg.Broker.Kafka), nil
	case constants.SinkTypeNone, "":
		return NopSink{}, nil
	default:
		return nil, fmt.Errorf("unknown sink type: %s", cfg.Sink.Type)
	}
}
