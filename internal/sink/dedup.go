package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"plategate/internal/config"
	"plategate/internal/constants"
	"plategate/internal/logger"
	"plategate/pkg/metrics"
	"plategate/pkg/models"
)

// Repository records fingerprints. SetNX reports whether key was newly set.
type Repository interface {
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
}

type RedisRepository struct {
	client *redis.Client
}

func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

func (r *RedisRepository) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	success, err := r.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis SetNX failed: %w", err)
	}
	return success, nil
}

// DedupSink drops events already seen within the TTL window. Cameras resend
// the same detection when they miss a response, so by default an event is
// identified by camera, plate and capture time.
type DedupSink struct {
	next         Sink
	repo         Repository
	hasher       *Hasher
	ttl          time.Duration
	onRedisError string
	logger       logger.Logger
}

func NewDedupSink(next Sink, repo Repository, cfg config.DeduplicationConfig, log logger.Logger) *DedupSink {
	onRedisError := cfg.OnRedisError
	if onRedisError == "" {
		onRedisError = constants.FallbackAllow
	}
	return &DedupSink{
		next:         next,
		repo:         repo,
		hasher:       NewHasher(cfg.HashAlgorithm, cfg.FieldsToHash),
		ttl:          time.Duration(cfg.TTLSeconds) * time.Second,
		onRedisError: onRedisError,
		logger:       log,
	}
}

func (s *DedupSink) Name() string { return s.next.Name() }

func (s *DedupSink) Write(ctx context.Context, event models.StructuredEvent) error {
	hash, err := s.hasher.ComputeHash(event.Fields())
	if err != nil {
		return unavailable(s.Name(), err)
	}

	fresh, err := s.repo.SetNX(ctx, constants.CacheKeyPrefixDedup+hash, time.Now().Unix(), s.ttl)
	if err != nil {
		metrics.IncDedup("error")
		if s.onRedisError == constants.FallbackAllow {
			metrics.FallbackUsageTotal.WithLabelValues("deduplication", "allow_on_error").Inc()
			s.logger.WarnwCtx(ctx, "Redis error during dedup check, forwarding event (fallback: allow)",
				"error", err,
				"license_plate", event.LicensePlate,
			)
			return s.next.Write(ctx, event)
		}
		metrics.FallbackUsageTotal.WithLabelValues("deduplication", "deny_on_error").Inc()
		return unavailable(s.Name(), fmt.Errorf("dedup check: %w", err))
	}

	if !fresh {
		metrics.IncDedup("duplicate")
		s.logger.DebugwCtx(ctx, "Duplicate event dropped",
			"license_plate", event.LicensePlate,
			"date_time", event.DateTime,
		)
		return nil
	}

	metrics.IncDedup("unique")
	return s.next.Write(ctx, event)
}

func (s *DedupSink) Close() error { return s.next.Close() }
