package integration

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"plategate/internal/config"
	"plategate/internal/sink"
	"plategate/pkg/migrations"
	"plategate/pkg/models"
)

type countingSink struct {
	mu     sync.Mutex
	events []models.StructuredEvent
}

func (s *countingSink) Write(ctx context.Context, event models.StructuredEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *countingSink) Name() string { return "counting" }
func (s *countingSink) Close() error { return nil }

func (s *countingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestPostgresSink_Write(t *testing.T) {
	infra := SetupTestInfra(t, InfraOptions{Postgres: true})

	ctx := context.Background()
	s := sink.NewPostgresSink(infra.PostgresDB, sinkTimeout)

	event := createTestEvent("AB1234C")
	require.NoError(t, s.Write(ctx, event))
	require.NoError(t, s.Write(ctx, createTestEvent("XY9876Z")))

	var got models.StructuredEvent
	var receivedAt time.Time
	err := infra.PostgresDB.QueryRowContext(ctx, `
		SELECT ip_address, date_time, event_type, license_plate,
		       vehicle_type, vehicle_color, vehicle_speed, received_at
		FROM anpr_events WHERE license_plate = $1`, "AB1234C",
	).Scan(
		&got.IPAddress, &got.DateTime, &got.EventType, &got.LicensePlate,
		&got.VehicleType, &got.VehicleColor, &got.VehicleSpeed, &receivedAt,
	)
	require.NoError(t, err)
	assert.Equal(t, event, got)
	assert.WithinDuration(t, time.Now(), receivedAt, time.Minute)

	var total int
	require.NoError(t, infra.PostgresDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM anpr_events").Scan(&total))
	assert.Equal(t, 2, total)
}

func TestPostgresMigrations_Idempotent(t *testing.T) {
	infra := SetupTestInfra(t, InfraOptions{Postgres: true})

	assert.NoError(t, migrations.RunPostgres(infra.PostgresDB))
}

func TestMongoSink_Write(t *testing.T) {
	infra := SetupTestInfra(t, InfraOptions{Mongo: true})

	ctx := context.Background()
	collection := "anpr_events"
	require.NoError(t, migrations.EnsureEventCollection(ctx, infra.MongoDB, collection))

	s := sink.NewMongoSink(infra.MongoURI, mongoDatabase, collection, sinkTimeout)
	event := createTestEvent("AB1234C")
	require.NoError(t, s.Write(ctx, event))

	var record models.EventRecord
	err := infra.MongoDB.Collection(collection).
		FindOne(ctx, bson.M{"license_plate": "AB1234C"}).
		Decode(&record)
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, event, record.StructuredEvent)
	assert.WithinDuration(t, time.Now(), record.ReceivedAt, time.Minute)

	cursor, err := infra.MongoDB.Collection(collection).Indexes().List(ctx)
	require.NoError(t, err)
	var indexes []bson.M
	require.NoError(t, cursor.All(ctx, &indexes))
	// _id plus the event indexes
	assert.Len(t, indexes, len(migrations.EventIndexes(collection))+1)
}

func TestMongoSink_Unreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping in short mode")
	}

	s := sink.NewMongoSink("mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200", mongoDatabase, "anpr_events", time.Second)
	err := s.Write(context.Background(), createTestEvent("AB1234C"))
	require.Error(t, err)
}

func TestDedupSink_Redis(t *testing.T) {
	infra := SetupTestInfra(t, InfraOptions{Redis: true})

	ctx := context.Background()
	next := &countingSink{}
	s := sink.NewDedupSink(next, sink.NewRedisRepository(infra.RedisClient), createTestDeduplicationConfig(), createTestLogger())

	event := createTestEvent("AB1234C")
	require.NoError(t, s.Write(ctx, event))
	require.NoError(t, s.Write(ctx, event))
	assert.Equal(t, 1, next.count())

	other := event
	other.DateTime = "2024-03-18T10:21:09+08:00"
	require.NoError(t, s.Write(ctx, other))
	assert.Equal(t, 2, next.count())
}

func TestRedisRepository_SetNX(t *testing.T) {
	infra := SetupTestInfra(t, InfraOptions{Redis: true})

	ctx := context.Background()
	repo := sink.NewRedisRepository(infra.RedisClient)

	key := "anpr:dedup:test"
	ok, err := repo.SetNX(ctx, key, time.Now().Unix(), time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.SetNX(ctx, key, time.Now().Unix(), time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	require.Eventually(t, func() bool {
		ok, err := repo.SetNX(ctx, key, time.Now().Unix(), time.Second)
		return err == nil && ok
	}, 5*time.Second, 200*time.Millisecond)
}

func TestKafkaSink_Write(t *testing.T) {
	infra := SetupTestInfra(t, InfraOptions{Kafka: true})

	ctx := context.Background()
	topic := "anpr.events.test"

	conn, err := kafka.DialLeader(ctx, "tcp", infra.KafkaBrokers[0], topic, 0)
	require.NoError(t, err)
	conn.Close()

	s := sink.NewKafkaSink(config.KafkaConfig{
		Brokers:      infra.KafkaBrokers,
		Topic:        topic,
		WriteTimeout: sinkTimeout,
	})
	t.Cleanup(func() { s.Close() })

	event := createTestEvent("AB1234C")
	require.NoError(t, s.Write(ctx, event))

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     infra.KafkaBrokers,
		Topic:       topic,
		StartOffset: kafka.FirstOffset,
		MaxWait:     500 * time.Millisecond,
	})
	t.Cleanup(func() { reader.Close() })

	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := reader.ReadMessage(readCtx)
	require.NoError(t, err)
	assert.Equal(t, "AB1234C", string(msg.Key))

	var got models.StructuredEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, event, got)

	var contentType string
	for _, h := range msg.Headers {
		if h.Key == "content-type" {
			contentType = string(h.Value)
		}
	}
	assert.Equal(t, "application/json", contentType)
}
