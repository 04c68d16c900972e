package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"plategate/pkg/models"
)

// MongoSink inserts one document per event. It holds no client: every Write
// connects, inserts and disconnects.
type MongoSink struct {
	uri        string
	database   string
	collection string
	timeout    time.Duration
	now        func() time.Time
}

func NewMongoSink(uri, database, collection string, timeout time.Duration) *MongoSink {
	return &MongoSink{
		uri:        uri,
		database:   database,
		collection: collection,
		timeout:    timeout,
		now:        time.Now,
	}
}

func (s *MongoSink) Name() string { return "mongodb" }

func (s *MongoSink) Write(ctx context.Context, event models.StructuredEvent) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.uri))
	if err != nil {
		return unavailable(s.Name(), fmt.Errorf("connect: %w", err))
	}
	defer client.Disconnect(context.Background())

	record := models.NewEventRecord(uuid.NewString(), event, s.now().UTC())
	if _, err := client.Database(s.database).Collection(s.collection).InsertOne(ctx, record); err != nil {
		return unavailable(s.Name(), fmt.Errorf("insert into %s: %w", s.collection, err))
	}
	return nil
}

func (s *MongoSink) Close() error { return nil }
