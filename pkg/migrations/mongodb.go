package migrations

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EventIndexes are the indexes kept on the event collection.
func EventIndexes(collection string) []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "license_plate", Value: 1}, {Key: "received_at", Value: -1}},
			Options: options.Index().SetName("idx_" + collection + "_plate_received"),
		},
		{
			Keys:    bson.D{{Key: "received_at", Value: -1}},
			Options: options.Index().SetName("idx_" + collection + "_received_at"),
		},
		{
			Keys:    bson.D{{Key: "ip_address", Value: 1}, {Key: "date_time", Value: -1}},
			Options: options.Index().SetName("idx_" + collection + "_camera_time"),
		},
	}
}

// EnsureEventCollection creates the event indexes. The collection itself is
// created by MongoDB on the first insert.
func EnsureEventCollection(ctx context.Context, db *mongo.Database, collection string) error {
	_, err := db.Collection(collection).Indexes().CreateMany(ctx, EventIndexes(collection))
	if err != nil {
		if !strings.Contains(err.Error(), "already exists") {
			return fmt.Errorf("failed to create indexes on %s: %w", collection, err)
		}
	}

	return nil
}
