package infra

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// NewMongoDatabase connects to MongoDB, verifies connectivity and returns the named database.
// Callers own the returned client and must Disconnect it.
func NewMongoDatabase(ctx context.Context, url, database string) (*mongo.Client, *mongo.Database, error) {
	if url == "" {
		return nil, nil, fmt.Errorf("mongo url is required")
	}
	if database == "" {
		return nil, nil, fmt.Errorf("mongo database name is required")
	}

	opts := options.Client().ApplyURI(url).SetConnectTimeout(10 * time.Second)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}

	return client, client.Database(database), nil
}
