package docstore

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/swapspot/swapspot/internal/infrastructure/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const BoxAuditCollection = "box_audit_logs"

func NewMongoClient(ctx context.Context, cfg *config.Config) (*mongo.Client, error) {
	if cfg.Mongo.URI == "" {
		return nil, fmt.Errorf("mongodb URI is required")
	}
	if cfg.Mongo.Database == "" {
		return nil, fmt.Errorf("mongodb database is required")
	}

	timeout := cfg.Mongo.ConnectionTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetServerSelectionTimeout(timeout).
		SetConnectTimeout(timeout)

	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, timeout)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	log.Printf("Successfully connected to the MongoDB database: %s", cfg.Mongo.Database)
	return client, nil
}

func GetDatabase(client *mongo.Client, cfg *config.Config) *mongo.Database {
	if client == nil {
		return nil
	}
	return client.Database(cfg.Mongo.Database)
}

func Disconnect(ctx context.Context, client *mongo.Client) error {
	if client == nil {
		return nil
	}

	disconnectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.Disconnect(disconnectCtx); err != nil {
		return fmt.Errorf("failed to disconnect from mongodb: %w", err)
	}
	return nil
}
