package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"couponhub/internal/config"
	"couponhub/internal/repositories"
)

// OpenMongo connects to MongoDB and ensures the catalog indexes exist.
func OpenMongo(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*Repositories, error) {
	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("database connection URL is empty")
	}

	clientOptions := options.Client().ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetConnectTimeout(5 * time.Second).
		SetSocketTimeout(10 * time.Second)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(cfg.MongoDatabase)
	if err := EnsureMongoIndexes(connectCtx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	log.Info("connected to MongoDB", zap.String("database", cfg.MongoDatabase))

	return &Repositories{
		Stores:   repositories.NewMongoStoreRepository(db),
		Products: repositories.NewMongoProductRepository(db),
		Users:    repositories.NewMongoUserRepository(db),
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		close: client.Disconnect,
	}, nil
}

// EnsureMongoIndexes creates the unique and lookup indexes the catalog
// relies on. Creating an existing index is a no-op.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	unique := func(name string) *options.IndexOptions {
		return options.Index().SetName(name).SetUnique(true)
	}
	indexes := map[string][]mongo.IndexModel{
		repositories.StoresCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique("store_name_unique")},
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: unique("store_slug_unique")},
		},
		repositories.ProductsCollection: {
			{Keys: bson.D{{Key: "storeId", Value: 1}}, Options: options.Index().SetName("product_store")},
			{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "todayUses", Value: -1}}, Options: options.Index().SetName("product_top_deals")},
		},
		repositories.AdminUsersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique("admin_username_unique")},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique("admin_email_unique")},
			{Keys: bson.D{{Key: "resetPasswordTokenHash", Value: 1}}, Options: options.Index().SetName("admin_reset_token").SetSparse(true)},
		},
	}
	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
