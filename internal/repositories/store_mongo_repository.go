package repositories

import (
	"context"
	"fmt"
	"time"

	"couponhub/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStoreRepository is a MongoDB implementation of StoreRepository.
type MongoStoreRepository struct {
	coll *mongo.Collection
}

func NewMongoStoreRepository(db *mongo.Database) *MongoStoreRepository {
	return &MongoStoreRepository{coll: db.Collection(StoresCollection)}
}

func (r *MongoStoreRepository) GetAll(ctx context.Context) ([]models.Store, error) {
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to get all stores: %w", err)
	}
	stores := []models.Store{}
	if err := cursor.All(ctx, &stores); err != nil {
		return nil, fmt.Errorf("failed to decode stores: %w", err)
	}
	return stores, nil
}

func (r *MongoStoreRepository) GetByID(ctx context.Context, id string) (*models.Store, error) {
	return r.findOne(ctx, bson.M{"_id": id}, id)
}

func (r *MongoStoreRepository) GetBySlug(ctx context.Context, slug string) (*models.Store, error) {
	return r.findOne(ctx, bson.M{"slug": slug}, slug)
}

func (r *MongoStoreRepository) findOne(ctx context.Context, filter bson.M, key string) (*models.Store, error) {
	var store models.Store
	if err := r.coll.FindOne(ctx, filter).Decode(&store); err != nil {
		return nil, translateMongo(err, "store "+key)
	}
	return &store, nil
}

func (r *MongoStoreRepository) ExistsByNameOrSlug(ctx context.Context, name, slug, excludeID string) (bool, error) {
	filter := bson.M{"$or": bson.A{bson.M{"name": name}, bson.M{"slug": slug}}}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	count, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check store uniqueness: %w", err)
	}
	return count > 0, nil
}

func (r *MongoStoreRepository) Create(ctx context.Context, store *models.Store) error {
	if store.ID == "" {
		store.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	store.CreatedAt, store.UpdatedAt = now, now
	if _, err := r.coll.InsertOne(ctx, store); err != nil {
		return translateMongo(err, "failed to create store")
	}
	return nil
}

func (r *MongoStoreRepository) Update(ctx context.Context, store *models.Store) error {
	store.UpdatedAt = time.Now().UTC()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": store.ID}, store)
	if err != nil {
		return translateMongo(err, "failed to update store")
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("store %s: %w", store.ID, ErrNotFound)
	}
	return nil
}

func (r *MongoStoreRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete store: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("store %s: %w", id, ErrNotFound)
	}
	return nil
}
