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

// MongoProductRepository is a MongoDB implementation of ProductRepository.
// Stores are expanded with a second query rather than $lookup so dangling
// references simply come back without a store.
type MongoProductRepository struct {
	coll   *mongo.Collection
	stores *mongo.Collection
}

func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{
		coll:   db.Collection(ProductsCollection),
		stores: db.Collection(StoresCollection),
	}
}

func (r *MongoProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, translateMongo(err, "product "+id)
	}
	products := []models.Product{product}
	if err := r.expandStores(ctx, products); err != nil {
		return nil, err
	}
	return &products[0], nil
}

func (r *MongoProductRepository) GetByStore(ctx context.Context, storeID string) ([]models.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return r.find(ctx, bson.M{"storeId": storeID}, opts)
}

func (r *MongoProductRepository) CountByStore(ctx context.Context, storeID string) (int64, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"storeId": storeID})
	if err != nil {
		return 0, fmt.Errorf("failed to count products for store %s: %w", storeID, err)
	}
	return count, nil
}

func (r *MongoProductRepository) GetTopDeals(ctx context.Context, dayStart time.Time, limit int) ([]models.Product, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"isActive": true}}},
		{{Key: "$addFields", Value: bson.M{
			"effectiveTodayUses": bson.M{"$cond": bson.A{
				bson.M{"$lt": bson.A{"$lastDailyReset", dayStart}}, 0, "$todayUses",
			}},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "effectiveTodayUses", Value: -1},
			{Key: "totalUses", Value: -1},
			{Key: "createdAt", Value: 1},
		}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$project", Value: bson.M{"effectiveTodayUses": 0}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to get top deals: %w", err)
	}
	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode top deals: %w", err)
	}
	if err := r.expandStores(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *MongoProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	product.CreatedAt, product.UpdatedAt = now, now
	if _, err := r.coll.InsertOne(ctx, product); err != nil {
		return translateMongo(err, "failed to create product")
	}
	return nil
}

func (r *MongoProductRepository) Update(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = time.Now().UTC()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": product.ID}, product)
	if err != nil {
		return translateMongo(err, "failed to update product")
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("product %s: %w", product.ID, ErrNotFound)
	}
	return nil
}

func (r *MongoProductRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return nil
}

// RecordUse uses an update pipeline so the rollover check and the
// increments see the same document state.
func (r *MongoProductRepository) RecordUse(ctx context.Context, id string, dayStart, now time.Time) error {
	stale := bson.M{"$lt": bson.A{"$lastDailyReset", dayStart}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"totalUses":      bson.M{"$add": bson.A{"$totalUses", 1}},
			"todayUses":      bson.M{"$cond": bson.A{stale, 1, bson.M{"$add": bson.A{"$todayUses", 1}}}},
			"lastDailyReset": bson.M{"$cond": bson.A{stale, now, "$lastDailyReset"}},
		}}},
	}
	return r.updateOne(ctx, id, update, "record use of")
}

func (r *MongoProductRepository) AddVote(ctx context.Context, id string, like bool) error {
	field := "dislikes"
	if like {
		field = "likes"
	}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{field: bson.M{"$add": bson.A{"$" + field, 1}}}}},
		{{Key: "$set", Value: bson.M{
			"successRate": bson.M{"$round": bson.A{
				bson.M{"$multiply": bson.A{100, bson.M{"$divide": bson.A{
					"$likes", bson.M{"$add": bson.A{"$likes", "$dislikes"}},
				}}}},
				0,
			}},
		}}},
	}
	return r.updateOne(ctx, id, update, "vote on")
}

func (r *MongoProductRepository) updateOne(ctx context.Context, id string, update mongo.Pipeline, action string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to %s product %s: %w", action, id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *MongoProductRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Product, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	if err := r.expandStores(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// expandStores loads the stores referenced by products in one query.
func (r *MongoProductRepository) expandStores(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]string, 0, len(products))
	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		if _, ok := seen[p.StoreID]; !ok {
			seen[p.StoreID] = struct{}{}
			ids = append(ids, p.StoreID)
		}
	}

	cursor, err := r.stores.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return fmt.Errorf("failed to expand stores: %w", err)
	}
	var stores []models.Store
	if err := cursor.All(ctx, &stores); err != nil {
		return fmt.Errorf("failed to decode stores: %w", err)
	}
	byID := make(map[string]*models.Store, len(stores))
	for i := range stores {
		byID[stores[i].ID] = &stores[i]
	}
	for i := range products {
		products[i].Store = byID[products[i].StoreID]
	}
	return nil
}
