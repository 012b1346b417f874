package repositories

import (
	"context"
	"fmt"
	"time"

	"couponhub/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoUserRepository is a MongoDB implementation of UserRepository.
type MongoUserRepository struct {
	coll *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(AdminUsersCollection)}
}

func (r *MongoUserRepository) Create(ctx context.Context, user *models.AdminUser) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		return translateMongo(err, "failed to create user")
	}
	return nil
}

func (r *MongoUserRepository) GetByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	return r.findOne(ctx, bson.M{"username": username}, username)
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	return r.findOne(ctx, bson.M{"email": email}, email)
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*models.AdminUser, error) {
	return r.findOne(ctx, bson.M{"_id": id}, id)
}

func (r *MongoUserRepository) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.AdminUser, error) {
	return r.findOne(ctx, bson.M{
		"resetPasswordTokenHash": tokenHash,
		"resetPasswordExpires":   bson.M{"$gt": now},
	}, "reset token")
}

func (r *MongoUserRepository) Update(ctx context.Context, user *models.AdminUser) error {
	user.UpdatedAt = time.Now().UTC()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		return translateMongo(err, "failed to update user")
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", user.ID, ErrNotFound)
	}
	return nil
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M, key string) (*models.AdminUser, error) {
	var user models.AdminUser
	if err := r.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, translateMongo(err, "user "+key)
	}
	return &user, nil
}
