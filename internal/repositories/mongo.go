package repositories

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// Mongo collection names.
const (
	StoresCollection     = "stores"
	ProductsCollection   = "products"
	AdminUsersCollection = "admin_users"
)

// translateMongo maps driver errors onto repository sentinels.
func translateMongo(err error, what string) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w: %v", what, ErrDuplicate, err)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
