package repositories

import (
	"context"

	"couponhub/internal/models"
)

// StoreRepository defines the interface for store data access.
type StoreRepository interface {
	GetAll(ctx context.Context) ([]models.Store, error)
	GetByID(ctx context.Context, id string) (*models.Store, error)
	GetBySlug(ctx context.Context, slug string) (*models.Store, error)
	// ExistsByNameOrSlug reports whether another store (id != excludeID)
	// already uses name or slug.
	ExistsByNameOrSlug(ctx context.Context, name, slug, excludeID string) (bool, error)
	Create(ctx context.Context, store *models.Store) error
	Update(ctx context.Context, store *models.Store) error
	Delete(ctx context.Context, id string) error
}
