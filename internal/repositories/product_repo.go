package repositories

import (
	"context"
	"time"

	"couponhub/internal/models"
)

// ProductRepository defines the interface for product data access.
// Reads return products with their Store expanded when it still exists.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetByStore(ctx context.Context, storeID string) ([]models.Product, error)
	CountByStore(ctx context.Context, storeID string) (int64, error)
	// GetTopDeals returns active products ordered by uses since dayStart,
	// then by total uses.
	GetTopDeals(ctx context.Context, dayStart time.Time, limit int) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
	// RecordUse atomically rolls the daily counter over when the last reset
	// is before dayStart and increments totalUses and todayUses.
	RecordUse(ctx context.Context, id string, dayStart, now time.Time) error
	// AddVote atomically increments likes or dislikes and recomputes
	// successRate as the rounded like percentage.
	AddVote(ctx context.Context, id string, like bool) error
}
