package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"couponhub/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetByID retrieves a single product with its store.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Preload("Store").First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// GetByStore retrieves every product referencing storeID.
func (r *GORMProductRepository) GetByStore(ctx context.Context, storeID string) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Preload("Store").
		Where("store_id = ?", storeID).
		Order("created_at ASC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get products for store %s: %w", storeID, err)
	}
	return products, nil
}

// CountByStore counts products referencing storeID.
func (r *GORMProductRepository) CountByStore(ctx context.Context, storeID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Where("store_id = ?", storeID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count products for store %s: %w", storeID, err)
	}
	return count, nil
}

// GetTopDeals ranks active products by today's uses, treating counters not
// reset since dayStart as zero.
func (r *GORMProductRepository) GetTopDeals(ctx context.Context, dayStart time.Time, limit int) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Preload("Store").
		Where("is_active = ?", true).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "CASE WHEN last_daily_reset < ? THEN 0 ELSE today_uses END DESC, total_uses DESC, created_at ASC",
			Vars:               []interface{}{dayStart},
			WithoutParentheses: true,
		}}).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get top deals: %w", err)
	}
	return products, nil
}

// Create inserts a new product without touching its store.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", translate(err))
	}
	return nil
}

// Update overwrites every column of an existing product.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	res := r.db.WithContext(ctx).
		Model(product).
		Select("*").
		Omit(clause.Associations, "created_at").
		Updates(product)
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s: %w", product.ID, ErrNotFound)
	}
	return nil
}

// Delete deletes a product by its ID.
func (r *GORMProductRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return nil
}

// RecordUse increments the usage counters in a single UPDATE. The SET
// expressions all read the pre-update row.
func (r *GORMProductRepository) RecordUse(ctx context.Context, id string, dayStart, now time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"total_uses":       gorm.Expr("total_uses + 1"),
			"today_uses":       gorm.Expr("CASE WHEN last_daily_reset < ? THEN 1 ELSE today_uses + 1 END", dayStart),
			"last_daily_reset": gorm.Expr("CASE WHEN last_daily_reset < ? THEN ? ELSE last_daily_reset END", dayStart, now),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to record use of product %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return nil
}

// AddVote increments likes or dislikes and recomputes successRate.
func (r *GORMProductRepository) AddVote(ctx context.Context, id string, like bool) error {
	updates := map[string]interface{}{}
	if like {
		updates["likes"] = gorm.Expr("likes + 1")
		updates["success_rate"] = gorm.Expr("ROUND(100.0 * (likes + 1) / (likes + dislikes + 1))")
	} else {
		updates["dislikes"] = gorm.Expr("dislikes + 1")
		updates["success_rate"] = gorm.Expr("ROUND(100.0 * likes / (likes + dislikes + 1))")
	}
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).UpdateColumns(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to vote on product %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return nil
}
