package repositories

import (
	"context"
	"errors"
	"fmt"

	"couponhub/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMStoreRepository is a GORM implementation of StoreRepository.
type GORMStoreRepository struct {
	db *gorm.DB
}

// NewGORMStoreRepository creates a new instance of GORMStoreRepository.
func NewGORMStoreRepository(db *gorm.DB) *GORMStoreRepository {
	return &GORMStoreRepository{
		db: db,
	}
}

// GetAll retrieves all stores ordered by creation time.
func (r *GORMStoreRepository) GetAll(ctx context.Context) ([]models.Store, error) {
	var stores []models.Store
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&stores).Error; err != nil {
		return nil, fmt.Errorf("failed to get all stores: %w", err)
	}
	return stores, nil
}

// GetByID retrieves a single store by its ID.
func (r *GORMStoreRepository) GetByID(ctx context.Context, id string) (*models.Store, error) {
	return r.first(ctx, "id = ?", id)
}

// GetBySlug retrieves a single store by its slug.
func (r *GORMStoreRepository) GetBySlug(ctx context.Context, slug string) (*models.Store, error) {
	return r.first(ctx, "slug = ?", slug)
}

func (r *GORMStoreRepository) first(ctx context.Context, query string, arg string) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).First(&store, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("store %s: %w", arg, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get store %s: %w", arg, err)
	}
	return &store, nil
}

// ExistsByNameOrSlug checks whether a different store uses name or slug.
func (r *GORMStoreRepository) ExistsByNameOrSlug(ctx context.Context, name, slug, excludeID string) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Store{}).Where("(name = ? OR slug = ?)", name, slug)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check store uniqueness: %w", err)
	}
	return count > 0, nil
}

// Create inserts a new store. Unique index violations map to ErrDuplicate.
func (r *GORMStoreRepository) Create(ctx context.Context, store *models.Store) error {
	if store.ID == "" {
		store.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(store).Error; err != nil {
		return fmt.Errorf("failed to create store: %w", translate(err))
	}
	return nil
}

// Update overwrites every column of an existing store.
func (r *GORMStoreRepository) Update(ctx context.Context, store *models.Store) error {
	res := r.db.WithContext(ctx).Model(store).Select("*").Omit("created_at").Updates(store)
	if res.Error != nil {
		return fmt.Errorf("failed to update store: %w", translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("store %s: %w", store.ID, ErrNotFound)
	}
	return nil
}

// Delete deletes a store by its ID.
func (r *GORMStoreRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Store{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete store: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("store %s: %w", id, ErrNotFound)
	}
	return nil
}

// translate maps driver errors translated by gorm onto repository sentinels.
func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
