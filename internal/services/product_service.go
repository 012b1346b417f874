package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"couponhub/internal/apperrors"
	"couponhub/internal/assets"
	"couponhub/internal/metrics"
	"couponhub/internal/models"
	"couponhub/internal/repositories"
)

const (
	defaultTopDealsLimit = 10
	maxTopDealsLimit     = 50
)

// CreateProductInput carries the fields accepted when creating a product.
// Numeric fields are pointers so that an explicit zero passes "required".
type CreateProductInput struct {
	Name            string   `json:"name" validate:"required"`
	Description     string   `json:"description" validate:"required"`
	Price           *float64 `json:"price" validate:"required,gte=0"`
	DiscountedPrice *float64 `json:"discountedPrice" validate:"omitempty,gte=0"`
	Category        string   `json:"category"`
	Stock           *int     `json:"stock" validate:"required,gte=0"`
	IsActive        *bool    `json:"isActive"`
	DiscountCode    string   `json:"discountCode" validate:"required"`
	ShopNowURL      string   `json:"shopNowUrl" validate:"required"`
	SuccessRate     *float64 `json:"successRate" validate:"omitempty,gte=0,lte=100"`
	TotalUses       *int     `json:"totalUses" validate:"omitempty,gte=0"`
	TodayUses       *int     `json:"todayUses" validate:"omitempty,gte=0"`
}

// UpdateProductInput carries the fields of a partial product update.
type UpdateProductInput struct {
	Name            *string  `json:"name"`
	Description     *string  `json:"description"`
	Price           *float64 `json:"price" validate:"omitempty,gte=0"`
	DiscountedPrice *float64 `json:"discountedPrice" validate:"omitempty,gte=0"`
	Category        *string  `json:"category"`
	Stock           *int     `json:"stock" validate:"omitempty,gte=0"`
	IsActive        *bool    `json:"isActive"`
	DiscountCode    *string  `json:"discountCode"`
	ShopNowURL      *string  `json:"shopNowUrl"`
	SuccessRate     *float64 `json:"successRate" validate:"omitempty,gte=0,lte=100"`

	// ClearDiscountedPrice removes the discounted price. It wins over
	// DiscountedPrice.
	ClearDiscountedPrice bool `json:"-"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	products      repositories.ProductRepository
	stores        repositories.StoreRepository
	assets        assets.Store
	events        EventPublisher
	logger        *zap.Logger
	topDealsLimit int
	now           func() time.Time
}

// NewProductService creates a new ProductService.
func NewProductService(
	products repositories.ProductRepository,
	stores repositories.StoreRepository,
	assetStore assets.Store,
	events EventPublisher,
	logger *zap.Logger,
	topDealsLimit int,
) *ProductService {
	if topDealsLimit <= 0 {
		topDealsLimit = defaultTopDealsLimit
	}
	return &ProductService{
		products:      products,
		stores:        stores,
		assets:        assetStore,
		events:        events,
		logger:        logger,
		topDealsLimit: topDealsLimit,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// GetProductByID retrieves a single product with its store.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "Product", "get")
	}
	normalize(product)
	return product, nil
}

// GetProductsByStore lists the products of a store. A store without
// products yields an empty list; an unknown store with no products is
// NotFound.
func (s *ProductService) GetProductsByStore(ctx context.Context, storeID string) ([]models.Product, error) {
	products, err := s.products.GetByStore(ctx, storeID)
	if err != nil {
		return nil, fromRepo(err, "Product", "get")
	}
	if len(products) == 0 {
		if _, err := s.stores.GetByID(ctx, storeID); err != nil {
			return nil, fromRepo(err, "Store", "get")
		}
		return []models.Product{}, nil
	}
	for i := range products {
		normalize(&products[i])
	}
	return products, nil
}

// GetTopDeals ranks active products by today's uses. A non-positive limit
// uses the configured default.
func (s *ProductService) GetTopDeals(ctx context.Context, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = s.topDealsLimit
	}
	if limit > maxTopDealsLimit {
		limit = maxTopDealsLimit
	}
	now := s.now()
	products, err := s.products.GetTopDeals(ctx, models.StartOfDay(now), limit)
	if err != nil {
		return nil, fromRepo(err, "Product", "rank")
	}
	if products == nil {
		products = []models.Product{}
	}
	for i := range products {
		products[i].RollDailyUses(now)
		normalize(&products[i])
	}
	return products, nil
}

// CreateProduct validates and persists a product under storeID. Images are
// saved only once the store is known to exist and are removed again if the
// insert fails.
func (s *ProductService) CreateProduct(ctx context.Context, storeID string, in CreateProductInput, images []assets.Upload) (*models.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.DiscountCode = strings.TrimSpace(in.DiscountCode)
	in.ShopNowURL = strings.TrimSpace(in.ShopNowURL)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	store, err := s.stores.GetByID(ctx, storeID)
	if err != nil {
		return nil, fromRepo(err, "Store", "get")
	}

	tracker := assets.NewTracker(s.assets, s.logger)
	defer tracker.Release(ctx)

	refs, err := tracker.SaveAll(ctx, assets.FolderProducts, images)
	if err != nil {
		return nil, apperrors.Unexpected(err, "failed to store product images")
	}

	now := s.now()
	product := &models.Product{
		Name:            in.Name,
		Description:     in.Description,
		Price:           *in.Price,
		DiscountedPrice: in.DiscountedPrice,
		Category:        in.Category,
		Images:          refs,
		StoreID:         store.ID,
		Stock:           *in.Stock,
		IsActive:        valueOr(in.IsActive, true),
		DiscountCode:    in.DiscountCode,
		ShopNowURL:      in.ShopNowURL,
		SuccessRate:     valueOr(in.SuccessRate, 0),
		TotalUses:       valueOr(in.TotalUses, 0),
		TodayUses:       valueOr(in.TodayUses, 0),
		LastDailyReset:  now,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, fromRepo(err, "Product", "create")
	}
	tracker.Commit()

	product.Store = store
	normalize(product)
	metrics.CatalogMutationsTotal.WithLabelValues("product", "create").Inc()
	publish(ctx, s.events, s.logger, EventProductCreated, product.ID, product)
	return product, nil
}

// UpdateProduct overwrites the provided fields of an existing product and
// applies the image update.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, in UpdateProductInput, images ImageUpdate) (*models.Product, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "Product", "get")
	}

	required := []struct {
		field string
		value *string
	}{
		{"name", in.Name},
		{"description", in.Description},
		{"discountCode", in.DiscountCode},
		{"shopNowUrl", in.ShopNowURL},
	}
	for _, r := range required {
		if r.value != nil && strings.TrimSpace(*r.value) == "" {
			return nil, apperrors.Validation("Field '%s' cannot be empty", r.field)
		}
	}

	if in.Name != nil {
		product.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		product.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		product.Price = *in.Price
	}
	switch {
	case in.ClearDiscountedPrice:
		product.DiscountedPrice = nil
	case in.DiscountedPrice != nil:
		product.DiscountedPrice = in.DiscountedPrice
	}
	if in.Category != nil {
		product.Category = *in.Category
	}
	if in.Stock != nil {
		product.Stock = *in.Stock
	}
	if in.IsActive != nil {
		product.IsActive = *in.IsActive
	}
	if in.DiscountCode != nil {
		product.DiscountCode = strings.TrimSpace(*in.DiscountCode)
	}
	if in.ShopNowURL != nil {
		product.ShopNowURL = strings.TrimSpace(*in.ShopNowURL)
	}
	if in.SuccessRate != nil {
		product.SuccessRate = *in.SuccessRate
	}

	tracker := assets.NewTracker(s.assets, s.logger)
	defer tracker.Release(ctx)

	var stale []string
	switch images.Action {
	case ImagesReplace:
		refs, err := tracker.SaveAll(ctx, assets.FolderProducts, images.Files)
		if err != nil {
			return nil, apperrors.Unexpected(err, "failed to store product images")
		}
		stale = product.Images
		product.Images = refs
	case ImagesClear:
		stale = product.Images
		product.Images = []string{}
	}

	store := product.Store
	if err := s.products.Update(ctx, product); err != nil {
		return nil, fromRepo(err, "Product", "update")
	}
	tracker.Commit()
	assets.Remove(ctx, s.assets, s.logger, stale...)

	product.Store = store
	normalize(product)
	metrics.CatalogMutationsTotal.WithLabelValues("product", "update").Inc()
	publish(ctx, s.events, s.logger, EventProductUpdated, product.ID, product)
	return product, nil
}

// DeleteProduct removes a product and every image it references.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return fromRepo(err, "Product", "get")
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return fromRepo(err, "Product", "delete")
	}
	assets.Remove(ctx, s.assets, s.logger, product.Images...)

	metrics.CatalogMutationsTotal.WithLabelValues("product", "delete").Inc()
	publish(ctx, s.events, s.logger, EventProductDeleted, id, nil)
	return nil
}

// RecordUse counts one use of the product's discount code.
func (s *ProductService) RecordUse(ctx context.Context, id string) (*models.Product, error) {
	now := s.now()
	if err := s.products.RecordUse(ctx, id, models.StartOfDay(now), now); err != nil {
		return nil, fromRepo(err, "Product", "update")
	}
	return s.GetProductByID(ctx, id)
}

// Vote records a like or a dislike and returns the product with its
// recomputed success rate.
func (s *ProductService) Vote(ctx context.Context, id string, like bool) (*models.Product, error) {
	if err := s.products.AddVote(ctx, id, like); err != nil {
		return nil, fromRepo(err, "Product", "update")
	}
	return s.GetProductByID(ctx, id)
}

// normalize makes the JSON shape stable: images is always an array.
func normalize(p *models.Product) {
	if p.Images == nil {
		p.Images = []string{}
	}
}

func valueOr[T any](v *T, def T) T {
	if v == nil {
		return def
	}
	return *v
}
