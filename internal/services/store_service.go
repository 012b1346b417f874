package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"couponhub/internal/apperrors"
	"couponhub/internal/assets"
	"couponhub/internal/config"
	"couponhub/internal/metrics"
	"couponhub/internal/models"
	"couponhub/internal/repositories"
)

// CreateStoreInput carries the fields accepted when creating a store.
type CreateStoreInput struct {
	Name            string `json:"name" validate:"required,max=50"`
	Description     string `json:"description" validate:"required,max=500"`
	Slug            string `json:"slug" validate:"omitempty,max=120"`
	TopDealHeadline string `json:"topDealHeadline" validate:"omitempty,max=255"`
	Tagline         string `json:"tagline" validate:"omitempty,max=255"`
	MainURL         string `json:"mainUrl" validate:"omitempty,max=500"`
}

// UpdateStoreInput carries the fields of a partial store update. Nil
// fields are left unchanged.
type UpdateStoreInput struct {
	Name            *string `json:"name" validate:"omitempty,max=50"`
	Description     *string `json:"description" validate:"omitempty,max=500"`
	Slug            *string `json:"slug" validate:"omitempty,max=120"`
	TopDealHeadline *string `json:"topDealHeadline" validate:"omitempty,max=255"`
	Tagline         *string `json:"tagline" validate:"omitempty,max=255"`
	MainURL         *string `json:"mainUrl" validate:"omitempty,max=500"`
}

// StoreService handles business logic related to stores.
type StoreService struct {
	stores       repositories.StoreRepository
	products     repositories.ProductRepository
	assets       assets.Store
	events       EventPublisher
	logger       *zap.Logger
	deletePolicy string
}

// NewStoreService creates a new StoreService. deletePolicy is one of the
// config.DeletePolicy values and decides what happens to a deleted store's
// products.
func NewStoreService(
	stores repositories.StoreRepository,
	products repositories.ProductRepository,
	assetStore assets.Store,
	events EventPublisher,
	logger *zap.Logger,
	deletePolicy string,
) *StoreService {
	if deletePolicy == "" {
		deletePolicy = config.DeletePolicyOrphan
	}
	return &StoreService{
		stores:       stores,
		products:     products,
		assets:       assetStore,
		events:       events,
		logger:       logger,
		deletePolicy: deletePolicy,
	}
}

// GetStores retrieves all stores.
func (s *StoreService) GetStores(ctx context.Context) ([]models.Store, error) {
	stores, err := s.stores.GetAll(ctx)
	if err != nil {
		return nil, fromRepo(err, "Store", "get")
	}
	if stores == nil {
		stores = []models.Store{}
	}
	return stores, nil
}

// GetStoreByID retrieves a single store by its ID.
func (s *StoreService) GetStoreByID(ctx context.Context, id string) (*models.Store, error) {
	store, err := s.stores.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "Store", "get")
	}
	return store, nil
}

// GetStoreBySlug retrieves a single store by its slug.
func (s *StoreService) GetStoreBySlug(ctx context.Context, slug string) (*models.Store, error) {
	store, err := s.stores.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fromRepo(err, "Store", "get")
	}
	return store, nil
}

// CreateStore validates and persists a new store. The logo, when given, is
// stored only after every check passed and is removed again if the insert
// fails.
func (s *StoreService) CreateStore(ctx context.Context, in CreateStoreInput, logo *assets.Upload) (*models.Store, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = models.Slugify(in.Name)
	}
	if slug == "" {
		return nil, apperrors.Validation("A slug cannot be derived from name %q", in.Name)
	}

	if err := s.ensureUnique(ctx, in.Name, slug, ""); err != nil {
		return nil, err
	}

	tracker := assets.NewTracker(s.assets, s.logger)
	defer tracker.Release(ctx)

	store := &models.Store{
		Name:            in.Name,
		Description:     in.Description,
		Slug:            slug,
		Logo:            models.DefaultStoreLogo,
		TopDealHeadline: in.TopDealHeadline,
		Tagline:         in.Tagline,
		MainURL:         in.MainURL,
	}
	if logo != nil {
		ref, err := tracker.Save(ctx, assets.FolderLogos, *logo)
		if err != nil {
			return nil, apperrors.Unexpected(err, "failed to store logo")
		}
		store.Logo = ref
	}

	if err := s.stores.Create(ctx, store); err != nil {
		return nil, fromRepo(err, "Store", "create")
	}
	tracker.Commit()

	metrics.CatalogMutationsTotal.WithLabelValues("store", "create").Inc()
	publish(ctx, s.events, s.logger, EventStoreCreated, store.ID, store)
	return store, nil
}

// UpdateStore overwrites the provided fields of an existing store and
// applies the logo update.
func (s *StoreService) UpdateStore(ctx context.Context, id string, in UpdateStoreInput, logo LogoUpdate) (*models.Store, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	store, err := s.stores.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "Store", "get")
	}

	nameChanged, slugChanged := false, false
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.Validation("Store name cannot be empty")
		}
		nameChanged = name != store.Name
		store.Name = name
	}
	if in.Description != nil {
		description := strings.TrimSpace(*in.Description)
		if description == "" {
			return nil, apperrors.Validation("Store description cannot be empty")
		}
		store.Description = description
	}
	if in.Slug != nil {
		slug := strings.TrimSpace(*in.Slug)
		if slug == "" {
			return nil, apperrors.Validation("Store slug cannot be empty")
		}
		slugChanged = slug != store.Slug
		store.Slug = slug
	}
	if in.TopDealHeadline != nil {
		store.TopDealHeadline = *in.TopDealHeadline
	}
	if in.Tagline != nil {
		store.Tagline = *in.Tagline
	}
	if in.MainURL != nil {
		store.MainURL = *in.MainURL
	}

	if nameChanged || slugChanged {
		if err := s.ensureUnique(ctx, store.Name, store.Slug, store.ID); err != nil {
			return nil, err
		}
	}

	tracker := assets.NewTracker(s.assets, s.logger)
	defer tracker.Release(ctx)

	var stale string
	switch logo.Action {
	case LogoReplace:
		ref, err := tracker.Save(ctx, assets.FolderLogos, logo.File)
		if err != nil {
			return nil, apperrors.Unexpected(err, "failed to store logo")
		}
		if store.HasLogo() {
			stale = store.Logo
		}
		store.Logo = ref
	case LogoRemove:
		if store.HasLogo() {
			stale = store.Logo
		}
		store.Logo = models.DefaultStoreLogo
	}

	if err := s.stores.Update(ctx, store); err != nil {
		return nil, fromRepo(err, "Store", "update")
	}
	tracker.Commit()
	assets.Remove(ctx, s.assets, s.logger, stale)

	metrics.CatalogMutationsTotal.WithLabelValues("store", "update").Inc()
	publish(ctx, s.events, s.logger, EventStoreUpdated, store.ID, store)
	return store, nil
}

// DeleteStore removes a store and its logo. Products of the store are
// handled according to the configured delete policy.
func (s *StoreService) DeleteStore(ctx context.Context, id string) error {
	store, err := s.stores.GetByID(ctx, id)
	if err != nil {
		return fromRepo(err, "Store", "get")
	}

	switch s.deletePolicy {
	case config.DeletePolicyRestrict:
		count, err := s.products.CountByStore(ctx, id)
		if err != nil {
			return fromRepo(err, "Product", "count")
		}
		if count > 0 {
			return apperrors.Conflict("Store still has %d products; delete them first", count)
		}
	case config.DeletePolicyCascade:
		if err := s.deleteProductsOf(ctx, id); err != nil {
			return err
		}
	}

	if err := s.stores.Delete(ctx, id); err != nil {
		return fromRepo(err, "Store", "delete")
	}
	if store.HasLogo() {
		assets.Remove(ctx, s.assets, s.logger, store.Logo)
	}

	metrics.CatalogMutationsTotal.WithLabelValues("store", "delete").Inc()
	publish(ctx, s.events, s.logger, EventStoreDeleted, id, nil)
	return nil
}

func (s *StoreService) deleteProductsOf(ctx context.Context, storeID string) error {
	products, err := s.products.GetByStore(ctx, storeID)
	if err != nil {
		return fromRepo(err, "Product", "get")
	}
	for _, p := range products {
		if err := s.products.Delete(ctx, p.ID); err != nil {
			return fromRepo(err, "Product", "delete")
		}
		assets.Remove(ctx, s.assets, s.logger, p.Images...)
		metrics.CatalogMutationsTotal.WithLabelValues("product", "delete").Inc()
		publish(ctx, s.events, s.logger, EventProductDeleted, p.ID, nil)
	}
	return nil
}

func (s *StoreService) ensureUnique(ctx context.Context, name, slug, excludeID string) error {
	exists, err := s.stores.ExistsByNameOrSlug(ctx, name, slug, excludeID)
	if err != nil {
		return fromRepo(err, "Store", "check")
	}
	if exists {
		return apperrors.Conflict("Store with this name or slug already exists")
	}
	return nil
}
