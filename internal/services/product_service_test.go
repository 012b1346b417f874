package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"couponhub/internal/apperrors"
	"couponhub/internal/assets"
	"couponhub/internal/models"
	"couponhub/internal/repositories"
	"couponhub/internal/services"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(n int) *int           { return &n }

func validProductInput() services.CreateProductInput {
	return services.CreateProductInput{
		Name:         "10% Off",
		Description:  "d",
		Price:        floatPtr(100),
		Stock:        intPtr(5),
		DiscountCode: "X1",
		ShopNowURL:   "http://x",
	}
}

func TestProductService_CreateProduct(t *testing.T) {
	ctx := context.Background()
	store := &models.Store{ID: "s1", Name: "Acme", Slug: "acme", Logo: models.DefaultStoreLogo}

	t.Run("applies defaults", func(t *testing.T) {
		products := new(MockProductRepository)
		stores := new(MockStoreRepository)
		assetStore, fs := memAssets()
		service := services.NewProductService(products, stores, assetStore, anyEvent(), zap.NewNop(), 0)

		stores.On("GetByID", mock.Anything, "s1").Return(store, nil).Once()
		products.On("Create", mock.Anything, mock.AnythingOfType("*models.Product")).Return(nil).Once()

		product, err := service.CreateProduct(ctx, "s1", validProductInput(), []assets.Upload{pngUpload("a.png"), pngUpload("b.png")})
		require.NoError(t, err)
		assert.Equal(t, 0, product.TotalUses)
		assert.Equal(t, 0, product.TodayUses)
		assert.Equal(t, float64(0), product.SuccessRate)
		assert.True(t, product.IsActive)
		assert.Nil(t, product.DiscountedPrice)
		assert.Equal(t, "s1", product.StoreID)
		assert.Equal(t, store, product.Store)
		require.Len(t, product.Images, 2)
		assert.ElementsMatch(t, product.Images, storedFiles(fs))
		products.AssertExpectations(t)
	})

	t.Run("explicit zero price and stock are accepted", func(t *testing.T) {
		products := new(MockProductRepository)
		stores := new(MockStoreRepository)
		service := services.NewProductService(products, stores, nil, anyEvent(), zap.NewNop(), 0)

		stores.On("GetByID", mock.Anything, "s1").Return(store, nil).Once()
		products.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

		in := validProductInput()
		in.Price = floatPtr(0)
		in.Stock = intPtr(0)
		in.IsActive = new(bool)
		product, err := service.CreateProduct(ctx, "s1", in, nil)
		require.NoError(t, err)
		assert.False(t, product.IsActive)
		assert.Equal(t, []string{}, product.Images)
	})

	t.Run("missing required field removes uploads", func(t *testing.T) {
		drop := map[string]func(*services.CreateProductInput){
			"name":         func(in *services.CreateProductInput) { in.Name = "" },
			"description":  func(in *services.CreateProductInput) { in.Description = " " },
			"price":        func(in *services.CreateProductInput) { in.Price = nil },
			"stock":        func(in *services.CreateProductInput) { in.Stock = nil },
			"discountCode": func(in *services.CreateProductInput) { in.DiscountCode = "" },
			"shopNowUrl":   func(in *services.CreateProductInput) { in.ShopNowURL = "" },
		}
		for field, apply := range drop {
			t.Run(field, func(t *testing.T) {
				stores := new(MockStoreRepository)
				assetStore, fs := memAssets()
				service := services.NewProductService(new(MockProductRepository), stores, assetStore, anyEvent(), zap.NewNop(), 0)

				in := validProductInput()
				apply(&in)
				_, err := service.CreateProduct(ctx, "s1", in, []assets.Upload{pngUpload("a.png")})
				require.True(t, apperrors.Is(err, apperrors.KindValidation), "got %v", err)
				assert.Contains(t, err.Error(), field)
				assert.Empty(t, storedFiles(fs))
				stores.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
			})
		}
	})

	t.Run("negative price", func(t *testing.T) {
		service := services.NewProductService(new(MockProductRepository), new(MockStoreRepository), nil, anyEvent(), zap.NewNop(), 0)
		in := validProductInput()
		in.Price = floatPtr(-1)
		_, err := service.CreateProduct(ctx, "s1", in, nil)
		assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	})

	t.Run("unknown store removes uploads", func(t *testing.T) {
		products := new(MockProductRepository)
		stores := new(MockStoreRepository)
		assetStore, fs := memAssets()
		service := services.NewProductService(products, stores, assetStore, anyEvent(), zap.NewNop(), 0)

		stores.On("GetByID", mock.Anything, "ghost").Return(nil, repositories.ErrNotFound).Once()

		_, err := service.CreateProduct(ctx, "ghost", validProductInput(), []assets.Upload{pngUpload("a.png")})
		assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
		assert.Empty(t, storedFiles(fs))
		products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("failed insert removes saved images", func(t *testing.T) {
		products := new(MockProductRepository)
		stores := new(MockStoreRepository)
		assetStore, fs := memAssets()
		service := services.NewProductService(products, stores, assetStore, anyEvent(), zap.NewNop(), 0)

		stores.On("GetByID", mock.Anything, "s1").Return(store, nil).Once()
		products.On("Create", mock.Anything, mock.Anything).Return(errors.New("database error")).Once()

		_, err := service.CreateProduct(ctx, "s1", validProductInput(), []assets.Upload{pngUpload("a.png"), pngUpload("b.png")})
		assert.True(t, apperrors.Is(err, apperrors.KindUnexpected))
		assert.Empty(t, storedFiles(fs))
	})
}

func TestProductService_GetProductsByStore(t *testing.T) {
	ctx := context.Background()
	products := new(MockProductRepository)
	stores := new(MockStoreRepository)
	service := services.NewProductService(products, stores, nil, anyEvent(), zap.NewNop(), 0)

	products.On("GetByStore", mock.Anything, "s1").Return([]models.Product{{ID: "p1", StoreID: "s1"}}, nil).Once()
	list, err := service.GetProductsByStore(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []string{}, list[0].Images)

	products.On("GetByStore", mock.Anything, "empty").Return([]models.Product{}, nil).Once()
	stores.On("GetByID", mock.Anything, "empty").Return(&models.Store{ID: "empty"}, nil).Once()
	list, err = service.GetProductsByStore(ctx, "empty")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	products.On("GetByStore", mock.Anything, "ghost").Return(nil, nil).Once()
	stores.On("GetByID", mock.Anything, "ghost").Return(nil, repositories.ErrNotFound).Once()
	_, err = service.GetProductsByStore(ctx, "ghost")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	products.AssertExpectations(t)
	stores.AssertExpectations(t)
}

func TestProductService_GetProductByID(t *testing.T) {
	products := new(MockProductRepository)
	service := services.NewProductService(products, new(MockStoreRepository), nil, anyEvent(), zap.NewNop(), 0)

	expected := &models.Product{ID: "1", Name: "Deal", Images: []string{"/uploads/products/a.png"}}
	products.On("GetByID", mock.Anything, "1").Return(expected, nil).Once()
	product, err := service.GetProductByID(context.Background(), "1")
	assert.NoError(t, err)
	assert.Equal(t, expected, product)

	products.On("GetByID", mock.Anything, "99").Return(nil, repositories.ErrNotFound).Once()
	product, err = service.GetProductByID(context.Background(), "99")
	assert.Nil(t, product)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	assert.Equal(t, "Product not found", err.Error())
	products.AssertExpectations(t)
}

func TestProductService_UpdateProduct(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*services.ProductService, *MockProductRepository, *models.Product, func() []string) {
		products := new(MockProductRepository)
		assetStore, fs := memAssets()
		a, err := assetStore.Save(ctx, assets.FolderProducts, pngUpload("a.png"))
		require.NoError(t, err)
		b, err := assetStore.Save(ctx, assets.FolderProducts, pngUpload("b.png"))
		require.NoError(t, err)
		existing := &models.Product{
			ID: "p1", Name: "Deal", Description: "d", Price: 10, Stock: 1, IsActive: true,
			DiscountCode: "X1", ShopNowURL: "http://x", StoreID: "s1", Images: []string{a, b},
		}
		service := services.NewProductService(products, new(MockStoreRepository), assetStore, anyEvent(), zap.NewNop(), 0)
		return service, products, existing, func() []string { return storedFiles(fs) }
	}

	t.Run("no image fields keeps images", func(t *testing.T) {
		service, products, existing, files := setup(t)
		before := append([]string(nil), existing.Images...)
		products.On("GetByID", mock.Anything, "p1").Return(existing, nil).Once()
		products.On("Update", mock.Anything, existing).Return(nil).Once()

		product, err := service.UpdateProduct(ctx, "p1", services.UpdateProductInput{Price: floatPtr(12)}, services.KeepImages())
		require.NoError(t, err)
		assert.Equal(t, before, product.Images)
		assert.Equal(t, 12.0, product.Price)
		assert.ElementsMatch(t, before, files())
	})

	t.Run("replace deletes old images", func(t *testing.T) {
		service, products, existing, files := setup(t)
		old := append([]string(nil), existing.Images...)
		products.On("GetByID", mock.Anything, "p1").Return(existing, nil).Once()
		products.On("Update", mock.Anything, existing).Return(nil).Once()

		product, err := service.UpdateProduct(ctx, "p1", services.UpdateProductInput{},
			services.ReplaceImages([]assets.Upload{pngUpload("c.webp")}))
		require.NoError(t, err)
		require.Len(t, product.Images, 1)
		assert.NotContains(t, old, product.Images[0])
		assert.Equal(t, product.Images, files())
	})

	t.Run("clear removes every image", func(t *testing.T) {
		service, products, existing, files := setup(t)
		products.On("GetByID", mock.Anything, "p1").Return(existing, nil).Once()
		products.On("Update", mock.Anything, existing).Return(nil).Once()

		product, err := service.UpdateProduct(ctx, "p1", services.UpdateProductInput{}, services.ClearImages())
		require.NoError(t, err)
		assert.Equal(t, []string{}, product.Images)
		assert.Empty(t, files())
	})

	t.Run("not found saves nothing", func(t *testing.T) {
		service, products, existing, files := setup(t)
		products.On("GetByID", mock.Anything, "nope").Return(nil, repositories.ErrNotFound).Once()

		_, err := service.UpdateProduct(ctx, "nope", services.UpdateProductInput{},
			services.ReplaceImages([]assets.Upload{pngUpload("c.png")}))
		assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
		assert.ElementsMatch(t, existing.Images, files())
	})

	t.Run("blank required field", func(t *testing.T) {
		service, products, existing, _ := setup(t)
		products.On("GetByID", mock.Anything, "p1").Return(existing, nil).Once()

		_, err := service.UpdateProduct(ctx, "p1", services.UpdateProductInput{DiscountCode: strPtr("")}, services.KeepImages())
		assert.True(t, apperrors.Is(err, apperrors.KindValidation))
		products.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("blank fields are reported in order", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			service, products, existing, _ := setup(t)
			products.On("GetByID", mock.Anything, "p1").Return(existing, nil).Once()

			in := services.UpdateProductInput{Name: strPtr(" "), ShopNowURL: strPtr(""), DiscountCode: strPtr("")}
			_, err := service.UpdateProduct(ctx, "p1", in, services.KeepImages())
			require.Error(t, err)
			assert.Equal(t, "Field 'name' cannot be empty", err.Error())
		}
	})

	t.Run("discounted price can be set and cleared", func(t *testing.T) {
		service, products, existing, _ := setup(t)
		products.On("GetByID", mock.Anything, "p1").Return(existing, nil).Twice()
		products.On("Update", mock.Anything, existing).Return(nil).Twice()

		product, err := service.UpdateProduct(ctx, "p1", services.UpdateProductInput{DiscountedPrice: floatPtr(7)}, services.KeepImages())
		require.NoError(t, err)
		require.NotNil(t, product.DiscountedPrice)
		assert.Equal(t, 7.0, *product.DiscountedPrice)

		product, err = service.UpdateProduct(ctx, "p1", services.UpdateProductInput{
			DiscountedPrice:      floatPtr(5),
			ClearDiscountedPrice: true,
		}, services.KeepImages())
		require.NoError(t, err)
		assert.Nil(t, product.DiscountedPrice)
		assert.Equal(t, 10.0, product.Price)
	})
}

func TestProductService_DeleteProduct(t *testing.T) {
	ctx := context.Background()
	products := new(MockProductRepository)
	assetStore, fs := memAssets()
	service := services.NewProductService(products, new(MockStoreRepository), assetStore, anyEvent(), zap.NewNop(), 0)

	a, _ := assetStore.Save(ctx, assets.FolderProducts, pngUpload("a.png"))
	products.On("GetByID", mock.Anything, "p1").Return(&models.Product{ID: "p1", Images: []string{a}}, nil).Once()
	products.On("Delete", mock.Anything, "p1").Return(nil).Once()

	require.NoError(t, service.DeleteProduct(ctx, "p1"))
	assert.Empty(t, storedFiles(fs))

	products.On("GetByID", mock.Anything, "99").Return(nil, repositories.ErrNotFound).Once()
	err := service.DeleteProduct(ctx, "99")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	products.AssertExpectations(t)
}

func TestProductService_Interactions(t *testing.T) {
	ctx := context.Background()
	products := new(MockProductRepository)
	service := services.NewProductService(products, new(MockStoreRepository), nil, anyEvent(), zap.NewNop(), 0)

	products.On("RecordUse", mock.Anything, "p1", mock.MatchedBy(func(day time.Time) bool {
		return day.Equal(models.StartOfDay(day)) && day.Location() == time.UTC
	}), mock.Anything).Return(nil).Once()
	products.On("GetByID", mock.Anything, "p1").Return(&models.Product{ID: "p1", TotalUses: 1, TodayUses: 1}, nil).Twice()

	product, err := service.RecordUse(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, product.TotalUses)

	products.On("AddVote", mock.Anything, "p1", true).Return(nil).Once()
	_, err = service.Vote(ctx, "p1", true)
	require.NoError(t, err)

	products.On("AddVote", mock.Anything, "gone", false).Return(repositories.ErrNotFound).Once()
	_, err = service.Vote(ctx, "gone", false)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	products.AssertExpectations(t)
}

func TestProductService_GetTopDeals(t *testing.T) {
	ctx := context.Background()
	products := new(MockProductRepository)
	service := services.NewProductService(products, new(MockStoreRepository), nil, anyEvent(), zap.NewNop(), 10)

	stale := models.Product{ID: "old", TodayUses: 7, LastDailyReset: time.Now().UTC().AddDate(0, 0, -2)}
	fresh := models.Product{ID: "new", TodayUses: 3, LastDailyReset: time.Now().UTC()}

	products.On("GetTopDeals", mock.Anything, mock.Anything, 10).Return([]models.Product{fresh, stale}, nil).Once()
	deals, err := service.GetTopDeals(ctx, 0)
	require.NoError(t, err)
	require.Len(t, deals, 2)
	assert.Equal(t, 3, deals[0].TodayUses)
	assert.Equal(t, 0, deals[1].TodayUses)

	products.On("GetTopDeals", mock.Anything, mock.Anything, 50).Return(nil, nil).Once()
	deals, err = service.GetTopDeals(ctx, 500)
	require.NoError(t, err)
	assert.Equal(t, []models.Product{}, deals)
	products.AssertExpectations(t)
}
