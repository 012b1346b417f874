package handlers

import (
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"couponhub/internal/assets"
	"couponhub/internal/services"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service *services.ProductService
	policy  assets.Policy
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, policy assets.Policy) *ProductHandler {
	return &ProductHandler{
		service: service,
		policy:  policy,
	}
}

// RegisterRoutes registers the product routes. Mutations run behind admin.
// Static segments are registered before "/:id" so they are not captured.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, admin ...fiber.Handler) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/top-deals", h.HandleGetTopDeals)
	productRoutes.Get("/store/:storeId", h.HandleGetProductsByStore)
	productRoutes.Post("/store/:storeId", withAdmin(admin, h.HandleCreateProduct)...)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/:id/use", h.HandleRecordUse)
	productRoutes.Post("/:id/like", h.HandleVote(true))
	productRoutes.Post("/:id/dislike", h.HandleVote(false))
	productRoutes.Put("/:id", withAdmin(admin, h.HandleUpdateProduct)...)
	productRoutes.Delete("/:id", withAdmin(admin, h.HandleDeleteProduct)...)
}

// HandleGetTopDeals lists the most used active deals of the day.
func (h *ProductHandler) HandleGetTopDeals(c *fiber.Ctx) error {
	products, err := h.service.GetTopDeals(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(products)
}

// HandleGetProductsByStore lists the products of a store.
func (h *ProductHandler) HandleGetProductsByStore(c *fiber.Ctx) error {
	products, err := h.service.GetProductsByStore(c.UserContext(), c.Params("storeId"))
	if err != nil {
		return err
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product with its store.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a product under a store from a multipart form
// with up to MaxFiles "images", or from a JSON body.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	form, err := multipartForm(c)
	if err != nil {
		return err
	}

	var in services.CreateProductInput
	if form != nil {
		if in, err = createProductFromForm(form); err != nil {
			return err
		}
	} else if err := decodeJSON(c, &in); err != nil {
		return err
	}

	images, err := uploads(form, fieldImages, h.policy)
	if err != nil {
		return err
	}

	product, err := h.service.CreateProduct(c.UserContext(), c.Params("storeId"), in, images)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// productUpdatePayload is the JSON form of a product update.
type productUpdatePayload struct {
	services.UpdateProductInput
	DiscountedPrice optionalNumber `json:"discountedPrice"`
	ClearImages     flag           `json:"clearImages"`
}

// HandleUpdateProduct applies a partial update. New "images" files replace
// every image; clearImages=true removes them all.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	form, err := multipartForm(c)
	if err != nil {
		return err
	}

	var in services.UpdateProductInput
	clearAll := false
	if form != nil {
		if in, err = updateProductFromForm(form); err != nil {
			return err
		}
		flagValue, err := formBool(form, fieldClearImages)
		if err != nil {
			return err
		}
		clearAll = flagValue != nil && *flagValue
	} else {
		var payload productUpdatePayload
		if err := decodeJSON(c, &payload); err != nil {
			return err
		}
		in = payload.UpdateProductInput
		in.DiscountedPrice = payload.DiscountedPrice.Value
		in.ClearDiscountedPrice = payload.DiscountedPrice.Null
		clearAll = bool(payload.ClearImages)
	}

	files, err := uploads(form, fieldImages, h.policy)
	if err != nil {
		return err
	}

	images := services.KeepImages()
	switch {
	case len(files) > 0:
		images = services.ReplaceImages(files)
	case clearAll:
		images = services.ClearImages()
	}

	product, err := h.service.UpdateProduct(c.UserContext(), c.Params("id"), in, images)
	if err != nil {
		return err
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a product and its images.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Product deleted successfully",
	})
}

// HandleRecordUse counts one use of the deal's discount code.
func (h *ProductHandler) HandleRecordUse(c *fiber.Ctx) error {
	product, err := h.service.RecordUse(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(product)
}

// HandleVote returns a handler recording a like or a dislike.
func (h *ProductHandler) HandleVote(like bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		product, err := h.service.Vote(c.UserContext(), c.Params("id"), like)
		if err != nil {
			return err
		}
		return c.JSON(product)
	}
}

func createProductFromForm(form *multipart.Form) (services.CreateProductInput, error) {
	in := services.CreateProductInput{
		Name:         valueOf(formString(form, "name")),
		Description:  valueOf(formString(form, "description")),
		Category:     valueOf(formString(form, "category")),
		DiscountCode: valueOf(formString(form, "discountCode")),
		ShopNowURL:   valueOf(formString(form, "shopNowUrl")),
	}
	var err error
	if in.Price, err = formFloat(form, "price"); err != nil {
		return in, err
	}
	if in.DiscountedPrice, err = formFloat(form, "discountedPrice"); err != nil {
		return in, err
	}
	if in.Stock, err = formInt(form, "stock"); err != nil {
		return in, err
	}
	if in.IsActive, err = formBool(form, "isActive"); err != nil {
		return in, err
	}
	if in.SuccessRate, err = formFloat(form, "successRate"); err != nil {
		return in, err
	}
	if in.TotalUses, err = formInt(form, "totalUses"); err != nil {
		return in, err
	}
	if in.TodayUses, err = formInt(form, "todayUses"); err != nil {
		return in, err
	}
	return in, nil
}

func updateProductFromForm(form *multipart.Form) (services.UpdateProductInput, error) {
	in := services.UpdateProductInput{
		Name:         formString(form, "name"),
		Description:  formString(form, "description"),
		Category:     formString(form, "category"),
		DiscountCode: formString(form, "discountCode"),
		ShopNowURL:   formString(form, "shopNowUrl"),
	}
	var err error
	if in.Price, err = formFloat(form, "price"); err != nil {
		return in, err
	}
	if v := formString(form, "discountedPrice"); v != nil && strings.TrimSpace(*v) == nullSentinel {
		in.ClearDiscountedPrice = true
	} else if in.DiscountedPrice, err = formFloat(form, "discountedPrice"); err != nil {
		return in, err
	}
	if in.Stock, err = formInt(form, "stock"); err != nil {
		return in, err
	}
	if in.IsActive, err = formBool(form, "isActive"); err != nil {
		return in, err
	}
	if in.SuccessRate, err = formFloat(form, "successRate"); err != nil {
		return in, err
	}
	return in, nil
}
