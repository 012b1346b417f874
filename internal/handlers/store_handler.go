package handlers

import (
	"github.com/gofiber/fiber/v2"

	"couponhub/internal/assets"
	"couponhub/internal/services"
)

// StoreHandler handles HTTP requests for stores.
type StoreHandler struct {
	service *services.StoreService
	policy  assets.Policy
}

// NewStoreHandler creates a new StoreHandler.
func NewStoreHandler(service *services.StoreService, policy assets.Policy) *StoreHandler {
	return &StoreHandler{
		service: service,
		policy:  policy,
	}
}

// RegisterRoutes registers the store routes. Mutations run behind admin.
func (h *StoreHandler) RegisterRoutes(router fiber.Router, admin ...fiber.Handler) {
	storeRoutes := router.Group("/stores")
	storeRoutes.Get("/", h.HandleGetStores)
	storeRoutes.Get("/slug/:slug", h.HandleGetStoreBySlug)
	storeRoutes.Get("/:id", h.HandleGetStoreByID)
	storeRoutes.Post("/", withAdmin(admin, h.HandleCreateStore)...)
	storeRoutes.Put("/:id", withAdmin(admin, h.HandleUpdateStore)...)
	storeRoutes.Delete("/:id", withAdmin(admin, h.HandleDeleteStore)...)
}

// HandleGetStores retrieves all stores.
func (h *StoreHandler) HandleGetStores(c *fiber.Ctx) error {
	stores, err := h.service.GetStores(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(stores)
}

// HandleGetStoreByID retrieves a single store by its ID.
func (h *StoreHandler) HandleGetStoreByID(c *fiber.Ctx) error {
	store, err := h.service.GetStoreByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(store)
}

// HandleGetStoreBySlug retrieves a single store by its slug.
func (h *StoreHandler) HandleGetStoreBySlug(c *fiber.Ctx) error {
	store, err := h.service.GetStoreBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return err
	}
	return c.JSON(store)
}

// HandleCreateStore creates a store from a multipart form with an optional
// "logo" file, or from a JSON body.
func (h *StoreHandler) HandleCreateStore(c *fiber.Ctx) error {
	form, err := multipartForm(c)
	if err != nil {
		return err
	}

	var in services.CreateStoreInput
	if form != nil {
		in = services.CreateStoreInput{
			Name:            valueOf(formString(form, "name")),
			Description:     valueOf(formString(form, "description")),
			Slug:            valueOf(formString(form, "slug")),
			TopDealHeadline: valueOf(formString(form, "topDealHeadline")),
			Tagline:         valueOf(formString(form, "tagline")),
			MainURL:         valueOf(formString(form, "mainUrl")),
		}
	} else if err := decodeJSON(c, &in); err != nil {
		return err
	}

	logo, err := singleUpload(form, fieldLogo, h.policy)
	if err != nil {
		return err
	}

	store, err := h.service.CreateStore(c.UserContext(), in, logo)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(store)
}

// storeUpdatePayload is the JSON form of a store update.
type storeUpdatePayload struct {
	services.UpdateStoreInput
	Logo optionalField `json:"logo"`
}

// HandleUpdateStore applies a partial update. A new "logo" file replaces the
// logo; a "logo" field equal to null removes it.
func (h *StoreHandler) HandleUpdateStore(c *fiber.Ctx) error {
	form, err := multipartForm(c)
	if err != nil {
		return err
	}

	var in services.UpdateStoreInput
	removeLogo := false
	if form != nil {
		in = services.UpdateStoreInput{
			Name:            formString(form, "name"),
			Description:     formString(form, "description"),
			Slug:            formString(form, "slug"),
			TopDealHeadline: formString(form, "topDealHeadline"),
			Tagline:         formString(form, "tagline"),
			MainURL:         formString(form, "mainUrl"),
		}
		if v := formString(form, fieldLogo); v != nil && *v == nullSentinel {
			removeLogo = true
		}
	} else {
		var payload storeUpdatePayload
		if err := decodeJSON(c, &payload); err != nil {
			return err
		}
		in = payload.UpdateStoreInput
		removeLogo = payload.Logo.Set && payload.Logo.Null
	}

	file, err := singleUpload(form, fieldLogo, h.policy)
	if err != nil {
		return err
	}

	logo := services.KeepLogo()
	switch {
	case file != nil:
		logo = services.ReplaceLogo(*file)
	case removeLogo:
		logo = services.RemoveLogo()
	}

	store, err := h.service.UpdateStore(c.UserContext(), c.Params("id"), in, logo)
	if err != nil {
		return err
	}
	return c.JSON(store)
}

// HandleDeleteStore deletes a store and its logo.
func (h *StoreHandler) HandleDeleteStore(c *fiber.Ctx) error {
	if err := h.service.DeleteStore(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Store deleted successfully",
	})
}

func valueOf(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
