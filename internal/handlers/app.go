package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"couponhub/internal/assets"
	"couponhub/internal/metrics"
	"couponhub/internal/middleware"
	"couponhub/internal/models"
	"couponhub/internal/services"
)

// AppDeps holds everything the HTTP layer needs.
type AppDeps struct {
	Stores   *services.StoreService
	Products *services.ProductService
	Auth     *services.AuthService
	Ping     func(ctx context.Context) error
	Policy   assets.Policy
	Logger   *zap.Logger

	// UploadsDir is served at UploadsPrefix when set.
	UploadsDir    string
	UploadsPrefix string

	CORSOrigins string
	Development bool
	AccessLog   bool
}

// NewApp builds the Fiber app with middleware and every route mounted.
func NewApp(deps AppDeps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "couponhub",
		ErrorHandler: ErrorHandler(deps.Logger, deps.Development),
		BodyLimit:    bodyLimit(deps.Policy),
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: deps.Development}))
	if deps.AccessLog {
		app.Use(logger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: deps.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(metrics.Middleware())

	app.Get("/health", NewHealthHandler(deps.Ping).HandleHealth)
	app.Get("/metrics", metrics.Handler())

	if deps.UploadsDir != "" {
		// Files are opened per request. app.Static keeps handles open for
		// seconds, which would keep serving deleted assets.
		app.Use(strings.TrimRight(deps.UploadsPrefix, "/"), filesystem.New(filesystem.Config{
			Root:   http.Dir(deps.UploadsDir),
			Browse: false,
		}))
	}

	api := app.Group("/api")
	admin := []fiber.Handler{
		middleware.AuthRequired(deps.Auth),
		middleware.RequireRole(models.RoleAdmin, models.RoleSuperAdmin),
	}

	NewAuthHandler(deps.Auth).RegisterRoutes(api)
	NewStoreHandler(deps.Stores, deps.Policy).RegisterRoutes(api, admin...)
	NewProductHandler(deps.Products, deps.Policy).RegisterRoutes(api, admin...)

	return app
}

// bodyLimit leaves room for a full batch of images plus form fields.
func bodyLimit(p assets.Policy) int {
	files := p.MaxFiles
	if files < 1 {
		files = 1
	}
	return int(p.MaxFileSize)*(files+1) + 1<<20
}

// withAdmin returns the admin chain followed by handler without aliasing
// the caller's slice.
func withAdmin(admin []fiber.Handler, handler fiber.Handler) []fiber.Handler {
	chain := make([]fiber.Handler, 0, len(admin)+1)
	chain = append(chain, admin...)
	return append(chain, handler)
}
