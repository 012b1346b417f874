package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"couponhub/internal/assets"
	"couponhub/internal/config"
	"couponhub/internal/database"
	"couponhub/internal/handlers"
	"couponhub/internal/logger"
	"couponhub/internal/mailer"
	"couponhub/internal/services"
	"couponhub/pkg/rabbitmq"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string
	root := &cobra.Command{
		Use:          "couponhub",
		Short:        "Coupon marketplace catalog API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file to load")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context(), envFile)
			},
		},
		newCreateAdminCmd(&envFile),
		newTailEventsCmd(&envFile),
	)
	return root
}

// App is the assembled HTTP application and the resources it owns.
type App struct {
	Fiber  *fiber.App
	Config *config.Config
	Logger *zap.Logger

	repos *database.Repositories
	mq    *rabbitmq.Client
}

// NewApp wires configuration, persistence, asset storage, events and the
// HTTP layer.
func NewApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	repos, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Logger: log, repos: repos}

	assetStore, uploadsDir, err := newAssetStore(ctx, cfg, log)
	if err != nil {
		app.Close(ctx)
		return nil, err
	}

	var events services.EventPublisher = services.NopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Exchange: cfg.RabbitMQ.Exchange})
		if err != nil {
			app.Close(ctx)
			return nil, err
		}
		app.mq = mq
		events = services.NewAMQPPublisher(mq)
	} else {
		log.Info("RABBITMQ_URL not set, catalog events are disabled")
	}

	storeService := services.NewStoreService(repos.Stores, repos.Products, assetStore, events, log, cfg.Catalog.StoreDeletePolicy)
	productService := services.NewProductService(repos.Products, repos.Stores, assetStore, events, log, cfg.Catalog.TopDealsLimit)
	authService := services.NewAuthService(
		repos.Users,
		mailer.New(cfg.SMTP, log),
		log,
		cfg.Auth.JWTSecret,
		cfg.Auth.TokenTTL,
		cfg.Auth.ResetTokenTTL,
		cfg.Auth.ResetURL,
	)

	app.Fiber = handlers.NewApp(handlers.AppDeps{
		Stores:   storeService,
		Products: productService,
		Auth:     authService,
		Ping:     repos.Ping,
		Policy: assets.Policy{
			MaxFileSize: cfg.Uploads.MaxFileSize,
			MaxFiles:    cfg.Uploads.MaxImages,
		},
		Logger:        log,
		UploadsDir:    uploadsDir,
		UploadsPrefix: cfg.Uploads.URLPrefix,
		CORSOrigins:   cfg.CORS.AllowOrigins,
		Development:   cfg.IsDevelopment(),
		AccessLog:     true,
	})
	return app, nil
}

// Close releases the broker and database connections.
func (a *App) Close(ctx context.Context) {
	if a.mq != nil {
		if err := a.mq.Close(); err != nil {
			a.Logger.Warn("failed to close RabbitMQ client", zap.Error(err))
		}
	}
	if a.repos != nil {
		if err := a.repos.Close(ctx); err != nil {
			a.Logger.Warn("failed to close database", zap.Error(err))
		}
	}
}

// newAssetStore returns the configured asset store and, for the local
// driver, the directory to serve statically.
func newAssetStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (assets.Store, string, error) {
	switch cfg.Uploads.Driver {
	case "s3":
		store, err := assets.NewS3Store(cfg.S3, log)
		if err != nil {
			return nil, "", err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, "", err
		}
		return store, "", nil
	default:
		store, err := assets.NewLocalStore(cfg.Uploads.Dir, cfg.Uploads.URLPrefix)
		if err != nil {
			return nil, "", err
		}
		return store, cfg.Uploads.Dir, nil
	}
}

func setup(envFile string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, logger.New(cfg.Log), nil
}

func runServe(ctx context.Context, envFile string) error {
	cfg, log, err := setup(envFile)
	if err != nil {
		return err
	}
	defer log.Sync()

	app, err := NewApp(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize application", zap.Error(err))
		return err
	}

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", cfg.AppPort), zap.String("env", cfg.Env))
		errCh <- app.Fiber.Listen(cfg.AppPort)
	}()

	select {
	case <-quit:
		log.Info("shutting down server")
	case err = <-errCh:
		log.Error("server stopped", zap.Error(err))
	}

	if shutdownErr := app.Fiber.ShutdownWithTimeout(10 * time.Second); shutdownErr != nil {
		log.Warn("error during fiber shutdown", zap.Error(shutdownErr))
	}
	app.Close(context.Background())
	log.Info("server gracefully stopped")
	return err
}

func newCreateAdminCmd(envFile *string) *cobra.Command {
	var in services.CreateAdminInput
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a back-office admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(*envFile)
			if err != nil {
				return err
			}
			defer log.Sync()

			repos, err := database.Open(cmd.Context(), cfg.Database, log)
			if err != nil {
				return err
			}
			defer repos.Close(context.Background())

			authService := services.NewAuthService(repos.Users, mailer.New(cfg.SMTP, log), log,
				cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.ResetTokenTTL, cfg.Auth.ResetURL)
			user, err := authService.CreateAdmin(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", user.Role, user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Username, "username", "", "admin username")
	cmd.Flags().StringVar(&in.Email, "email", "", "admin email")
	cmd.Flags().StringVar(&in.Password, "password", "", "admin password")
	cmd.Flags().StringVar(&in.Role, "role", "admin", "admin or superadmin")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newTailEventsCmd(envFile *string) *cobra.Command {
	var binding string
	cmd := &cobra.Command{
		Use:   "tail-events",
		Short: "Log catalog events published to RabbitMQ",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(*envFile)
			if err != nil {
				return err
			}
			defer log.Sync()
			if cfg.RabbitMQ.URL == "" {
				return fmt.Errorf("RABBITMQ_URL is required")
			}

			mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Exchange: cfg.RabbitMQ.Exchange})
			if err != nil {
				return err
			}
			defer mq.Close()

			log.Info("consuming catalog events", zap.String("exchange", cfg.RabbitMQ.Exchange), zap.String("binding", binding))
			return mq.Consume(binding, func(msg amqp.Delivery) error {
				log.Info("catalog event",
					zap.String("routing_key", msg.RoutingKey),
					zap.ByteString("body", msg.Body))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&binding, "binding", "#", "routing key pattern, e.g. store.* or product.created")
	return cmd
}
