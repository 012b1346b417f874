// Package database opens the configured persistence backend and exposes its
// repositories.
package database

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"couponhub/internal/config"
	"couponhub/internal/repositories"
)

// Repositories bundles the repositories of one backend with its lifecycle.
type Repositories struct {
	Stores   repositories.StoreRepository
	Products repositories.ProductRepository
	Users    repositories.UserRepository

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

// Ping checks connectivity to the backend.
func (r *Repositories) Ping(ctx context.Context) error {
	return r.ping(ctx)
}

// Close releases the backend connection.
func (r *Repositories) Close(ctx context.Context) error {
	return r.close(ctx)
}

// Open connects to the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Repositories, error) {
	switch cfg.Driver {
	case "postgres", "sqlite":
		db, err := OpenGORM(cfg, logger)
		if err != nil {
			return nil, err
		}
		return NewGORMRepositories(db)
	case "mongo":
		return OpenMongo(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
