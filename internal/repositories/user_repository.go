package repositories

import (
	"context"
	"time"

	"couponhub/internal/models"
)

// UserRepository defines the interface for admin user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.AdminUser) error
	GetByUsername(ctx context.Context, username string) (*models.AdminUser, error)
	GetByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	GetByID(ctx context.Context, id string) (*models.AdminUser, error)
	// GetByResetToken finds the user holding an unexpired reset token hash.
	GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.AdminUser, error)
	Update(ctx context.Context, user *models.AdminUser) error
}
