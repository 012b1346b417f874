package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"couponhub/internal/apperrors"
	"couponhub/internal/mailer"
	"couponhub/internal/models"
	"couponhub/internal/repositories"
)

// Claims is the authenticated principal carried by an admin token.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.StandardClaims
}

// CreateAdminInput carries the fields of a new admin account.
type CreateAdminInput struct {
	Username string `json:"username" validate:"required,min=3,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=admin superadmin"`
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo   repositories.UserRepository
	mailer     mailer.Mailer
	logger     *zap.Logger
	jwtSecret  []byte
	tokenDurat time.Duration // Duration for which JWT is valid
	resetDurat time.Duration // Duration for which a reset link is valid
	resetURL   string
	now        func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	userRepo repositories.UserRepository,
	m mailer.Mailer,
	logger *zap.Logger,
	jwtSecret string,
	tokenTTL, resetTTL time.Duration,
	resetURL string,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	if resetTTL <= 0 {
		resetTTL = 10 * time.Minute
	}
	return &AuthService{
		userRepo:   userRepo,
		mailer:     m,
		logger:     logger,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: tokenTTL,
		resetDurat: resetTTL,
		resetURL:   strings.TrimRight(resetURL, "/"),
		now:        time.Now,
	}
}

// CreateAdmin registers a back-office account with a bcrypt-hashed password.
func (s *AuthService) CreateAdmin(ctx context.Context, in CreateAdminInput) (*models.AdminUser, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Role == "" {
		in.Role = models.RoleAdmin
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByUsername(ctx, in.Username); err == nil {
		return nil, apperrors.Conflict("username '%s' already taken", in.Username)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.Unexpected(err, "failed to check username")
	}
	if _, err := s.userRepo.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperrors.Conflict("email '%s' already registered", in.Email)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.Unexpected(err, "failed to check email")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Unexpected(err, "failed to hash password")
	}

	user := &models.AdminUser{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hashedPassword),
		Role:     in.Role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.Conflict("username or email already registered")
		}
		return nil, apperrors.Unexpected(err, "failed to create admin")
	}
	return user, nil
}

// Login authenticates an admin and returns a signed JWT.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *models.AdminUser, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// Don't reveal whether the username exists.
			return "", nil, apperrors.Unauthorized("invalid credentials")
		}
		return "", nil, apperrors.Unexpected(err, "failed to look up user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, apperrors.Unauthorized("invalid credentials")
	}

	now := s.now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(s.tokenDurat).Unix(),
			IssuedAt:  now.Unix(),
		},
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, apperrors.Unexpected(err, "failed to generate token")
	}
	return tokenString, user, nil
}

// ValidateToken parses and validates a JWT token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.Unauthorized("Invalid or expired token")
	}
	if claims.UserID == "" {
		return nil, apperrors.Unauthorized("Invalid or expired token")
	}
	return claims, nil
}

// Me returns the account behind an authenticated token.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.AdminUser, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.Unauthorized("account no longer exists")
		}
		return nil, apperrors.Unexpected(err, "failed to look up user")
	}
	return user, nil
}

// ForgotPassword issues a reset token for the account registered with
// email and mails the reset link. Unknown addresses succeed silently.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return apperrors.Validation("Please provide an email address")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.logger.Info("password reset requested for unknown email")
			return nil
		}
		return apperrors.Unexpected(err, "failed to look up user")
	}

	token, hash, err := newResetToken()
	if err != nil {
		return apperrors.Unexpected(err, "failed to generate reset token")
	}
	expires := s.now().UTC().Add(s.resetDurat)
	user.ResetPasswordTokenHash = hash
	user.ResetPasswordExpires = &expires
	if err := s.userRepo.Update(ctx, user); err != nil {
		return apperrors.Unexpected(err, "failed to store reset token")
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, s.resetURL+"/"+token, s.resetDurat); err != nil {
		// Undo the token so an unsent link cannot be used.
		user.ResetPasswordTokenHash = ""
		user.ResetPasswordExpires = nil
		if uerr := s.userRepo.Update(ctx, user); uerr != nil {
			s.logger.Warn("failed to clear reset token", zap.String("user_id", user.ID), zap.Error(uerr))
		}
		return apperrors.Unexpected(err, "Email could not be sent")
	}
	return nil
}

// ResetPassword sets a new password for the holder of an unexpired reset
// token and invalidates the token.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 6 {
		return apperrors.Validation("Password must be at least 6 characters")
	}

	user, err := s.userRepo.GetByResetToken(ctx, hashResetToken(token), s.now().UTC())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.Validation("Invalid or expired token")
		}
		return apperrors.Unexpected(err, "failed to look up reset token")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Unexpected(err, "failed to hash password")
	}
	user.Password = string(hashedPassword)
	user.ResetPasswordTokenHash = ""
	user.ResetPasswordExpires = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return apperrors.Unexpected(err, "failed to update password")
	}
	return nil
}

// newResetToken returns a random token for the link and the hash to store.
func newResetToken() (token, hash string, err error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(buf)
	return token, hashResetToken(token), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
