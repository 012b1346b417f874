package services_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"couponhub/internal/apperrors"
	"couponhub/internal/models"
	"couponhub/internal/repositories"
	"couponhub/internal/services"
)

const testJWTSecret = "test_jwt_secret"

func newAuthService(repo *MockUserRepository, m *MockMailer) *services.AuthService {
	return services.NewAuthService(repo, m, zap.NewNop(), testJWTSecret, time.Hour, 10*time.Minute, "http://localhost:3000/admin/reset-password/")
}

func hashedUser(t *testing.T, password string) *models.AdminUser {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.AdminUser{ID: "u1", Username: "testuser", Email: "test@example.com", Password: string(hash), Role: models.RoleAdmin}
}

func TestAuthService_CreateAdmin(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo, new(MockMailer))

	mockRepo.On("GetByUsername", mock.Anything, "testuser").Return(nil, repositories.ErrNotFound).Once()
	mockRepo.On("GetByEmail", mock.Anything, "test@example.com").Return(nil, repositories.ErrNotFound).Once()
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.AdminUser")).Return(nil).Once()

	user, err := authService.CreateAdmin(ctx, services.CreateAdminInput{
		Username: "testuser",
		Email:    "Test@Example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.Equal(t, "test@example.com", user.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")))
	mockRepo.AssertExpectations(t)

	// Duplicate username
	mockRepo.On("GetByUsername", mock.Anything, "testuser").Return(user, nil).Once()
	_, err = authService.CreateAdmin(ctx, services.CreateAdminInput{Username: "testuser", Email: "other@example.com", Password: "password123"})
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))
	assert.Contains(t, err.Error(), "already taken")

	// Invalid role
	_, err = authService.CreateAdmin(ctx, services.CreateAdminInput{Username: "root", Email: "root@example.com", Password: "password123", Role: "owner"})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestAuthService_LoginAndValidateToken(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo, new(MockMailer))
	user := hashedUser(t, "password123")

	mockRepo.On("GetByUsername", mock.Anything, "testuser").Return(user, nil)
	mockRepo.On("GetByUsername", mock.Anything, "nouser").Return(nil, repositories.ErrNotFound)

	token, loggedIn, err := authService.Login(ctx, "testuser", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user, loggedIn)

	claims, err := authService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "testuser", claims.Username)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	_, _, err = authService.Login(ctx, "testuser", "wrongpassword")
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthorized))
	assert.Equal(t, "invalid credentials", err.Error())

	_, _, err = authService.Login(ctx, "nouser", "password123")
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthorized))
	assert.Equal(t, "invalid credentials", err.Error())
}

func TestAuthService_ValidateTokenRejects(t *testing.T) {
	authService := newAuthService(new(MockUserRepository), new(MockMailer))

	sign := func(secret string, method jwt.SigningMethod, claims services.Claims) string {
		var key interface{} = []byte(secret)
		tok, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return tok
	}
	valid := services.Claims{UserID: "u1", Role: models.RoleAdmin, StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()}}
	expired := valid
	expired.ExpiresAt = time.Now().Add(-time.Minute).Unix()

	for name, token := range map[string]string{
		"garbage":      "not.a.token",
		"wrong secret": sign("other", jwt.SigningMethodHS256, valid),
		"expired":      sign(testJWTSecret, jwt.SigningMethodHS256, expired),
		"no subject":   sign(testJWTSecret, jwt.SigningMethodHS256, services.Claims{StandardClaims: valid.StandardClaims}),
	} {
		_, err := authService.ValidateToken(token)
		assert.True(t, apperrors.Is(err, apperrors.KindUnauthorized), name)
	}
}

func TestAuthService_ForgotPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email succeeds silently", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mailer := new(MockMailer)
		authService := newAuthService(mockRepo, mailer)

		mockRepo.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, repositories.ErrNotFound).Once()
		assert.NoError(t, authService.ForgotPassword(ctx, "ghost@example.com"))
		mailer.AssertNotCalled(t, "SendPasswordReset", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("stores hash and mails token", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mailer := new(MockMailer)
		authService := newAuthService(mockRepo, mailer)
		user := hashedUser(t, "password123")

		var sentURL string
		mockRepo.On("GetByEmail", mock.Anything, "test@example.com").Return(user, nil).Once()
		mockRepo.On("Update", mock.Anything, user).Return(nil).Once()
		mailer.On("SendPasswordReset", mock.Anything, "test@example.com", mock.AnythingOfType("string"), 10*time.Minute).
			Run(func(args mock.Arguments) { sentURL = args.String(2) }).
			Return(nil).Once()

		require.NoError(t, authService.ForgotPassword(ctx, " Test@Example.com "))
		require.True(t, strings.HasPrefix(sentURL, "http://localhost:3000/admin/reset-password/"))
		token := strings.TrimPrefix(sentURL, "http://localhost:3000/admin/reset-password/")
		sum := sha256.Sum256([]byte(token))
		assert.Equal(t, hex.EncodeToString(sum[:]), user.ResetPasswordTokenHash)
		require.NotNil(t, user.ResetPasswordExpires)
		assert.WithinDuration(t, time.Now().Add(10*time.Minute), *user.ResetPasswordExpires, 5*time.Second)
	})

	t.Run("mail failure clears token", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mailer := new(MockMailer)
		authService := newAuthService(mockRepo, mailer)
		user := hashedUser(t, "password123")

		mockRepo.On("GetByEmail", mock.Anything, "test@example.com").Return(user, nil).Once()
		mockRepo.On("Update", mock.Anything, user).Return(nil).Twice()
		mailer.On("SendPasswordReset", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()

		err := authService.ForgotPassword(ctx, "test@example.com")
		assert.True(t, apperrors.Is(err, apperrors.KindUnexpected))
		assert.Empty(t, user.ResetPasswordTokenHash)
		assert.Nil(t, user.ResetPasswordExpires)
	})
}

func TestAuthService_ResetPassword(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo, new(MockMailer))

	user := hashedUser(t, "password123")
	expires := time.Now().Add(5 * time.Minute)
	user.ResetPasswordTokenHash = "stored"
	user.ResetPasswordExpires = &expires

	sum := sha256.Sum256([]byte("raw-token"))
	mockRepo.On("GetByResetToken", mock.Anything, hex.EncodeToString(sum[:]), mock.Anything).Return(user, nil).Once()
	mockRepo.On("Update", mock.Anything, user).Return(nil).Once()

	require.NoError(t, authService.ResetPassword(ctx, "raw-token", "newpassword"))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("newpassword")))
	assert.Empty(t, user.ResetPasswordTokenHash)
	assert.Nil(t, user.ResetPasswordExpires)

	mockRepo.On("GetByResetToken", mock.Anything, mock.Anything, mock.Anything).Return(nil, repositories.ErrNotFound).Once()
	err := authService.ResetPassword(ctx, "stale", "newpassword")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	assert.Equal(t, "Invalid or expired token", err.Error())

	err = authService.ResetPassword(ctx, "raw-token", "123")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	mockRepo.AssertExpectations(t)
}
