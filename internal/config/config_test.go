package config_test

import (
	"os"
	"testing"
	"time"

	"couponhub/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")

	cfg, err := config.Load("testdata/does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "local", cfg.Uploads.Driver)
	assert.Equal(t, "/uploads", cfg.Uploads.URLPrefix)
	assert.Equal(t, int64(5*1024*1024), cfg.Uploads.MaxFileSize)
	assert.Equal(t, 5, cfg.Uploads.MaxImages)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 10*time.Minute, cfg.Auth.ResetTokenTTL)
	assert.Equal(t, config.DeletePolicyOrphan, cfg.Catalog.StoreDeletePolicy)
	assert.NotEmpty(t, cfg.Auth.JWTSecret)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "s3cr3t")
	t.Setenv("DB_DRIVER", "Mongo")
	t.Setenv("STORE_DELETE_POLICY", "cascade")
	t.Setenv("JWT_TTL", "2h")

	cfg, err := config.Load("testdata/does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, "mongo", cfg.Database.Driver)
	assert.Equal(t, config.DeletePolicyCascade, cfg.Catalog.StoreDeletePolicy)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "s3cr3t", cfg.Auth.JWTSecret)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	t.Run("missing secret in production", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("JWT_SECRET", "")
		_, err := config.Load("testdata/does-not-exist.env")
		assert.ErrorContains(t, err, "JWT_SECRET")
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("APP_ENV", "development")
		t.Setenv("DB_DRIVER", "oracle")
		_, err := config.Load("testdata/does-not-exist.env")
		assert.ErrorContains(t, err, "DB_DRIVER")
	})

	t.Run("s3 without bucket", func(t *testing.T) {
		t.Setenv("APP_ENV", "development")
		t.Setenv("UPLOADS_DRIVER", "s3")
		t.Setenv("S3_BUCKET", "")
		_, err := config.Load("testdata/does-not-exist.env")
		assert.ErrorContains(t, err, "S3_BUCKET")
	})

	t.Run("unknown delete policy", func(t *testing.T) {
		t.Setenv("APP_ENV", "development")
		t.Setenv("STORE_DELETE_POLICY", "explode")
		_, err := config.Load("testdata/does-not-exist.env")
		assert.ErrorContains(t, err, "STORE_DELETE_POLICY")
	})
}

func TestLoadUnsetEnvironmentIsProduction(t *testing.T) {
	// Register restores for the variables before removing them.
	t.Setenv("APP_ENV", "")
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("APP_ENV")
	os.Unsetenv("JWT_SECRET")

	_, err := config.Load("testdata/does-not-exist.env")
	assert.ErrorContains(t, err, "JWT_SECRET is required when APP_ENV=production")

	t.Setenv("JWT_SECRET", "s3cr3t")
	cfg, err := config.Load("testdata/does-not-exist.env")
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Env)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "s3cr3t", cfg.Auth.JWTSecret)
}
