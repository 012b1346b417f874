// Package config builds the application configuration once at startup.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store deletion policies.
const (
	DeletePolicyOrphan   = "orphan"
	DeletePolicyRestrict = "restrict"
	DeletePolicyCascade  = "cascade"
)

// Config holds all application configuration.
type Config struct {
	Env      string
	AppPort  string
	Database DatabaseConfig
	Auth     AuthConfig
	Uploads  UploadsConfig
	S3       S3Config
	RabbitMQ RabbitMQConfig
	SMTP     SMTPConfig
	Log      LogConfig
	Catalog  CatalogConfig
	CORS     CORSConfig
}

// DatabaseConfig selects and configures the persistence backend.
type DatabaseConfig struct {
	Driver        string // postgres, sqlite, mongo
	DSN           string
	MongoURI      string
	MongoDatabase string
	LogLevel      string
}

// AuthConfig holds token settings for the admin gate.
type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	ResetTokenTTL time.Duration
	ResetURL      string
}

// UploadsConfig holds the asset store settings.
type UploadsConfig struct {
	Driver      string // local, s3
	Dir         string
	URLPrefix   string
	MaxFileSize int64
	MaxImages   int
}

// S3Config holds S3-compatible object storage settings.
type S3Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	UsePathStyle bool
	PublicURL    string
}

type RabbitMQConfig struct {
	URL      string
	Exchange string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

type CatalogConfig struct {
	StoreDeletePolicy string
	TopDealsLimit     int
}

type CORSConfig struct {
	AllowOrigins string
}

// IsDevelopment reports whether the app runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads an optional .env file and the process environment.
func Load(envFiles ...string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := fromViper(v)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("APP_PORT", ":8080")

	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "couponhub.db")
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DATABASE", "couponhub")
	v.SetDefault("DB_LOG_LEVEL", "warn")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("RESET_TOKEN_TTL", "10m")
	v.SetDefault("RESET_PASSWORD_URL", "http://localhost:3000/admin/reset-password")

	v.SetDefault("UPLOADS_DRIVER", "local")
	v.SetDefault("UPLOADS_DIR", "uploads")
	v.SetDefault("UPLOADS_URL_PREFIX", "/uploads")
	v.SetDefault("UPLOADS_MAX_FILE_SIZE", 5*1024*1024)
	v.SetDefault("UPLOADS_MAX_IMAGES", 5)

	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_USE_PATH_STYLE", true)

	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "catalog.events")

	v.SetDefault("SMTP_PORT", 587)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("LOG_OUTPUT", "stdout")

	v.SetDefault("STORE_DELETE_POLICY", DeletePolicyOrphan)
	v.SetDefault("TOP_DEALS_LIMIT", 10)

	v.SetDefault("CORS_ORIGINS", "*")
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Env:     v.GetString("APP_ENV"),
		AppPort: v.GetString("APP_PORT"),
		Database: DatabaseConfig{
			Driver:        strings.ToLower(v.GetString("DB_DRIVER")),
			DSN:           v.GetString("DATABASE_DSN"),
			MongoURI:      v.GetString("MONGODB_URI"),
			MongoDatabase: v.GetString("MONGODB_DATABASE"),
			LogLevel:      v.GetString("DB_LOG_LEVEL"),
		},
		Auth: AuthConfig{
			JWTSecret:     v.GetString("JWT_SECRET"),
			TokenTTL:      v.GetDuration("JWT_TTL"),
			ResetTokenTTL: v.GetDuration("RESET_TOKEN_TTL"),
			ResetURL:      v.GetString("RESET_PASSWORD_URL"),
		},
		Uploads: UploadsConfig{
			Driver:      strings.ToLower(v.GetString("UPLOADS_DRIVER")),
			Dir:         v.GetString("UPLOADS_DIR"),
			URLPrefix:   v.GetString("UPLOADS_URL_PREFIX"),
			MaxFileSize: v.GetInt64("UPLOADS_MAX_FILE_SIZE"),
			MaxImages:   v.GetInt("UPLOADS_MAX_IMAGES"),
		},
		S3: S3Config{
			Endpoint:     v.GetString("S3_ENDPOINT"),
			Region:       v.GetString("S3_REGION"),
			Bucket:       v.GetString("S3_BUCKET"),
			AccessKey:    v.GetString("S3_ACCESS_KEY"),
			SecretKey:    v.GetString("S3_SECRET_KEY"),
			UseSSL:       v.GetBool("S3_USE_SSL"),
			UsePathStyle: v.GetBool("S3_USE_PATH_STYLE"),
			PublicURL:    v.GetString("S3_PUBLIC_URL"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      v.GetString("RABBITMQ_URL"),
			Exchange: v.GetString("RABBITMQ_EXCHANGE"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
			Output: v.GetString("LOG_OUTPUT"),
		},
		Catalog: CatalogConfig{
			StoreDeletePolicy: strings.ToLower(v.GetString("STORE_DELETE_POLICY")),
			TopDealsLimit:     v.GetInt("TOP_DEALS_LIMIT"),
		},
		CORS: CORSConfig{
			AllowOrigins: v.GetString("CORS_ORIGINS"),
		},
	}
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		// Only an explicit APP_ENV=development may run with the built-in secret.
		if !c.IsDevelopment() {
			return fmt.Errorf("JWT_SECRET is required when APP_ENV=%s", c.Env)
		}
		c.Auth.JWTSecret = "dev-insecure-secret"
	}
	switch c.Database.Driver {
	case "postgres", "sqlite", "mongo":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Uploads.Driver {
	case "local":
	case "s3":
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when UPLOADS_DRIVER=s3")
		}
	default:
		return fmt.Errorf("unsupported UPLOADS_DRIVER %q", c.Uploads.Driver)
	}
	switch c.Catalog.StoreDeletePolicy {
	case DeletePolicyOrphan, DeletePolicyRestrict, DeletePolicyCascade:
	default:
		return fmt.Errorf("unsupported STORE_DELETE_POLICY %q", c.Catalog.StoreDeletePolicy)
	}
	if c.Uploads.MaxFileSize <= 0 {
		return fmt.Errorf("UPLOADS_MAX_FILE_SIZE must be positive")
	}
	return nil
}
