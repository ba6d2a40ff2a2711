// Package config loads application settings from .env and the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const defaultSessionSecret = "secret_key_change_me"

type Config struct {
	Env           string        `mapstructure:"APP_ENV"`
	Port          string        `mapstructure:"PORT"`
	SessionSecret string        `mapstructure:"SESSION_SECRET"`
	DBDriver      string        `mapstructure:"DB_DRIVER"`
	DatabaseURL   string        `mapstructure:"DATABASE_URL"`
	SQLitePath    string        `mapstructure:"SQLITE_PATH"`
	RedisURL      string        `mapstructure:"REDIS_URL"`
	IndexCacheTTL time.Duration `mapstructure:"INDEX_CACHE_TTL"`
	TemplatesDir  string        `mapstructure:"TEMPLATES_DIR"`

	StorageBackend string `mapstructure:"STORAGE_BACKEND"`
	MediaRoot      string `mapstructure:"MEDIA_ROOT"`
	MediaURL       string `mapstructure:"MEDIA_URL"`
	MaxUploadMB    int64  `mapstructure:"MAX_UPLOAD_MB"`
	MinIOEndpoint  string `mapstructure:"MINIO_ENDPOINT"`
	MinIOAccessKey string `mapstructure:"MINIO_ACCESS_KEY"`
	MinIOSecretKey string `mapstructure:"MINIO_SECRET_KEY"`
	MinIOBucket    string `mapstructure:"MINIO_BUCKET"`
	MinIOUseSSL    bool   `mapstructure:"MINIO_USE_SSL"`
	MinIOPublicURL string `mapstructure:"MINIO_PUBLIC_URL"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, reading configuration from environment")
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8000")
	v.SetDefault("SESSION_SECRET", defaultSessionSecret)
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=yatube port=5432 sslmode=disable")
	v.SetDefault("SQLITE_PATH", "yatube.db")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("INDEX_CACHE_TTL", "20s")
	v.SetDefault("TEMPLATES_DIR", "")
	v.SetDefault("STORAGE_BACKEND", "local")
	v.SetDefault("MEDIA_ROOT", "media")
	v.SetDefault("MEDIA_URL", "/media/")
	v.SetDefault("MAX_UPLOAD_MB", 5)
	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "")
	v.SetDefault("MINIO_SECRET_KEY", "")
	v.SetDefault("MINIO_BUCKET", "yatube")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("MINIO_PUBLIC_URL", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if c.IsProduction() && c.SessionSecret == defaultSessionSecret {
		return errors.New("SESSION_SECRET must be changed from the default value in production")
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.StorageBackend {
	case "local", "minio":
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.IndexCacheTTL < 0 {
		return errors.New("INDEX_CACHE_TTL must not be negative")
	}
	if c.MaxUploadMB <= 0 {
		return errors.New("MAX_UPLOAD_MB must be positive")
	}
	return nil
}
