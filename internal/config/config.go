package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	BlobBackendLocal = "local"
	BlobBackendS3    = "s3"
)

type Config struct {
	// Server
	Host    string `env:"HOST" envDefault:"127.0.0.1"`
	Port    int    `env:"PORT" envDefault:"8001"`
	BaseURL string `env:"BASE_URL"` // public URL images are served from; defaults to http://localhost:<port>

	// Storage
	DataFile    string `env:"ALBUMS_DB" envDefault:"data/albums.json"`
	UploadDir   string `env:"UPLOAD_DIR" envDefault:"uploads"`
	BlobBackend string `env:"BLOB_BACKEND" envDefault:"local"`

	// S3 blob backend
	S3Bucket          string `env:"S3_BUCKET"`
	S3Region          string `env:"S3_REGION" envDefault:"auto"`
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	S3Prefix          string `env:"S3_PREFIX"`

	// Limits
	MaxUploadBytes     int64 `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
	RateLimitPerMinute int   `env:"RATE_LIMIT_PER_MINUTE" envDefault:"0"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// PublicBaseURL is the absolute URL prefix stored in every image record.
func (c *Config) PublicBaseURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return fmt.Sprintf("http://localhost:%d", c.Port)
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.PublicBaseURL())
	if err != nil {
		return fmt.Errorf("invalid BASE_URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("BASE_URL must be absolute, got %q", c.BaseURL)
	}

	switch c.BlobBackend {
	case BlobBackendLocal:
	case BlobBackendS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when BLOB_BACKEND=s3")
		}
	default:
		return fmt.Errorf("unknown BLOB_BACKEND %q (supported: local, s3)", c.BlobBackend)
	}

	if c.MaxUploadBytes < 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must not be negative")
	}
	return nil
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
