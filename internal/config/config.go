package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort   string
	LogLevel  slog.Level
	LogFormat string

	StoreBackend   string
	DataDir        string
	DBPath         string
	RedisURL       string
	RedisKeyPrefix string

	BlobBackend   string
	UploadDir     string
	PublicBaseURL string
	S3            S3Config

	ImageFetchTimeout     time.Duration
	ImageDefaultReferer   string
	ImageMaxBytes         int64
	ImageFetchConcurrency int

	ShareSecret string
	ShareTTL    time.Duration
}

// S3Config configures the S3 blob backend.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	PublicBaseURL   string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the result.
// If a .env file exists in the current directory or a parent, it is loaded first.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{
		APIPort:        getEnv("API_PORT", "3000"),
		LogFormat:      strings.ToLower(getEnv("LOG_FORMAT", "text")),
		StoreBackend:   strings.ToLower(getEnv("STORE_BACKEND", "file")),
		DataDir:        getEnv("DATA_DIR", "./.data"),
		DBPath:         getEnv("DB_PATH", "./.data/chatkanban.db"),
		RedisURL:       getEnv("REDIS_URL", ""),
		RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "chatkanban"),
		BlobBackend:    strings.ToLower(getEnv("BLOB_BACKEND", "local")),
		UploadDir:      getEnv("UPLOAD_DIR", "./public/uploads"),
		PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
		S3: S3Config{
			Bucket:          getEnv("S3_BUCKET", ""),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			PublicBaseURL:   strings.TrimRight(getEnv("S3_PUBLIC_BASE_URL", ""), "/"),
		},
		ImageDefaultReferer: getEnv("IMAGE_DEFAULT_REFERER", "https://gemini.google.com/"),
		ShareSecret:         getEnv("SHARE_SECRET", ""),
	}

	var err error
	if cfg.LogLevel, err = parseLogLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}
	if cfg.S3.UsePathStyle, err = strconv.ParseBool(getEnv("S3_USE_PATH_STYLE", "false")); err != nil {
		return nil, fmt.Errorf("S3_USE_PATH_STYLE must be a boolean: %w", err)
	}
	if cfg.ImageFetchTimeout, err = parseDuration("IMAGE_FETCH_TIMEOUT", "5s"); err != nil {
		return nil, err
	}
	if cfg.ShareTTL, err = parseDuration("SHARE_TTL", "168h"); err != nil {
		return nil, err
	}
	if cfg.ImageMaxBytes, err = strconv.ParseInt(getEnv("IMAGE_MAX_BYTES", "26214400"), 10, 64); err != nil || cfg.ImageMaxBytes <= 0 {
		return nil, fmt.Errorf("IMAGE_MAX_BYTES must be a positive integer")
	}
	if cfg.ImageFetchConcurrency, err = strconv.Atoi(getEnv("IMAGE_FETCH_CONCURRENCY", "8")); err != nil || cfg.ImageFetchConcurrency <= 0 {
		return nil, fmt.Errorf("IMAGE_FETCH_CONCURRENCY must be a positive integer")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks backend selection and the settings each backend needs.
func (c *Config) Validate() error {
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}

	switch c.StoreBackend {
	case "memory", "file", "sqlite":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis store backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.BlobBackend {
	case "local":
		if strings.TrimSpace(c.UploadDir) == "" {
			return fmt.Errorf("UPLOAD_DIR is required for the local blob backend")
		}
	case "s3":
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 blob backend")
		}
		if c.S3.AccessKeyID == "" || c.S3.SecretAccessKey == "" {
			return fmt.Errorf("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY are required for the s3 blob backend")
		}
	default:
		return fmt.Errorf("unknown BLOB_BACKEND %q", c.BlobBackend)
	}
	return nil
}

// loadDotEnv loads the nearest .env, walking up a few directories from the working directory.
func loadDotEnv() {
	_ = godotenv.Load() // Try current directory

	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ { // Limit search depth
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return // Reached filesystem root
		}
		dir = parent
	}
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error: %w", err)
	}
	return level, nil
}

func parseDuration(key, defaultValue string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
