// Package config loads FileDrop settings from FILEDROP_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// defaultCapacity is the total storage quota: 500 MiB.
const defaultCapacity int64 = 500 * 1024 * 1024

type Config struct {
	HTTPAddr    string
	GRPCAddr    string
	MetricsAddr string

	DBDriver    string
	DatabaseURL string

	Capacity          int64
	UploadConcurrency int
	MaxUploadBytes    int64
	StrictTypes       bool

	APIKeys            []string
	RateLimitPerMinute int
	AllowedOrigins     []string

	RedisAddr     string
	RedisPassword string
	RedisChannel  string

	ThumbnailCacheSize int

	LogLevel   string
	LogFile    string
	Dev        bool
	Tracing    bool
	ShutdownTO time.Duration
}

// Load reads the configuration and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:      getEnv("FILEDROP_HTTP_ADDR", ":8080"),
		GRPCAddr:      getEnv("FILEDROP_GRPC_ADDR", ":50051"),
		MetricsAddr:   getEnv("FILEDROP_METRICS_ADDR", ":9090"),
		DBDriver:      strings.ToLower(getEnv("FILEDROP_DB_DRIVER", "sqlite")),
		DatabaseURL:   getEnv("FILEDROP_DATABASE_URL", "data/filedrop.db"),
		RedisAddr:     os.Getenv("FILEDROP_REDIS_ADDR"),
		RedisPassword: os.Getenv("FILEDROP_REDIS_PASSWORD"),
		RedisChannel:  getEnv("FILEDROP_REDIS_CHANNEL", "filedrop:events"),
		LogLevel:      strings.ToLower(getEnv("FILEDROP_LOG_LEVEL", "info")),
		LogFile:       os.Getenv("FILEDROP_LOG_FILE"),
	}

	var err error
	if cfg.Capacity, err = getEnvInt64("FILEDROP_CAPACITY_BYTES", defaultCapacity); err != nil {
		return nil, err
	}
	if cfg.UploadConcurrency, err = getEnvInt("FILEDROP_UPLOAD_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if cfg.MaxUploadBytes, err = getEnvInt64("FILEDROP_MAX_UPLOAD_BYTES", 100*1024*1024); err != nil {
		return nil, err
	}
	if cfg.StrictTypes, err = getEnvBool("FILEDROP_STRICT_TYPES", false); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute, err = getEnvInt("FILEDROP_RATE_LIMIT_PER_MINUTE", 60); err != nil {
		return nil, err
	}
	if cfg.ThumbnailCacheSize, err = getEnvInt("FILEDROP_THUMBNAIL_CACHE", 256); err != nil {
		return nil, err
	}
	if cfg.Dev, err = getEnvBool("FILEDROP_DEV", false); err != nil {
		return nil, err
	}
	if cfg.Tracing, err = getEnvBool("FILEDROP_TRACING", false); err != nil {
		return nil, err
	}
	if cfg.ShutdownTO, err = getEnvDuration("FILEDROP_SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	cfg.APIKeys = splitList(os.Getenv("FILEDROP_API_KEYS"))
	cfg.AllowedOrigins = splitList(getEnv("FILEDROP_ALLOWED_ORIGINS", "*"))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("FILEDROP_DB_DRIVER: unsupported driver %q", c.DBDriver)
	}
	if c.Capacity <= 0 {
		return fmt.Errorf("FILEDROP_CAPACITY_BYTES: must be positive, got %d", c.Capacity)
	}
	if c.UploadConcurrency < 1 {
		return fmt.Errorf("FILEDROP_UPLOAD_CONCURRENCY: must be at least 1, got %d", c.UploadConcurrency)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("FILEDROP_MAX_UPLOAD_BYTES: must be positive, got %d", c.MaxUploadBytes)
	}
	if c.ThumbnailCacheSize < 1 {
		return fmt.Errorf("FILEDROP_THUMBNAIL_CACHE: must be at least 1, got %d", c.ThumbnailCacheSize)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
