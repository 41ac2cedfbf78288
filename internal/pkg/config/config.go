// Package config loads process configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr string
	LogLevel string

	// CatalogBaseURL points at the public fake-store API by default.
	CatalogBaseURL string

	// DBPath is the local SQLite file holding the cart and session records.
	DBPath string

	// RedisAddr enables catalog response caching when non-empty.
	RedisAddr string
	CacheTTL  time.Duration

	// SeedCartID is the remote cart fetched on first use when the local
	// store is empty. 0 disables seeding.
	SeedCartID int64
}

func Load() Config {
	return Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		CatalogBaseURL: getEnv("CATALOG_BASE_URL", ""),
		DBPath:         getEnv("DB_PATH", "./data/storefront.db"),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		CacheTTL:       getEnvDuration("CACHE_TTL", time.Minute),
		SeedCartID:     getEnvInt64("SEED_CART_ID", 1),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
