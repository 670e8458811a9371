// Package config loads application configuration from environment
// variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sesflow/accesscore/pkg/observability"
	"github.com/sesflow/accesscore/pkg/permcache"
)

// Cache backends.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Config holds all application configuration
type Config struct {
	Server ServerConfig
	Cache  CacheConfig

	// PostgresURL is the authoritative store DSN.
	PostgresURL string

	// LogLevel controls the structured logger.
	LogLevel observability.LogLevel
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// CacheConfig selects and tunes the permission cache backend.
type CacheConfig struct {
	Backend    string
	RedisURL   string
	TTL        time.Duration
	MaxEntries int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("ACCESSD_HOST", "0.0.0.0"),
			Port:            getEnv("ACCESSD_PORT", "8080"),
			ReadTimeout:     getEnvDuration("ACCESSD_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("ACCESSD_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("ACCESSD_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("ACCESSD_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Cache: CacheConfig{
			Backend:    getEnv("ACCESSD_CACHE_BACKEND", CacheBackendMemory),
			RedisURL:   getEnv("ACCESSD_REDIS_URL", ""),
			TTL:        getEnvDuration("ACCESSD_CACHE_TTL", permcache.DefaultTTL),
			MaxEntries: getEnvInt("ACCESSD_CACHE_SIZE", permcache.DefaultMaxEntries),
		},
		PostgresURL: getEnv("ACCESSD_POSTGRES_URL", ""),
		LogLevel:    observability.ParseLevel(getEnv("ACCESSD_LOG_LEVEL", "info")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for inconsistent combinations.
func (c *Config) Validate() error {
	if c.PostgresURL == "" {
		return fmt.Errorf("ACCESSD_POSTGRES_URL is required")
	}
	switch c.Cache.Backend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("ACCESSD_REDIS_URL is required when the cache backend is redis")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
