package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	CacheBackendRedis  = "redis"
	CacheBackendMemory = "memory"
)

type Config struct {
	ServerPort  string
	DatabaseURL string
	LogLevel    string

	CacheBackend         string
	RedisAddr            string
	RedisPass            string
	RedisDB              int
	CacheTTL             time.Duration
	StrictFilterEviction bool

	WarmCacheOnStart bool
	WorkerCount      int
}

func Load() *Config {
	return &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "sqlite://taskflow.db"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		CacheBackend:         strings.ToLower(getEnv("CACHE_BACKEND", CacheBackendRedis)),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:            getEnv("REDIS_PASSWORD", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		CacheTTL:             getEnvDuration("CACHE_TTL", 10*time.Minute),
		StrictFilterEviction: getEnvBool("CACHE_STRICT_EVICTION", true),

		WarmCacheOnStart: getEnvBool("CACHE_WARM_ON_START", false),
		WorkerCount:      getEnvInt("WORKER_COUNT", 3),
	}
}

func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	switch c.CacheBackend {
	case CacheBackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when CACHE_BACKEND=redis")
		}
	case CacheBackendMemory:
	default:
		return fmt.Errorf("CACHE_BACKEND must be %q or %q, got %q", CacheBackendRedis, CacheBackendMemory, c.CacheBackend)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be > 0")
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("WORKER_COUNT must be >= 1")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
