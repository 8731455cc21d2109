package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/xenking/mateicos-storefront/internal/domain/checkout"
)

// Storage backends for cart slots.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds the complete application configuration, loadable from
// environment variables (STOREFRONT_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"HTTP listen address"`
	ImageBaseURL string `default:"" usage:"Prefix for product image paths (e.g. https://cdn.example.com/)" flag:"image-base-url"`
	Storage      StorageConfig
	Session      SessionConfig
	Checkout     checkout.Config
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// StorageConfig selects where carts are persisted.
type StorageConfig struct {
	Backend     string        `default:"memory" usage:"Cart storage backend: memory, redis or postgres"`
	DatabaseURL string        `usage:"PostgreSQL connection URL (STOREFRONT_STORAGE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RedisURL    string        `usage:"Redis connection URL (STOREFRONT_STORAGE_REDIS_URL or REDIS_URL)" flag:"redis-url"`
	RedisPrefix string        `default:"storefront:" usage:"Key prefix for carts stored in Redis"`
	CartTTL     time.Duration `default:"720h" usage:"Expiry of carts stored in Redis"`
	// MemoryQuota limits the bytes held by the memory backend. Zero is unlimited.
	MemoryQuota int `default:"0" usage:"Byte quota for the memory backend"`
}

// SessionConfig controls cart sessions.
type SessionConfig struct {
	TTL          time.Duration `default:"720h" usage:"Lifetime of the session cookie"`
	SecureCookie bool          `default:"false" usage:"Mark the session cookie Secure" flag:"secure-cookie"`
	MaxOpen      int           `default:"10000" usage:"Carts kept open in memory"`
}

// RateLimitConfig controls the per-client token bucket.
type RateLimitConfig struct {
	Rate    float64       `default:"10" usage:"Sustained requests per second per client"`
	Burst   int           `default:"40" usage:"Burst size per client"`
	IdleTTL time.Duration `default:"10m" usage:"How long an idle client bucket is kept"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (session cookie)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STOREFRONT",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected backend has what it needs.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Storage.RedisURL == "" {
			return errors.New("redis URL is required: set STOREFRONT_STORAGE_REDIS_URL or REDIS_URL")
		}
	case BackendPostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("database URL is required: set STOREFRONT_STORAGE_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.RateLimit.Rate <= 0 {
		return errors.Errorf("rate limit must be positive, got %v", c.RateLimit.Rate)
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's STOREFRONT_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.Storage.DatabaseURL == "" {
		c.Storage.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.Storage.RedisURL == "" {
		c.Storage.RedisURL = os.Getenv("REDIS_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
