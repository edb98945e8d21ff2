// Package config handles configuration loading for the user service.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/crypto/bcrypt"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// MinJWTSecretLength is the minimum accepted HMAC secret length in bytes.
const MinJWTSecretLength = 32

// Config holds all configuration for the user service.
type Config struct {
	Port        string `envconfig:"PORT" default:"8084"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	ServiceName string `envconfig:"SERVICE_NAME" default:"user-service"`
	ServiceID   string `envconfig:"SERVICE_ID" default:"user-service-001"`
	ServiceHost string `envconfig:"SERVICE_HOST" default:"user-service"`

	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"postgres"`
	DBHost        string `envconfig:"DB_HOST" default:"localhost"`
	DBPort        string `envconfig:"DB_PORT" default:"5432"`
	DBUser        string `envconfig:"DB_USER" default:"postgres"`
	DBPassword    string `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName        string `envconfig:"DB_NAME" default:"user_service"`
	DBSSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     string `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	RegistryEnabled bool          `envconfig:"REGISTRY_ENABLED" default:"true"`
	RegistryTTL     time.Duration `envconfig:"REGISTRY_TTL" default:"30s"`

	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	JWTExpiry time.Duration `envconfig:"JWT_EXPIRY" default:"24h"`

	BcryptCost         int  `envconfig:"BCRYPT_COST" default:"10"`
	EmailCaseSensitive bool `envconfig:"EMAIL_CASE_SENSITIVE" default:"false"`

	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
	SwaggerHost    string   `envconfig:"SWAGGER_HOST"`

	HealthMaxHeapMB     uint64  `envconfig:"HEALTH_MAX_HEAP_MB" default:"150"`
	HealthMaxRSSMB      uint64  `envconfig:"HEALTH_MAX_RSS_MB" default:"300"`
	HealthDiskPath      string  `envconfig:"HEALTH_DISK_PATH" default:"/"`
	HealthDiskThreshold float64 `envconfig:"HEALTH_DISK_THRESHOLD" default:"0.9"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogDev   bool   `envconfig:"LOG_DEV" default:"false"`

	HTTPReadTimeout  time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	HTTPWriteTimeout time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"15s"`
	ShutdownTimeout  time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load reads an optional .env file and then configuration from environment variables.
func Load() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot express as tags.
func (c *Config) Validate() error {
	if len(c.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", MinJWTSecretLength)
	}
	if c.JWTExpiry <= 0 {
		return errors.New("JWT_EXPIRY must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	switch c.StorageDriver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.RegistryEnabled && c.RegistryTTL < 2*time.Second {
		return errors.New("REGISTRY_TTL must be at least 2s")
	}
	for _, origin := range c.AllowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("ALLOWED_ORIGINS entry %q must be * or start with http:// or https://", origin)
		}
	}
	if c.HealthDiskThreshold <= 0 || c.HealthDiskThreshold > 1 {
		return errors.New("HEALTH_DISK_THRESHOLD must be in (0, 1]")
	}
	return nil
}

// IsProduction returns true when the service runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.Environment == "production"
}

// RedisAddr returns the host:port address of the Redis server.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}
