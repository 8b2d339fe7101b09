package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all service configuration
type Config struct {
	Service   ServiceConfig
	Ledger    LedgerConfig
	Cache     CacheConfig
	Store     StoreConfig
	Chain     ChainConfig
	Telemetry TelemetryConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
}

// LedgerConfig holds ledger backend settings
type LedgerConfig struct {
	Backend string // "memory" for local development, "http" for a real ledger node
	URL     string
	Timeout time.Duration
}

// CacheConfig holds head-pointer cache settings
type CacheConfig struct {
	Backend    string // "memory" or "redis"
	RedisAddr  string
	DefaultTTL time.Duration
}

// StoreConfig holds embedded key-value store settings
type StoreConfig struct {
	DataDir string
}

// ChainConfig holds commit-protocol settings
type ChainConfig struct {
	MaxCommitRetries int
}

// TelemetryConfig holds observability settings
type TelemetryConfig struct {
	EnablePprof bool
	PprofPort   int
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        getEnvInt("PORT", 3000),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"),
		},
		Ledger: LedgerConfig{
			Backend: getEnv("LEDGER_BACKEND", "memory"),
			URL:     getEnv("LEDGER_URL", "http://localhost:9984/api/v1"),
			Timeout: getEnvDuration("LEDGER_TIMEOUT", 10*time.Second),
		},
		Cache: CacheConfig{
			Backend:    getEnv("CACHE_BACKEND", "memory"),
			RedisAddr:  getEnv("REDIS_ADDR", "localhost:6379"),
			DefaultTTL: getEnvDuration("CACHE_DEFAULT_TTL", 1*time.Hour),
		},
		Store: StoreConfig{
			DataDir: getEnv("DATA_DIR", "./data"),
		},
		Chain: ChainConfig{
			MaxCommitRetries: getEnvInt("CHAIN_MAX_COMMIT_RETRIES", 3),
		},
		Telemetry: TelemetryConfig{
			EnablePprof: getEnvBool("ENABLE_PPROF", false),
			PprofPort:   getEnvInt("PPROF_PORT", 6060),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	switch c.Ledger.Backend {
	case "memory", "http":
	default:
		return fmt.Errorf("unknown ledger backend: %s", c.Ledger.Backend)
	}

	if c.Ledger.Backend == "http" && c.Ledger.URL == "" {
		return fmt.Errorf("ledger URL is required for http backend")
	}

	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown cache backend: %s", c.Cache.Backend)
	}

	if c.Chain.MaxCommitRetries < 1 {
		return fmt.Errorf("max commit retries must be >= 1")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
