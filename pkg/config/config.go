package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/arbitrage-pro/dashboard/internal/currency"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string
	StateDir string // Where the session token and rate cache are persisted

	// Backend API
	APIBaseURL        string
	APITimeout        time.Duration
	APIRateLimitRPS   float64
	APIRateLimitBurst int
	AuthEmail         string
	AuthPassword      string

	// Polling
	TokensPollInterval        time.Duration
	OpportunitiesPollInterval time.Duration
	OpportunitiesLimit        int

	// Currency
	ExchangeRatesURL string
	ExchangeRatesTTL time.Duration
	DisplayCurrency  string

	// Charts
	ChartCacheTTL time.Duration
	CacheBackend  string // "ristretto" or "memory"

	// Storage
	StorageMode  string // "console", "postgres" or "none"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),
		StateDir: getEnvOrDefault("STATE_DIR", defaultStateDir()),

		// Backend API defaults
		APIBaseURL:        strings.TrimRight(getEnvOrDefault("API_BASE_URL", "http://localhost:5000/api"), "/"),
		APITimeout:        getDurationOrDefault("API_TIMEOUT", 30*time.Second),
		APIRateLimitRPS:   getFloat64OrDefault("API_RATE_LIMIT_RPS", 5.0),
		APIRateLimitBurst: getIntOrDefault("API_RATE_LIMIT_BURST", 10),
		AuthEmail:         os.Getenv("AUTH_EMAIL"),
		AuthPassword:      os.Getenv("AUTH_PASSWORD"),

		// Polling defaults (hourly, like the dashboard)
		TokensPollInterval:        getDurationOrDefault("TOKENS_POLL_INTERVAL", time.Hour),
		OpportunitiesPollInterval: getDurationOrDefault("OPPORTUNITIES_POLL_INTERVAL", time.Hour),
		OpportunitiesLimit:        getIntOrDefault("OPPORTUNITIES_LIMIT", 100),

		// Currency defaults
		ExchangeRatesURL: getEnvOrDefault("EXCHANGE_RATES_URL", "https://open.er-api.com/v6/latest/USD"),
		ExchangeRatesTTL: getDurationOrDefault("EXCHANGE_RATES_TTL", 12*time.Hour),
		DisplayCurrency:  strings.ToUpper(strings.TrimSpace(getEnvOrDefault("DISPLAY_CURRENCY", "USD"))),

		// Chart defaults
		ChartCacheTTL: getDurationOrDefault("CHART_CACHE_TTL", 5*time.Minute),
		CacheBackend:  getEnvOrDefault("CACHE_BACKEND", "ristretto"),

		// Storage defaults
		StorageMode:  getEnvOrDefault("STORAGE_MODE", "none"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "arbitrage"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "arbitrage"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "arbitrage_pro"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL cannot be empty")
	}

	if c.TokensPollInterval <= 0 {
		return fmt.Errorf("TOKENS_POLL_INTERVAL must be positive, got %v", c.TokensPollInterval)
	}

	if c.OpportunitiesPollInterval <= 0 {
		return fmt.Errorf("OPPORTUNITIES_POLL_INTERVAL must be positive, got %v", c.OpportunitiesPollInterval)
	}

	if c.APIRateLimitRPS <= 0 {
		return fmt.Errorf("API_RATE_LIMIT_RPS must be positive, got %f", c.APIRateLimitRPS)
	}

	if c.ChartCacheTTL <= 0 {
		return fmt.Errorf("CHART_CACHE_TTL must be positive, got %v", c.ChartCacheTTL)
	}

	if c.CacheBackend != "ristretto" && c.CacheBackend != "memory" {
		return fmt.Errorf("CACHE_BACKEND must be 'ristretto' or 'memory', got %q", c.CacheBackend)
	}

	if !currency.IsSupported(c.DisplayCurrency) {
		return fmt.Errorf("DISPLAY_CURRENCY must be one of %s, got %q",
			strings.Join(currency.Supported, ", "), c.DisplayCurrency)
	}

	switch c.StorageMode {
	case "console", "postgres", "none":
	default:
		return fmt.Errorf("STORAGE_MODE must be 'console', 'postgres' or 'none', got %q", c.StorageMode)
	}

	return nil
}

func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".arbitrage-pro"
	}
	return dir + string(os.PathSeparator) + "arbitrage-pro"
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}
