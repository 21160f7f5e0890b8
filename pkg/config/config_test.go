package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, time.Hour, cfg.TokensPollInterval)
	assert.Equal(t, time.Hour, cfg.OpportunitiesPollInterval)
	assert.Equal(t, 12*time.Hour, cfg.ExchangeRatesTTL)
	assert.Equal(t, 5*time.Minute, cfg.ChartCacheTTL)
	assert.Equal(t, "USD", cfg.DisplayCurrency)
	assert.Equal(t, "https://open.er-api.com/v6/latest/USD", cfg.ExchangeRatesURL)
	assert.Equal(t, "none", cfg.StorageMode)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Run("api_base_url_trailing_slash_trimmed", func(t *testing.T) {
		t.Setenv("API_BASE_URL", "https://api.example.com/api/")

		cfg, err := LoadFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "https://api.example.com/api", cfg.APIBaseURL)
	})

	t.Run("durations_parsed", func(t *testing.T) {
		t.Setenv("TOKENS_POLL_INTERVAL", "30s")
		t.Setenv("CHART_CACHE_TTL", "1m")

		cfg, err := LoadFromEnv()
		require.NoError(t, err)
		assert.Equal(t, 30*time.Second, cfg.TokensPollInterval)
		assert.Equal(t, time.Minute, cfg.ChartCacheTTL)
	})

	t.Run("invalid_duration_falls_back_to_default", func(t *testing.T) {
		t.Setenv("OPPORTUNITIES_POLL_INTERVAL", "soon")

		cfg, err := LoadFromEnv()
		require.NoError(t, err)
		assert.Equal(t, time.Hour, cfg.OpportunitiesPollInterval)
	})

	t.Run("display_currency_uppercased", func(t *testing.T) {
		t.Setenv("DISPLAY_CURRENCY", "eur")

		cfg, err := LoadFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "EUR", cfg.DisplayCurrency)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			HTTPPort:                  "8080",
			APIBaseURL:                "http://localhost:5000/api",
			APIRateLimitRPS:           5,
			TokensPollInterval:        time.Hour,
			OpportunitiesPollInterval: time.Hour,
			ChartCacheTTL:             5 * time.Minute,
			CacheBackend:              "memory",
			StorageMode:               "console",
			DisplayCurrency:           "USD",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "empty-port", mutate: func(c *Config) { c.HTTPPort = "" }, wantErr: "HTTP_PORT"},
		{name: "empty-base-url", mutate: func(c *Config) { c.APIBaseURL = "" }, wantErr: "API_BASE_URL"},
		{name: "zero-token-interval", mutate: func(c *Config) { c.TokensPollInterval = 0 }, wantErr: "TOKENS_POLL_INTERVAL"},
		{name: "negative-rps", mutate: func(c *Config) { c.APIRateLimitRPS = -1 }, wantErr: "API_RATE_LIMIT_RPS"},
		{name: "bad-cache-backend", mutate: func(c *Config) { c.CacheBackend = "redis" }, wantErr: "CACHE_BACKEND"},
		{name: "unsupported-currency", mutate: func(c *Config) { c.DisplayCurrency = "BTC" }, wantErr: "DISPLAY_CURRENCY"},
		{name: "empty-currency", mutate: func(c *Config) { c.DisplayCurrency = "" }, wantErr: "DISPLAY_CURRENCY"},
		{name: "bad-storage-mode", mutate: func(c *Config) { c.StorageMode = "mongo" }, wantErr: "STORAGE_MODE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("default-level", func(t *testing.T) {
		os.Unsetenv("LOG_LEVEL")

		logger, err := NewLogger()
		require.NoError(t, err)
		assert.NotNil(t, logger)
	})

	t.Run("invalid-level", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "loud")

		_, err := NewLogger()
		assert.Error(t, err)
	})
}

func TestNewLoggerWithLevel(t *testing.T) {
	logger, err := NewLoggerWithLevel("debug")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = NewLoggerWithLevel("")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}

func TestLoadFromEnv_RejectsUnsupportedCurrency(t *testing.T) {
	t.Setenv("DISPLAY_CURRENCY", "xyz")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"XYZ"`)
}
