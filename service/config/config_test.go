package config

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	defer cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "https://api.devnet.solana.com", cfg.SolanaRPCURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.ClaimAmountSOL.Equal(decimal.NewFromInt(1)))
	assert.Nil(t, cfg.ClaimDeadline)
	assert.Equal(t, 30, cfg.ConfirmMaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.ConfirmInterval)
	assert.Equal(t, 8, cfg.MaxInflightPolls)
	assert.Equal(t, 10, cfg.HistoryLimit)
	assert.Equal(t, 4, cfg.HistoryConcurrency)
	assert.Empty(t, cfg.NATSURL)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestLoad_CustomValues(t *testing.T) {
	os.Setenv("SOLANA_RPC_URL", "http://localhost:8899")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("CLAIM_AMOUNT_SOL", "0.5")
	os.Setenv("CLAIM_DEADLINE", "2025-06-30T23:59:59Z")
	os.Setenv("CONFIRM_MAX_ATTEMPTS", "10")
	os.Setenv("CONFIRM_INTERVAL", "500ms")
	os.Setenv("MAX_INFLIGHT_POLLS", "2")
	os.Setenv("HISTORY_LIMIT", "25")
	os.Setenv("HISTORY_CONCURRENCY", "1")
	os.Setenv("NATS_URL", "nats://nats.example.com:4222")
	os.Setenv("METRICS_ADDR", ":9090")
	defer cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8899", cfg.SolanaRPCURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "0.5", cfg.ClaimAmountSOL.String())
	require.NotNil(t, cfg.ClaimDeadline)
	assert.True(t, cfg.ClaimDeadline.Equal(time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC)))
	assert.Equal(t, 10, cfg.ConfirmMaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.ConfirmInterval)
	assert.Equal(t, 2, cfg.MaxInflightPolls)
	assert.Equal(t, 25, cfg.HistoryLimit)
	assert.Equal(t, 1, cfg.HistoryConcurrency)
	assert.Equal(t, "nats://nats.example.com:4222", cfg.NATSURL)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
}

func TestLoad_ParseErrorsAreCollected(t *testing.T) {
	os.Setenv("CONFIRM_INTERVAL", "invalid")
	os.Setenv("CONFIRM_MAX_ATTEMPTS", "many")
	os.Setenv("CLAIM_AMOUNT_SOL", "one")
	os.Setenv("CLAIM_DEADLINE", "tomorrow")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid duration")
	assert.Contains(t, err.Error(), "invalid integer")
	assert.Contains(t, err.Error(), "invalid decimal")
	assert.Contains(t, err.Error(), "invalid RFC3339 time")
}

func TestLoad_PollBudgetExceedsTimeout(t *testing.T) {
	os.Setenv("CONFIRM_MAX_ATTEMPTS", "31")
	os.Setenv("CONFIRM_INTERVAL", "2s")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "cannot exceed")
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	os.Setenv("LOG_LEVEL", "verbose")
	defer cleanupEnv()

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}

func validConfig() *Config {
	return &Config{
		SolanaRPCURL:       "https://api.devnet.solana.com",
		LogLevel:           "info",
		ClaimAmountSOL:     decimal.NewFromInt(1),
		ConfirmMaxAttempts: 30,
		ConfirmInterval:    2 * time.Second,
		MaxInflightPolls:   8,
		HistoryLimit:       10,
		HistoryConcurrency: 4,
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"ws scheme", func(c *Config) { c.SolanaRPCURL = "wss://api.devnet.solana.com" }, "SOLANA_RPC_URL"},
		{"missing host", func(c *Config) { c.SolanaRPCURL = "https://" }, "SOLANA_RPC_URL"},
		{"zero claim", func(c *Config) { c.ClaimAmountSOL = decimal.Zero }, "greater than zero"},
		{"negative claim", func(c *Config) { c.ClaimAmountSOL = decimal.NewFromInt(-1) }, "greater than zero"},
		{"sub-lamport claim", func(c *Config) { c.ClaimAmountSOL = decimal.RequireFromString("0.0000000001") }, "9 decimal places"},
		{"zero attempts", func(c *Config) { c.ConfirmMaxAttempts = 0 }, "CONFIRM_MAX_ATTEMPTS"},
		{"negative interval", func(c *Config) { c.ConfirmInterval = -time.Second }, "cannot be negative"},
		{"zero inflight", func(c *Config) { c.MaxInflightPolls = 0 }, "MAX_INFLIGHT_POLLS"},
		{"history too large", func(c *Config) { c.HistoryLimit = 1001 }, "HISTORY_LIMIT"},
		{"history zero", func(c *Config) { c.HistoryLimit = 0 }, "HISTORY_LIMIT"},
		{"zero concurrency", func(c *Config) { c.HistoryConcurrency = 0 }, "HISTORY_CONCURRENCY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_BudgetAtTimeoutIsAllowed(t *testing.T) {
	cfg := validConfig()
	cfg.ConfirmMaxAttempts = 60
	cfg.ConfirmInterval = time.Second
	assert.NoError(t, cfg.Validate())
}

func TestMustLoad_Panics(t *testing.T) {
	os.Setenv("HISTORY_LIMIT", "0")
	defer cleanupEnv()

	assert.Panics(t, func() {
		MustLoad()
	})
}

func TestMustLoad_Success(t *testing.T) {
	defer cleanupEnv()

	assert.NotPanics(t, func() {
		cfg := MustLoad()
		assert.NotNil(t, cfg)
	})
}

// cleanupEnv clears all environment variables used in tests
func cleanupEnv() {
	for _, key := range []string{
		"SOLANA_RPC_URL",
		"LOG_LEVEL",
		"CLAIM_AMOUNT_SOL",
		"CLAIM_DEADLINE",
		"CONFIRM_MAX_ATTEMPTS",
		"CONFIRM_INTERVAL",
		"MAX_INFLIGHT_POLLS",
		"HISTORY_LIMIT",
		"HISTORY_CONCURRENCY",
		"NATS_URL",
		"METRICS_ADDR",
	} {
		os.Unsetenv(key)
	}
}
