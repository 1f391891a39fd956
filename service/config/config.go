package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// ConfirmTimeout is the ceiling on a single confirmation wait. The poll
// budget (attempts * interval) must fit inside it.
const ConfirmTimeout = 60 * time.Second

// maxHistoryLimit is the largest page getSignaturesForAddress accepts.
const maxHistoryLimit = 1000

// Config holds all application configuration loaded from environment variables.
// All fields are validated at startup to ensure fail-fast behavior.
type Config struct {
	// Solana configuration
	SolanaRPCURL string
	LogLevel     string

	// Airdrop configuration
	ClaimAmountSOL decimal.Decimal
	ClaimDeadline  *time.Time // nil means the claim window never closes

	// Confirmation polling
	ConfirmMaxAttempts int
	ConfirmInterval    time.Duration
	MaxInflightPolls   int

	// History reads
	HistoryLimit       int
	HistoryConcurrency int

	// Optional integrations; empty disables them.
	NATSURL     string
	MetricsAddr string
}

// Load reads configuration from environment variables and validates all fields.
// Returns an error listing every invalid setting, not just the first.
func Load() (*Config, error) {
	cfg := &Config{}
	var errs []error

	// Solana configuration
	cfg.SolanaRPCURL = getEnvOrDefault("SOLANA_RPC_URL", "https://api.devnet.solana.com")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	// Airdrop configuration
	amount, err := parseDecimal("CLAIM_AMOUNT_SOL", "1")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.ClaimAmountSOL = amount
	}

	if v := os.Getenv("CLAIM_DEADLINE"); v != "" {
		deadline, err := time.Parse(time.RFC3339, v)
		if err != nil {
			errs = append(errs, fmt.Errorf("CLAIM_DEADLINE: invalid RFC3339 time %q: %w", v, err))
		} else {
			cfg.ClaimDeadline = &deadline
		}
	}

	// Confirmation polling
	if cfg.ConfirmMaxAttempts, err = parseInt("CONFIRM_MAX_ATTEMPTS", 30); err != nil {
		errs = append(errs, err)
	}
	if cfg.ConfirmInterval, err = parseDuration("CONFIRM_INTERVAL", "2s"); err != nil {
		errs = append(errs, err)
	}
	if cfg.MaxInflightPolls, err = parseInt("MAX_INFLIGHT_POLLS", 8); err != nil {
		errs = append(errs, err)
	}

	// History reads
	if cfg.HistoryLimit, err = parseInt("HISTORY_LIMIT", 10); err != nil {
		errs = append(errs, err)
	}
	if cfg.HistoryConcurrency, err = parseInt("HISTORY_CONCURRENCY", 4); err != nil {
		errs = append(errs, err)
	}

	// Optional integrations
	cfg.NATSURL = os.Getenv("NATS_URL")
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	// Parse failures leave zero values behind; only range-check a clean parse.
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
// Useful for CLI initialization where misconfiguration should halt startup.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid.
// This is useful for testing configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.SolanaRPCURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("SOLANA_RPC_URL must be an http(s) URL, got %q", c.SolanaRPCURL))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", c.LogLevel))
	}

	if !c.ClaimAmountSOL.IsPositive() {
		errs = append(errs, fmt.Errorf("CLAIM_AMOUNT_SOL must be greater than zero"))
	}
	if !c.ClaimAmountSOL.Equal(c.ClaimAmountSOL.Truncate(9)) {
		errs = append(errs, fmt.Errorf("CLAIM_AMOUNT_SOL has more than 9 decimal places"))
	}

	if c.ConfirmMaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("CONFIRM_MAX_ATTEMPTS must be at least 1"))
	}
	if c.ConfirmInterval < 0 {
		errs = append(errs, fmt.Errorf("CONFIRM_INTERVAL cannot be negative"))
	}
	if budget := time.Duration(c.ConfirmMaxAttempts) * c.ConfirmInterval; budget > ConfirmTimeout {
		errs = append(errs, fmt.Errorf("CONFIRM_MAX_ATTEMPTS * CONFIRM_INTERVAL (%v) cannot exceed the %v confirm timeout",
			budget, ConfirmTimeout))
	}
	if c.MaxInflightPolls < 1 {
		errs = append(errs, fmt.Errorf("MAX_INFLIGHT_POLLS must be at least 1"))
	}

	if c.HistoryLimit < 1 || c.HistoryLimit > maxHistoryLimit {
		errs = append(errs, fmt.Errorf("HISTORY_LIMIT must be between 1 and %d", maxHistoryLimit))
	}
	if c.HistoryConcurrency < 1 {
		errs = append(errs, fmt.Errorf("HISTORY_CONCURRENCY must be at least 1"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable or uses a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return duration, nil
}

// parseInt parses an integer from an environment variable or uses a default.
func parseInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, value, err)
	}
	return result, nil
}

// parseDecimal parses a decimal from an environment variable or uses a default.
func parseDecimal(key, defaultValue string) (decimal.Decimal, error) {
	value := getEnvOrDefault(key, defaultValue)
	result, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: invalid decimal %q: %w", key, value, err)
	}
	return result, nil
}
