package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"agency-ledger/internal/db"
	"agency-ledger/internal/logger"
)

type Config struct {
	DatabaseURL       string
	DBMaxConns        int32
	DBMaxConnLifetime time.Duration
	DBQueryLogLevel   string

	ServerPort     string
	AllowedOrigins []string
	JWTSecret      string

	// Payment gateway. An empty GatewayURL selects the simulated gateway.
	GatewayURL      string
	GatewayAPIKey   string
	GatewayProvider string
	GatewayTimeout  time.Duration

	// Invoice defaults
	DefaultVATRate          decimal.Decimal
	DefaultCurrency         string
	DefaultPaymentTermsDays int

	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load reads the environment. Call godotenv.Load first if a .env file should apply.
func Load() (*Config, error) {
	timeout, err := time.ParseDuration(getEnv("GATEWAY_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid GATEWAY_TIMEOUT: %w", err)
	}
	vat, err := decimal.NewFromString(getEnv("DEFAULT_VAT_RATE", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_VAT_RATE: %w", err)
	}
	terms, err := strconv.Atoi(getEnv("DEFAULT_PAYMENT_TERMS_DAYS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_PAYMENT_TERMS_DAYS: %w", err)
	}
	maxConns, err := strconv.ParseInt(getEnv("DB_MAX_CONNS", "0"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	lifetime, err := time.ParseDuration(getEnv("DB_MAX_CONN_LIFETIME", "0s"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONN_LIFETIME: %w", err)
	}

	config := &Config{
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		DBMaxConns:              int32(maxConns),
		DBMaxConnLifetime:       lifetime,
		DBQueryLogLevel:         getEnv("DB_QUERY_LOG_LEVEL", "none"),
		ServerPort:              getEnv("SERVER_PORT", "8080"),
		AllowedOrigins:          splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		GatewayURL:              getEnv("GATEWAY_URL", ""),
		GatewayAPIKey:           getEnv("GATEWAY_API_KEY", ""),
		GatewayProvider:         getEnv("GATEWAY_PROVIDER", "simulated"),
		GatewayTimeout:          timeout,
		DefaultVATRate:          vat,
		DefaultCurrency:         getEnv("DEFAULT_CURRENCY", "AED"),
		DefaultPaymentTermsDays: terms,
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFormat:               getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:           getEnv("LOG_TIME_FORMAT", time.RFC3339),
		LogOutput:               getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.DefaultVATRate.IsNegative() {
		return fmt.Errorf("DEFAULT_VAT_RATE cannot be negative")
	}
	if c.DefaultPaymentTermsDays < 0 {
		return fmt.Errorf("DEFAULT_PAYMENT_TERMS_DAYS cannot be negative")
	}
	if c.DBMaxConns < 0 {
		return fmt.Errorf("DB_MAX_CONNS cannot be negative")
	}
	if c.GatewayTimeout <= 0 {
		return fmt.Errorf("GATEWAY_TIMEOUT must be positive")
	}
	return nil
}

// RequireDatabase checks the settings every ledger command needs.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

// RequireServer checks the settings the HTTP server needs.
func (c *Config) RequireServer() error {
	if err := c.RequireDatabase(); err != nil {
		return err
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

// PoolOptions returns the database pool settings. Query tracing logs through log.
func (c *Config) PoolOptions(log zerolog.Logger) db.PoolOptions {
	return db.PoolOptions{
		MaxConns:        c.DBMaxConns,
		MaxConnLifetime: c.DBMaxConnLifetime,
		QueryLogLevel:   c.DBQueryLogLevel,
		Log:             log,
	}
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
