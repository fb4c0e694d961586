// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
// Values are loaded from environment variables with defaults.
type Config struct {
	// Server
	Port           int
	DBPath         string
	LogLevel       string
	AllowedOrigins []string

	// JWTSecret enables Bearer token authentication. Empty trusts the
	// X-Actor-* headers from an upstream proxy.
	JWTSecret string

	// Payroll
	DefaultPeriodCount    int
	StatusRefreshInterval time.Duration
	FinancialRoles        []string
}

// Load reads .env (when present) and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv reads configuration from environment variables only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:                  getEnvInt("PORT", 8080),
		DBPath:                getEnv("DB_PATH", "./data/payroll.db"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		AllowedOrigins:        getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		DefaultPeriodCount:    getEnvInt("DEFAULT_PERIOD_COUNT", 6),
		StatusRefreshInterval: getEnvDuration("STATUS_REFRESH_INTERVAL", time.Hour),
		FinancialRoles:        getEnvList("FINANCIAL_ROLES", []string{"admin", "payroll"}),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.DefaultPeriodCount < 1 || c.DefaultPeriodCount > 520 {
		return fmt.Errorf("invalid DEFAULT_PERIOD_COUNT %d: must be between 1 and 520", c.DefaultPeriodCount)
	}
	if c.StatusRefreshInterval <= 0 {
		return fmt.Errorf("invalid STATUS_REFRESH_INTERVAL %s", c.StatusRefreshInterval)
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 bytes")
	}
	if len(c.FinancialRoles) == 0 {
		return errors.New("FINANCIAL_ROLES must name at least one role")
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma-separated variable, dropping blanks.
func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
