package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/config"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_PATH", "LOG_LEVEL", "ALLOWED_ORIGINS", "DEFAULT_PERIOD_COUNT", "STATUS_REFRESH_INTERVAL", "FINANCIAL_ROLES", "JWT_SECRET"} {
		t.Setenv(k, "")
	}

	cfg, err := config.FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 6, cfg.DefaultPeriodCount)
	assert.Equal(t, time.Hour, cfg.StatusRefreshInterval)
	assert.Equal(t, []string{"admin", "payroll"}, cfg.FinancialRoles)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_PATH", ":memory:")
	t.Setenv("STATUS_REFRESH_INTERVAL", "5m")
	t.Setenv("FINANCIAL_ROLES", " owner , ,payroll")
	t.Setenv("DEFAULT_PERIOD_COUNT", "12")

	cfg, err := config.FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, ":memory:", cfg.DBPath)
	assert.Equal(t, 5*time.Minute, cfg.StatusRefreshInterval)
	assert.Equal(t, []string{"owner", "payroll"}, cfg.FinancialRoles)
	assert.Equal(t, 12, cfg.DefaultPeriodCount)
}

func TestFromEnv_RejectsOutOfRangePeriodCount(t *testing.T) {
	t.Setenv("DEFAULT_PERIOD_COUNT", "600")

	_, err := config.FromEnv()
	assert.ErrorContains(t, err, "DEFAULT_PERIOD_COUNT")
}

func TestFromEnv_RejectsShortJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "too-short")

	_, err := config.FromEnv()
	assert.ErrorContains(t, err, "JWT_SECRET")
}
