package config_test

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/periodclose/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PERIOD_LOCKED_UNTIL", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.DatabaseURL)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, []string{"627", "641", "642"}, cfg.AllocationTargetAccounts)
	assert.Equal(t, "242", cfg.PrepaidSourceAccount)
	assert.Equal(t, 5*time.Minute, cfg.ChartCacheTTL)
	assert.Equal(t, "redis", cfg.OutboxSink)
	assert.Equal(t, "periodclose:events", cfg.OutboxStream)
	assert.Equal(t, 5*time.Second, cfg.DatabaseLockTimeout)
	assert.False(t, cfg.TrustProxyHeaders)

	lockedUntil, err := cfg.LockedUntil()
	require.NoError(t, err)
	assert.True(t, lockedUntil.IsZero())

	iso, err := cfg.TxIsoLevel()
	require.NoError(t, err)
	assert.Equal(t, pgx.RepeatableRead, iso)

	fx := cfg.FxAccounts()
	assert.Equal(t, "4131", fx.Clearing)
	assert.Equal(t, "515", fx.Gain)
	assert.Equal(t, "635", fx.Loss)

	closing := cfg.ClosingAccounts()
	assert.Equal(t, "911", closing.IncomeSummary)
	assert.Equal(t, "4212", closing.RetainedEarnings)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("DATABASE_ISOLATION", "serializable")
	t.Setenv("PERIOD_LOCKED_UNTIL", "2025-02-28")
	t.Setenv("ALLOCATION_TARGET_ACCOUNTS", "641,642")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://example", cfg.DatabaseURL)
	assert.Equal(t, "redis://example", cfg.RedisURL)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 45*time.Second, cfg.DatabaseTimeout)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, []string{"641", "642"}, cfg.Allocation().TargetAccounts)

	iso, err := cfg.TxIsoLevel()
	require.NoError(t, err)
	assert.Equal(t, pgx.Serializable, iso)

	lockedUntil, err := cfg.LockedUntil()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), lockedUntil)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "duration", key: "HTTP_READ_TIMEOUT", value: "not-a-duration"},
		{name: "lock date", key: "PERIOD_LOCKED_UNTIL", value: "31/03/2025"},
		{name: "isolation", key: "DATABASE_ISOLATION", value: "chaos"},
		{name: "outbox sink", key: "OUTBOX_SINK", value: "kafka"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}
