package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/loan-ledger/config"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "STORE", "SQLITE_PATH", "REDIS_URL", "REDIS_PREFIX", "DATABASE_URL", "LOG_LEVEL", "CURRENCY", "CORS_ORIGINS"} {
		t.Setenv(key, "")
	}
	// An empty variable counts as set, so restore the defaults that matter.
	t.Setenv("PORT", "8080")
	t.Setenv("STORE", "sqlite")
	t.Setenv("SQLITE_PATH", "ledger.db")
	t.Setenv("CURRENCY", "pkr")
	t.Setenv("CORS_ORIGINS", "*")
	t.Setenv("BACKUP_SCHEDULE", "@daily")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, config.StoreSQLite, cfg.Store.Backend)
	assert.Equal(t, "ledger.db", cfg.Store.SQLitePath)
	assert.Equal(t, "PKR", cfg.Currency)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.Backup.Dir)
	assert.Equal(t, "@daily", cfg.Backup.Schedule)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE", "Redis")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("REDIS_PREFIX", "test:")
	t.Setenv("CURRENCY", "usd")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("BACKUP_DIR", "/var/backups/loans")
	t.Setenv("BACKUP_SCHEDULE", "0 3 * * *")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, config.StoreRedis, cfg.Store.Backend)
	assert.Equal(t, "redis://cache:6379/1", cfg.Store.RedisURL)
	assert.Equal(t, "test:", cfg.Store.RedisPrefix)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, "/var/backups/loans", cfg.Backup.Dir)
	assert.Equal(t, "0 3 * * *", cfg.Backup.Schedule)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("port", func(t *testing.T) {
		t.Setenv("PORT", "eighty")
		_, err := config.Load()
		assert.Error(t, err)
	})
	t.Run("backend", func(t *testing.T) {
		t.Setenv("PORT", "8080")
		t.Setenv("STORE", "mongo")
		_, err := config.Load()
		assert.ErrorContains(t, err, "unknown STORE")
	})
	t.Run("postgres without url", func(t *testing.T) {
		t.Setenv("PORT", "8080")
		t.Setenv("STORE", "postgres")
		t.Setenv("DATABASE_URL", "")
		_, err := config.Load()
		assert.ErrorContains(t, err, "DATABASE_URL")
	})
	t.Run("backup schedule", func(t *testing.T) {
		t.Setenv("PORT", "8080")
		t.Setenv("STORE", "memory")
		t.Setenv("BACKUP_SCHEDULE", "daily")
		_, err := config.Load()
		assert.ErrorContains(t, err, "BACKUP_SCHEDULE")
	})
}
