/*
Package config loads runtime configuration.

SOURCES (later wins):
  1. Defaults below
  2. .env file in the working directory, if present
  3. Process environment
  4. Command-line flags (applied by the caller, see cmd/server)

VARIABLES:
  PORT             HTTP port                           8080
  STORE            memory | sqlite | redis | postgres  sqlite
  SQLITE_PATH      SQLite database file                ledger.db
  REDIS_URL        redis:// URL or host:port           localhost:6379
  REDIS_PREFIX     key prefix for the redis store      loans:
  DATABASE_URL     PostgreSQL connection string        (none)
  LOG_LEVEL        debug | info | warn | error         info
  CURRENCY         ISO 4217 display currency           PKR
  CORS_ORIGINS     comma-separated allowed origins     *
  BACKUP_DIR       directory for scheduled exports     (none, disabled)
  BACKUP_SCHEDULE  cron spec for scheduled exports     @daily
*/
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Backend names accepted in STORE.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

type Config struct {
	Port        int
	Store       StoreConfig
	LogLevel    string
	Currency    string
	CORSOrigins []string
	Backup      BackupConfig
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Backend     string
	SQLitePath  string
	RedisURL    string
	RedisPrefix string
	DatabaseURL string
}

// BackupConfig controls scheduled exports. An empty Dir disables them.
type BackupConfig struct {
	Dir      string
	Schedule string
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load() // Load .env file if present

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	cfg := &Config{
		Port: port,
		Store: StoreConfig{
			Backend:     strings.ToLower(getEnv("STORE", StoreSQLite)),
			SQLitePath:  getEnv("SQLITE_PATH", "ledger.db"),
			RedisURL:    getEnv("REDIS_URL", "localhost:6379"),
			RedisPrefix: getEnv("REDIS_PREFIX", "loans:"),
			DatabaseURL: getEnv("DATABASE_URL", ""),
		},
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Currency:    strings.ToUpper(getEnv("CURRENCY", "PKR")),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
	}

	cfg.Backup = BackupConfig{
		Dir:      getEnv("BACKUP_DIR", ""),
		Schedule: getEnv("BACKUP_SCHEDULE", "@daily"),
	}
	if _, err := cron.ParseStandard(cfg.Backup.Schedule); err != nil {
		return nil, fmt.Errorf("invalid BACKUP_SCHEDULE: %w", err)
	}

	if err := cfg.Store.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected backend has what it needs.
func (c StoreConfig) Validate() error {
	switch c.Backend {
	case StoreMemory:
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis store")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown STORE %q (use memory, sqlite, redis or postgres)", c.Backend)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
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
