/*
Package store selects a ledger.KV backend from configuration.

BACKENDS:
  memory    store/memory    nothing persists across restarts
  sqlite    store/sqlite    single file, WAL mode
  redis     store/redis     prefixed string keys
  postgres  store/postgres  kv table on a pgx pool

USAGE:
  kv, err := store.Open(ctx, cfg.Store)
  if err != nil {
      log.Fatal(err)
  }
  defer kv.Close()
  l := ledger.New(kv)
*/
package store

import (
	"context"
	"fmt"

	"github.com/warp/loan-ledger/config"
	"github.com/warp/loan-ledger/ledger"
	"github.com/warp/loan-ledger/store/memory"
	"github.com/warp/loan-ledger/store/postgres"
	"github.com/warp/loan-ledger/store/redis"
	"github.com/warp/loan-ledger/store/sqlite"
)

// Backend is a KV that holds resources until closed. Ping reports whether
// the underlying database still answers.
type Backend interface {
	ledger.KV
	Ping(ctx context.Context) error
	Close() error
}

// Open connects to the backend named in cfg.
func Open(ctx context.Context, cfg config.StoreConfig) (Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		backend Backend
		err     error
	)
	switch cfg.Backend {
	case config.StoreMemory:
		backend = memory.New()
	case config.StoreSQLite:
		backend, err = openSQLite(cfg.SQLitePath)
	case config.StoreRedis:
		backend, err = openRedis(ctx, cfg.RedisURL, cfg.RedisPrefix)
	case config.StorePostgres:
		backend, err = openPostgres(ctx, cfg.DatabaseURL)
	default:
		err = fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Backend, err)
	}
	return backend, nil
}

// The helpers below keep a failed open from returning a typed nil Backend.

func openSQLite(path string) (Backend, error) {
	s, err := sqlite.New(path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openRedis(ctx context.Context, addr, prefix string) (Backend, error) {
	s, err := redis.Open(ctx, addr, prefix)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openPostgres(ctx context.Context, url string) (Backend, error) {
	s, err := postgres.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	return s, nil
}
