/*
Package redis provides a Redis-backed key-value store for the ledger.

PURPOSE:
  Implements ledger.KV on plain Redis strings. Keys are namespaced with a
  prefix so several ledgers (or other applications) can share one database.

  prefix "loans:" + key "loan_manager_persons" -> "loans:loan_manager_persons"

ABSENT KEYS:
  redis.Nil from GET means the key was never written and is reported as
  ok=false, not as an error.

SEE ALSO:
  - ledger/store.go: KV contract
*/
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"
)

// Store implements ledger.KV using Redis.
type Store struct {
	client *goredis.Client
	prefix string
}

// Open connects to addr, which is either a redis:// URL or host:port,
// and verifies the connection with PING.
func Open(ctx context.Context, addr, prefix string) (*Store, error) {
	opts, err := options(addr)
	if err != nil {
		return nil, err
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return New(client, prefix), nil
}

// New wraps an existing client.
func New(client *goredis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

func options(addr string) (*goredis.Options, error) {
	if strings.Contains(addr, "://") {
		opts, err := goredis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opts, nil
	}
	return &goredis.Options{Addr: addr}, nil
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return v, true, nil
}

// Set replaces the value stored under key. Values never expire.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
