/*
store.go - Persistence collaborator contract

PURPOSE:
  The ledger persists through a minimal key-value contract. Any backend that
  can get and set a string by key can hold a ledger: in-memory, SQLite, Redis,
  PostgreSQL.

KEYS:
  Two fixed logical keys, each holding a JSON-encoded array:
    loan_manager_persons       []Person
    loan_manager_transactions  []Transaction

IMPLEMENTATIONS:
  - store/memory:   map guarded by RWMutex (tests, dev)
  - store/sqlite:   kv table, WAL mode
  - store/redis:    prefixed string keys
  - store/postgres: kv table via pgx pool

SEE ALSO:
  - ledger.go: Load/Save use this contract
  - store/store.go: Backend selection from configuration
*/
package ledger

import "context"

const (
	KeyPersons      = "loan_manager_persons"
	KeyTransactions = "loan_manager_transactions"
)

// KV is the persistence collaborator.
type KV interface {
	// Get returns the stored value. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
}

// Observer receives ledger events. The metrics package implements it.
type Observer interface {
	ObserveMutation(op string, persons, transactions int)
	ObserveSaveFailure(op string)
	ObserveImport(outcome string)
}

type nopObserver struct{}

func (nopObserver) ObserveMutation(string, int, int) {}
func (nopObserver) ObserveSaveFailure(string)        {}
func (nopObserver) ObserveImport(string)             {}
