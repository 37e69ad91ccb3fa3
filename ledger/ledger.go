/*
ledger.go - The ledger store

PURPOSE:
  Owns the authoritative person and transaction collections. All mutations go
  through this type so the cascade invariant holds: no transaction may point
  at a person that is not in the ledger.

LIFECYCLE:
  Unloaded --Load()--> Loaded (terminal)
  Mutations before Load return ErrNotLoaded. Reads before Load see nothing.

PERSISTENCE:
  Every mutation saves both collections before returning. A failed save is
  reported as *SaveError; the in-memory change stands.
  Load never fails hard: unreadable or corrupt data degrades to an empty
  ledger, logs a warning, and the cause is returned for the caller to report.

CONCURRENCY:
  A single RWMutex serializes writers. Save runs under the write lock so a
  mutation is durable (or reported) before the next one starts.

EXAMPLE:
  l := ledger.New(memory.New())
  if err := l.Load(ctx); err != nil {
      slog.Warn("starting with empty ledger", "error", err)
  }
  ali, _ := l.AddPerson(ctx, "Ali")
  l.AddTransaction(ctx, ledger.NewTransaction{
      PersonID: ali.ID, Type: ledger.TxTaken, Amount: ledger.NewAmountFromInt(500),
  })
  view, _ := l.BalanceFor(ali.ID) // view.Balance == 500: I owe Ali 500

SEE ALSO:
  - balance.go: Derivations over Snapshot
  - snapshot.go: Export/Import
  - store.go: KV contract
*/
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// LEDGER
// =============================================================================

type State int

const (
	StateUnloaded State = iota
	StateLoaded
)

func (s State) String() string {
	if s == StateLoaded {
		return "loaded"
	}
	return "unloaded"
}

// Ledger is the store of persons and transactions.
type Ledger struct {
	kv     KV
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
	obs    Observer

	mu           sync.RWMutex
	state        State
	persons      []Person
	transactions []Transaction
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator overrides uuid generation.
func WithIDGenerator(newID func() string) Option {
	return func(l *Ledger) { l.newID = newID }
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

func WithObserver(obs Observer) Option {
	return func(l *Ledger) { l.obs = obs }
}

// New creates an unloaded ledger backed by kv.
func New(kv KV, opts ...Option) *Ledger {
	l := &Ledger{
		kv:     kv,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
		logger: slog.Default(),
		obs:    nopObserver{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State returns the lifecycle state.
func (l *Ledger) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load populates the ledger from the last saved state. Missing keys mean an
// empty ledger. On a read or decode failure the ledger is still loaded, but
// empty, and the cause is returned. Calling Load again is a no-op.
func (l *Ledger) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == StateLoaded {
		return nil
	}
	l.state = StateLoaded

	var persons []Person
	var transactions []Transaction
	err := l.read(ctx, KeyPersons, &persons)
	if err == nil {
		err = l.read(ctx, KeyTransactions, &transactions)
	}
	if err != nil {
		l.persons, l.transactions = nil, nil
		l.logger.Warn("ledger load failed, starting empty", "error", err)
		return err
	}

	l.persons, l.transactions = persons, transactions
	l.logger.Info("ledger loaded",
		"persons", len(persons),
		"transactions", len(transactions),
	)
	return nil
}

func (l *Ledger) read(ctx context.Context, key string, dst any) error {
	raw, ok, err := l.kv.Get(ctx, key)
	if err != nil {
		return &PersistenceError{Op: "get", Key: key, Err: err}
	}
	if !ok {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return &FormatError{Reason: "stored " + key, Err: err}
	}
	return nil
}

// Save writes both collections.
func (l *Ledger) Save(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateLoaded {
		return ErrNotLoaded
	}
	return l.saveLocked(ctx)
}

func (l *Ledger) saveLocked(ctx context.Context) error {
	if err := l.write(ctx, KeyPersons, nonNil(l.persons)); err != nil {
		return err
	}
	return l.write(ctx, KeyTransactions, nonNil(l.transactions))
}

func (l *Ledger) write(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return &PersistenceError{Op: "encode", Key: key, Err: err}
	}
	if err := l.kv.Set(ctx, key, string(data)); err != nil {
		return &PersistenceError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// commitLocked saves after a mutation. The mutation is kept even if saving fails.
func (l *Ledger) commitLocked(ctx context.Context, op string) error {
	l.obs.ObserveMutation(op, len(l.persons), len(l.transactions))
	if err := l.saveLocked(ctx); err != nil {
		l.obs.ObserveSaveFailure(op)
		l.logger.Warn("ledger save failed", "op", op, "error", err)
		return &SaveError{Op: op, Err: err}
	}
	return nil
}

// =============================================================================
// MUTATIONS
// =============================================================================

// AddPerson creates a person named name (trimmed).
func (l *Ledger) AddPerson(ctx context.Context, name string) (Person, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Person{}, ErrEmptyName
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateLoaded {
		return Person{}, ErrNotLoaded
	}

	p := Person{
		ID:        l.newID(),
		Name:      name,
		CreatedAt: l.now().UTC(),
	}
	l.persons = append(l.persons, p)
	l.logger.Debug("person added", "person_id", p.ID)

	return p, l.commitLocked(ctx, "add_person")
}

// DeletePerson removes the person and every transaction referencing it.
// Unknown ids are a no-op.
func (l *Ledger) DeletePerson(ctx context.Context, personID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateLoaded {
		return ErrNotLoaded
	}

	persons := make([]Person, 0, len(l.persons))
	for _, p := range l.persons {
		if p.ID != personID {
			persons = append(persons, p)
		}
	}
	if len(persons) == len(l.persons) {
		return nil
	}

	transactions := make([]Transaction, 0, len(l.transactions))
	for _, tx := range l.transactions {
		if tx.PersonID != personID {
			transactions = append(transactions, tx)
		}
	}
	removed := len(l.transactions) - len(transactions)
	l.persons, l.transactions = persons, transactions
	l.logger.Debug("person deleted", "person_id", personID, "transactions_removed", removed)

	return l.commitLocked(ctx, "delete_person")
}

// AddTransaction records a movement against an existing person.
func (l *Ledger) AddTransaction(ctx context.Context, in NewTransaction) (Transaction, error) {
	if !in.Type.Valid() {
		return Transaction{}, fmt.Errorf("%w: %q", ErrInvalidType, in.Type)
	}
	if err := in.Amount.Validate(); err != nil {
		return Transaction{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateLoaded {
		return Transaction{}, ErrNotLoaded
	}

	now := l.now()
	date, clock := strings.TrimSpace(in.Date), strings.TrimSpace(in.Time)
	if date == "" {
		date = Today(now)
	}
	if clock == "" {
		clock = CurrentTimeOfDay(now)
	}
	if _, err := ParseDate(date); err != nil {
		return Transaction{}, err
	}
	if _, err := ParseTimeOfDay(clock); err != nil {
		return Transaction{}, err
	}
	if !l.hasPersonLocked(in.PersonID) {
		return Transaction{}, &NotFoundError{Kind: KindPerson, ID: in.PersonID}
	}

	tx := Transaction{
		ID:          l.newID(),
		PersonID:    in.PersonID,
		Type:        in.Type,
		Amount:      in.Amount,
		Date:        date,
		Time:        clock,
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   now.UTC(),
	}
	l.transactions = append(l.transactions, tx)
	l.logger.Debug("transaction added",
		"transaction_id", tx.ID,
		"person_id", tx.PersonID,
		"type", tx.Type,
		"amount", tx.Amount.String(),
	)

	return tx, l.commitLocked(ctx, "add_transaction")
}

// DeleteTransaction removes a transaction. Unknown ids are a no-op.
func (l *Ledger) DeleteTransaction(ctx context.Context, transactionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateLoaded {
		return ErrNotLoaded
	}

	idx := -1
	for i, tx := range l.transactions {
		if tx.ID == transactionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	transactions := make([]Transaction, 0, len(l.transactions)-1)
	transactions = append(transactions, l.transactions[:idx]...)
	transactions = append(transactions, l.transactions[idx+1:]...)
	l.transactions = transactions
	l.logger.Debug("transaction deleted", "transaction_id", transactionID)

	return l.commitLocked(ctx, "delete_transaction")
}

func (l *Ledger) hasPersonLocked(id string) bool {
	for _, p := range l.persons {
		if p.ID == id {
			return true
		}
	}
	return false
}

// =============================================================================
// READS
// =============================================================================

// Snapshot returns a copy of both collections.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Snapshot{
		Persons:      append([]Person(nil), l.persons...),
		Transactions: append([]Transaction(nil), l.transactions...),
	}
}

// Person returns the person with the given id.
func (l *Ledger) Person(id string) (Person, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.view().person(id)
}

// BalanceFor computes the balance view of one person.
func (l *Ledger) BalanceFor(personID string) (PersonWithBalance, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return BalanceFor(l.view(), personID)
}

// AllPersonsWithBalance returns every person with balance, sorted by name.
func (l *Ledger) AllPersonsWithBalance() []PersonWithBalance {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return AllPersonsWithBalance(l.view())
}

// TransactionsFor returns a person's transactions, most recent first.
func (l *Ledger) TransactionsFor(personID string) []Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return TransactionsFor(l.view(), personID)
}

// DashboardStats aggregates balances over every person.
func (l *Ledger) DashboardStats() DashboardStats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return DashboardStatsFor(l.view())
}

// view shares the live slices. Only for pure functions under the read lock.
func (l *Ledger) view() Snapshot {
	return Snapshot{Persons: l.persons, Transactions: l.transactions}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
