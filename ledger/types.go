/*
Package ledger provides the loan ledger engine.

PURPOSE:
  Tracks informal loans between the user ("me") and a set of counterparties
  ("persons"). Every money movement is an immutable Transaction tagged Given
  or Taken. Balances and dashboard statistics are always derived from the
  transaction log, never stored.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A positive monetary quantity backed by decimal.Decimal
  - TransactionType: Given (I gave money) or Taken (I borrowed money)
  - Person / Transaction: The two persisted record shapes
  - PersonWithBalance / DashboardStats: Derived, never persisted

SIGN CONVENTION:
  balance = totalTaken - totalGiven
    positive -> I owe them
    negative -> they owe me
    zero     -> settled

WIRE FORMAT:
  Field names are camelCase and amounts are bare JSON numbers so that backups
  produced by earlier versions of the app import unchanged.

SEE ALSO:
  - ledger.go: Ledger store (mutations, load/save)
  - balance.go: Balance engine (pure derivations)
  - snapshot.go: Export/import of the portable document
*/
package ledger

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Monetary quantity
// =============================================================================

// Amount is a monetary value. It marshals as a bare JSON number.
type Amount struct {
	Value decimal.Decimal
}

func NewAmount(value float64) Amount      { return Amount{Value: decimal.NewFromFloat(value)} }
func NewAmountFromInt(value int64) Amount { return Amount{Value: decimal.NewFromInt(value)} }
func ZeroAmount() Amount                  { return Amount{Value: decimal.Zero} }

// ParseAmount parses a decimal string such as "250" or "99.50".
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Amount{Value: d}, nil
}

func (a Amount) Add(b Amount) Amount       { return Amount{Value: a.Value.Add(b.Value)} }
func (a Amount) Sub(b Amount) Amount       { return Amount{Value: a.Value.Sub(b.Value)} }
func (a Amount) Abs() Amount               { return Amount{Value: a.Value.Abs()} }
func (a Amount) IsZero() bool              { return a.Value.IsZero() }
func (a Amount) IsPositive() bool          { return a.Value.IsPositive() }
func (a Amount) IsNegative() bool          { return a.Value.IsNegative() }
func (a Amount) Equal(b Amount) bool       { return a.Value.Equal(b.Value) }
func (a Amount) GreaterThan(b Amount) bool { return a.Value.GreaterThan(b.Value) }
func (a Amount) String() string            { return a.Value.String() }

// MaxAmount is the largest amount a single transaction may carry.
var MaxAmount = NewAmountFromInt(1_000_000_000_000)

// Validate checks that a is usable as a transaction amount: greater than
// zero and not above MaxAmount.
func (a Amount) Validate() error {
	if !a.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrInvalidAmount, a)
	}
	if a.GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: %s exceeds maximum %s", ErrInvalidAmount, a, MaxAmount)
	}
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Value.String()), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	return a.Value.UnmarshalJSON(data)
}

// =============================================================================
// TRANSACTION TYPE
// =============================================================================

type TransactionType string

const (
	TxGiven TransactionType = "given" // I transferred money to the person
	TxTaken TransactionType = "taken" // I received/borrowed money from the person
)

// ParseTransactionType accepts "given" or "taken", case-insensitively.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return t, nil
}

func (t TransactionType) Valid() bool {
	return t == TxGiven || t == TxTaken
}

// Label is the user-facing name of the movement.
func (t TransactionType) Label() string {
	if t == TxTaken {
		return "Borrowed"
	}
	return "Given"
}

func (t *TransactionType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidType, data)
	}
	parsed, err := ParseTransactionType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// =============================================================================
// RECORDS
// =============================================================================

// Person is a counterparty. Names are not unique.
type Person struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Transaction is a single dated money movement. Never mutated after creation.
// Date and Time are when the movement happened, CreatedAt is when it was recorded.
type Transaction struct {
	ID          string          `json:"id"`
	PersonID    string          `json:"personId"`
	Type        TransactionType `json:"type"`
	Amount      Amount          `json:"amount"`
	Date        string          `json:"date"`
	Time        string          `json:"time"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// OccurredAt combines Date and Time. Unparseable values yield the zero time.
func (t Transaction) OccurredAt() time.Time {
	return occurredAt(t.Date, t.Time)
}

// NewTransaction carries the caller's input for Ledger.AddTransaction.
// Empty Date/Time default to the current day and minute.
type NewTransaction struct {
	PersonID    string
	Type        TransactionType
	Amount      Amount
	Date        string
	Time        string
	Description string
}

// =============================================================================
// DERIVED VIEWS - Never persisted
// =============================================================================

// PersonWithBalance is a Person with totals computed from its transactions.
type PersonWithBalance struct {
	Person
	TotalGiven       Amount `json:"totalGiven"`
	TotalTaken       Amount `json:"totalTaken"`
	Balance          Amount `json:"balance"` // positive = I owe them, negative = they owe me
	TransactionCount int    `json:"transactionCount"`
}

// IOwe reports whether the user owes this person money.
func (p PersonWithBalance) IOwe() bool { return p.Balance.IsPositive() }

// OwesMe reports whether this person owes the user money.
func (p PersonWithBalance) OwesMe() bool { return p.Balance.IsNegative() }

// Settled reports a zero balance.
func (p PersonWithBalance) Settled() bool { return p.Balance.IsZero() }

// DashboardStats aggregates balances across every person.
type DashboardStats struct {
	TotalPeople   int    `json:"totalPeople"`
	TotalOwedToMe Amount `json:"totalOwedToMe"`
	TotalIOweThem Amount `json:"totalIOweThem"`
}

// Net is TotalOwedToMe - TotalIOweThem. Positive means others owe the user overall.
func (s DashboardStats) Net() Amount {
	return s.TotalOwedToMe.Sub(s.TotalIOweThem)
}

// Snapshot is an explicit view of both collections, the input of the balance engine.
type Snapshot struct {
	Persons      []Person
	Transactions []Transaction
}

func (s Snapshot) person(id string) (Person, bool) {
	for _, p := range s.Persons {
		if p.ID == id {
			return p, true
		}
	}
	return Person{}, false
}
