/*
snapshot.go - Export/import of the portable document

PURPOSE:
  Makes a ledger portable. Export captures both collections plus a timestamp;
  Import replaces them from such a document.

DOCUMENT:
  {
    "persons":      [Person...],
    "transactions": [Transaction...],
    "exportedAt":   "2025-03-01T10:00:00Z"
  }
  Unknown fields are ignored.

IMPORT RULES:
  - Not a JSON object                       -> ErrInvalidFormat, no change
  - Neither collection usable               -> ErrInvalidFormat, no change
  - persons usable                          -> persons replaced
  - transactions usable                     -> transactions replaced
  The two replacements are independent. A collection is usable when it is an
  array whose every element decodes into a valid record. When one collection
  is kept, ImportResult carries the reason (PersonsSkipped or
  TransactionsSkipped).

REFERENTIAL INTEGRITY:
  Import does not reject transactions that point at persons missing from the
  resulting ledger. They are counted in ImportResult.Orphans and logged.

ROUND TRIP:
  Import(Export()) reproduces the same collections.
*/
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Document is the portable export format.
type Document struct {
	Persons      []Person      `json:"persons"`
	Transactions []Transaction `json:"transactions"`
	ExportedAt   time.Time     `json:"exportedAt"`
}

// ImportResult describes what an import replaced.
type ImportResult struct {
	PersonsReplaced      bool `json:"personsReplaced"`
	TransactionsReplaced bool `json:"transactionsReplaced"`
	Persons              int  `json:"persons"`
	Transactions         int  `json:"transactions"`
	Orphans              int  `json:"orphans"`

	// Why a collection was kept instead of replaced. Empty when replaced.
	PersonsSkipped      string `json:"personsSkipped,omitempty"`
	TransactionsSkipped string `json:"transactionsSkipped,omitempty"`
}

// =============================================================================
// EXPORT
// =============================================================================

// Export returns a complete copy of the ledger as a document.
func (l *Ledger) Export() Document {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Document{
		Persons:      append([]Person{}, l.persons...),
		Transactions: append([]Transaction{}, l.transactions...),
		ExportedAt:   l.now().UTC(),
	}
}

// WriteExport writes the export document as indented JSON.
func (l *Ledger) WriteExport(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l.Export()); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// ExportFilename is the suggested backup file name for the given day.
func ExportFilename(t time.Time) string {
	return "loan-manager-backup-" + t.Format(DateLayout) + ".json"
}

// =============================================================================
// IMPORT
// =============================================================================

// Import replaces the collections present in data. See the file header for rules.
func (l *Ledger) Import(ctx context.Context, data []byte) (ImportResult, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		l.obs.ObserveImport("invalid")
		return ImportResult{}, &FormatError{Reason: "document is not a JSON object", Err: err}
	}

	persons, personsErr := decodeCollection(raw["persons"], validPerson)
	transactions, txErr := decodeCollection(raw["transactions"], validTransaction)
	if personsErr != nil && txErr != nil {
		l.obs.ObserveImport("invalid")
		return ImportResult{}, &FormatError{
			Reason: "no usable persons or transactions collection",
			Err:    errors.Join(fmt.Errorf("persons: %w", personsErr), fmt.Errorf("transactions: %w", txErr)),
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateLoaded {
		return ImportResult{}, ErrNotLoaded
	}

	result := ImportResult{}
	if personsErr == nil {
		l.persons = persons
		result.PersonsReplaced = true
	} else {
		result.PersonsSkipped = personsErr.Error()
		l.logger.Warn("import kept existing persons", "reason", personsErr)
	}
	if txErr == nil {
		l.transactions = transactions
		result.TransactionsReplaced = true
	} else {
		result.TransactionsSkipped = txErr.Error()
		l.logger.Warn("import kept existing transactions", "reason", txErr)
	}

	result.Persons = len(l.persons)
	result.Transactions = len(l.transactions)
	result.Orphans = l.orphansLocked()
	if result.Orphans > 0 {
		l.logger.Warn("imported transactions reference missing persons", "orphans", result.Orphans)
	}
	l.logger.Info("ledger imported",
		"persons", result.Persons,
		"transactions", result.Transactions,
		"persons_replaced", result.PersonsReplaced,
		"transactions_replaced", result.TransactionsReplaced,
	)
	l.obs.ObserveImport("ok")

	return result, l.commitLocked(ctx, "import")
}

func (l *Ledger) orphansLocked() int {
	known := make(map[string]bool, len(l.persons))
	for _, p := range l.persons {
		known[p.ID] = true
	}
	n := 0
	for _, tx := range l.transactions {
		if !known[tx.PersonID] {
			n++
		}
	}
	return n
}

var errNotArray = errors.New("missing or not an array")

// decodeCollection decodes an array where every element must pass valid.
func decodeCollection[T any](raw json.RawMessage, valid func(T) error) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errNotArray
	}
	items := []T{}
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, err
	}
	for i, item := range items {
		if err := valid(item); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	return items, nil
}

func validPerson(p Person) error {
	if p.ID == "" {
		return errors.New("person without id")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("person %s: %w", p.ID, ErrEmptyName)
	}
	return nil
}

func validTransaction(tx Transaction) error {
	if tx.ID == "" {
		return errors.New("transaction without id")
	}
	if tx.PersonID == "" {
		return fmt.Errorf("transaction %s: missing personId", tx.ID)
	}
	if !tx.Type.Valid() {
		return fmt.Errorf("transaction %s: %w", tx.ID, ErrInvalidType)
	}
	if err := tx.Amount.Validate(); err != nil {
		return fmt.Errorf("transaction %s: %w", tx.ID, err)
	}
	return nil
}
