/*
balance.go - Balance engine

PURPOSE:
  Pure derivations over a Snapshot. Nothing here mutates its input or keeps
  state, so the same snapshot always yields the same result.

FORMULAS:
  totalGiven  = sum(amount) over Given transactions of the person
  totalTaken  = sum(amount) over Taken transactions of the person
  balance     = totalTaken - totalGiven
  owedToMe    = sum(|balance|) over persons with balance < 0
  iOweThem    = sum(balance)   over persons with balance > 0

ORDERING:
  Persons:      locale-aware collation on name, ties keep insertion order.
  Transactions: (date, time) descending, then createdAt descending, then id.
*/
package ledger

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// =============================================================================
// PER-PERSON BALANCE
// =============================================================================

// BalanceFor computes the totals of one person.
func BalanceFor(s Snapshot, personID string) (PersonWithBalance, error) {
	p, ok := s.person(personID)
	if !ok {
		return PersonWithBalance{}, &NotFoundError{Kind: KindPerson, ID: personID}
	}
	t := tally{}
	for _, tx := range s.Transactions {
		if tx.PersonID == personID {
			t.add(tx)
		}
	}
	return t.of(p), nil
}

// AllPersonsWithBalance returns one entry per person, ordered by name.
func AllPersonsWithBalance(s Snapshot) []PersonWithBalance {
	totals := make(map[string]*tally, len(s.Persons))
	for _, tx := range s.Transactions {
		t, ok := totals[tx.PersonID]
		if !ok {
			t = &tally{}
			totals[tx.PersonID] = t
		}
		t.add(tx)
	}

	out := make([]PersonWithBalance, 0, len(s.Persons))
	for _, p := range s.Persons {
		t := totals[p.ID]
		if t == nil {
			t = &tally{}
		}
		out = append(out, t.of(p))
	}
	sortByName(out)
	return out
}

// TransactionsFor returns the person's transactions, most recent first.
func TransactionsFor(s Snapshot, personID string) []Transaction {
	out := make([]Transaction, 0)
	for _, tx := range s.Transactions {
		if tx.PersonID == personID {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return mostRecentFirst(out[i], out[j])
	})
	return out
}

// =============================================================================
// DASHBOARD
// =============================================================================

// DashboardStatsFor aggregates balances across every person.
// Settled persons contribute to neither sum.
func DashboardStatsFor(s Snapshot) DashboardStats {
	stats := DashboardStats{
		TotalPeople:   len(s.Persons),
		TotalOwedToMe: ZeroAmount(),
		TotalIOweThem: ZeroAmount(),
	}
	for _, p := range AllPersonsWithBalance(s) {
		switch {
		case p.Balance.IsPositive():
			stats.TotalIOweThem = stats.TotalIOweThem.Add(p.Balance)
		case p.Balance.IsNegative():
			stats.TotalOwedToMe = stats.TotalOwedToMe.Add(p.Balance.Abs())
		}
	}
	return stats
}

// =============================================================================
// HELPERS
// =============================================================================

type tally struct {
	given Amount
	taken Amount
	count int
}

func (t *tally) add(tx Transaction) {
	t.count++
	switch tx.Type {
	case TxGiven:
		t.given = t.given.Add(tx.Amount)
	case TxTaken:
		t.taken = t.taken.Add(tx.Amount)
	}
}

func (t *tally) of(p Person) PersonWithBalance {
	return PersonWithBalance{
		Person:           p,
		TotalGiven:       t.given,
		TotalTaken:       t.taken,
		Balance:          t.taken.Sub(t.given),
		TransactionCount: t.count,
	}
}

// sortByName orders by collation of the root locale. A Collator is not safe
// for concurrent use, so each call builds its own.
func sortByName(ps []PersonWithBalance) {
	c := collate.New(language.Und)
	sort.SliceStable(ps, func(i, j int) bool {
		return c.CompareString(ps[i].Name, ps[j].Name) < 0
	})
}

func mostRecentFirst(a, b Transaction) bool {
	at, bt := a.OccurredAt(), b.OccurredAt()
	if !at.Equal(bt) {
		return at.After(bt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID < b.ID
}
