/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built data sets that replace the ledger contents with a
	small, realistic set of persons and transactions. Useful for demos and
	for trying the frontend without typing data in.

AVAILABLE SCENARIOS:

	empty:          No persons, no transactions
	ali-repayment:  Ali lent 500, 200 repaid (you owe Ali 300)
	ali-beth:       Gave Ali 150, borrowed 300 from Beth (net: you owe 150)
	household:      Several persons, one of them settled
	random:         Generated persons and transactions (gofakeit)

HOW SCENARIOS WORK:
 1. Build a portable document with fixed ids, dated relative to today
 2. Import it, replacing both collections

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "ali-beth"}

NOTE:

	Loading a scenario replaces all data. Export first if it matters.

SEE ALSO:
  - handlers.go: Import endpoint, which scenarios go through
  - ledger/snapshot.go: Import rules
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/warp/loan-ledger/ledger"
)

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the body of POST /api/scenarios/load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "empty",
		Name:        "Empty",
		Description: "Start over with no persons and no transactions",
	},
	{
		ID:          "ali-repayment",
		Name:        "Partial Repayment",
		Description: "Ali lent you 500 and you paid back 200",
	},
	{
		ID:          "ali-beth",
		Name:        "Both Directions",
		Description: "You gave Ali 150 and borrowed 300 from Beth",
	},
	{
		ID:          "household",
		Name:        "Household",
		Description: "Several persons with mixed balances, one settled",
	},
	{
		ID:          "random",
		Name:        "Random",
		Description: "Generated persons with a few transactions each",
	},
}

// randomPersons is the size of the random scenario.
const randomPersons = 6

// ListScenarios returns available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the last loaded scenario, if any.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario replaces the ledger with a predefined scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	doc, ok := buildScenario(req.ScenarioID, h.now())
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}
	data, err := json.Marshal(doc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build scenario", err)
		return
	}

	result, err := h.Ledger.Import(r.Context(), data)
	warning, ok := h.mutationOutcome(w, err, "Failed to load scenario")
	if !ok {
		return
	}

	h.mu.Lock()
	h.currentScenario = req.ScenarioID
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, ImportResponse{ImportResult: result, Warning: warning})
}

// =============================================================================
// SCENARIO BUILDERS
// =============================================================================

// scenarioBuilder accumulates a document. Transactions are dated daysAgo
// before now at noon, in insertion order.
type scenarioBuilder struct {
	now time.Time
	doc ledger.Document
}

func (b *scenarioBuilder) person(id, name string) string {
	b.doc.Persons = append(b.doc.Persons, ledger.Person{
		ID:        id,
		Name:      name,
		CreatedAt: b.now.AddDate(0, 0, -60),
	})
	return id
}

func (b *scenarioBuilder) tx(personID string, typ ledger.TransactionType, amount int64, daysAgo int, description string) {
	when := b.now.AddDate(0, 0, -daysAgo)
	b.doc.Transactions = append(b.doc.Transactions, ledger.Transaction{
		ID:          fmt.Sprintf("%s-tx-%d", personID, len(b.doc.Transactions)+1),
		PersonID:    personID,
		Type:        typ,
		Amount:      ledger.NewAmountFromInt(amount),
		Date:        ledger.Today(when),
		Time:        "12:00",
		Description: description,
		CreatedAt:   when,
	})
}

func buildScenario(id string, now time.Time) (ledger.Document, bool) {
	b := &scenarioBuilder{
		now: now.UTC(),
		doc: ledger.Document{Persons: []ledger.Person{}, Transactions: []ledger.Transaction{}, ExportedAt: now.UTC()},
	}

	switch id {
	case "empty":
	case "ali-repayment":
		ali := b.person("demo-ali", "Ali")
		b.tx(ali, ledger.TxTaken, 500, 14, "Rent shortfall")
		b.tx(ali, ledger.TxGiven, 200, 3, "First repayment")
	case "ali-beth":
		ali := b.person("demo-ali", "Ali")
		beth := b.person("demo-beth", "Beth")
		b.tx(ali, ledger.TxGiven, 150, 7, "Concert tickets")
		b.tx(beth, ledger.TxTaken, 300, 2, "Car repair")
	case "household":
		ali := b.person("demo-ali", "Ali")
		beth := b.person("demo-beth", "Beth")
		chen := b.person("demo-chen", "Chen")
		dana := b.person("demo-dana", "Dana")
		b.tx(ali, ledger.TxGiven, 2500, 30, "Groceries")
		b.tx(ali, ledger.TxTaken, 1000, 10, "Paid back part")
		b.tx(beth, ledger.TxTaken, 5000, 21, "Laptop")
		b.tx(chen, ledger.TxGiven, 800, 12, "Dinner")
		b.tx(chen, ledger.TxTaken, 800, 1, "Dinner, settled")
		b.tx(dana, ledger.TxGiven, 1200, 5, "Train tickets")
	case "random":
		faker := gofakeit.New(now.UnixNano())
		for i := 0; i < randomPersons; i++ {
			p := b.person(fmt.Sprintf("demo-random-%d", i+1), faker.FirstName())
			for j, n := 0, faker.Number(1, 4); j < n; j++ {
				typ := ledger.TxGiven
				if faker.Bool() {
					typ = ledger.TxTaken
				}
				b.tx(p, typ, int64(faker.Number(1, 50)*100), j*7+faker.Number(0, 6), faker.Sentence(3))
			}
		}
	default:
		return ledger.Document{}, false
	}
	return b.doc, true
}
