/*
scenarios_test.go - Tests for demo scenarios

PURPOSE:

	Tests that each scenario replaces the ledger with the expected state:
	- Persons are created
	- Transactions are dated relative to now
	- Balances and dashboard totals match expected values
*/
package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/loan-ledger/ledger"
)

func (s *testServer) loadScenario(id string) ImportResponse {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: id})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[ImportResponse](s.t, rec)
}

func TestListScenarios(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodGet, "/api/scenarios", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]ScenarioDTO](t, rec)
	ids := make([]string, len(list))
	for i, sc := range list {
		ids[i] = sc.ID
	}
	assert.Equal(t, []string{"empty", "ali-repayment", "ali-beth", "household", "random"}, ids)
}

func TestScenario_AliRepayment(t *testing.T) {
	// GIVEN: A fresh ledger
	// WHEN: Loading the partial repayment scenario
	// THEN: Ali is owed 300 and history is most recent first

	s := newTestServer(t, nil)

	result := s.loadScenario("ali-repayment")
	assert.Equal(t, 1, result.Persons)
	assert.Equal(t, 2, result.Transactions)

	p := decode[PersonDTO](t, s.do(http.MethodGet, "/api/persons/demo-ali", nil))
	assert.True(t, ledger.NewAmountFromInt(300).Equal(p.Balance), "balance %s", p.Balance)
	assert.Equal(t, "To pay", p.Direction)

	txs := decode[[]TransactionDTO](t, s.do(http.MethodGet, "/api/persons/demo-ali/transactions", nil))
	require.Len(t, txs, 2)
	assert.Equal(t, "given", txs[0].Type)
	assert.Equal(t, "2025-02-26", txs[0].Date)
	assert.Equal(t, "taken", txs[1].Type)
}

func TestScenario_AliBeth(t *testing.T) {
	s := newTestServer(t, nil)

	s.loadScenario("ali-beth")

	d := decode[DashboardDTO](t, s.do(http.MethodGet, "/api/dashboard", nil))
	assert.Equal(t, 2, d.TotalPeople)
	assert.True(t, ledger.NewAmountFromInt(150).Equal(d.TotalOwedToMe), "owed to me %s", d.TotalOwedToMe)
	assert.True(t, ledger.NewAmountFromInt(300).Equal(d.TotalIOweThem), "I owe %s", d.TotalIOweThem)
	assert.True(t, ledger.NewAmountFromInt(-150).Equal(d.Net), "net %s", d.Net)
}

func TestScenario_Household(t *testing.T) {
	s := newTestServer(t, nil)

	result := s.loadScenario("household")
	assert.Equal(t, 4, result.Persons)
	assert.Equal(t, 6, result.Transactions)
	assert.Zero(t, result.Orphans)

	chen := decode[PersonDTO](t, s.do(http.MethodGet, "/api/persons/demo-chen", nil))
	assert.Equal(t, "Settled", chen.Direction)

	d := decode[DashboardDTO](t, s.do(http.MethodGet, "/api/dashboard", nil))
	assert.Equal(t, 4, d.TotalPeople)
	assert.True(t, ledger.NewAmountFromInt(2700).Equal(d.TotalOwedToMe), "owed to me %s", d.TotalOwedToMe)
	assert.True(t, ledger.NewAmountFromInt(5000).Equal(d.TotalIOweThem), "I owe %s", d.TotalIOweThem)
}

func TestScenario_Random(t *testing.T) {
	// GIVEN: A fresh ledger
	// WHEN: Loading generated data
	// THEN: Every transaction belongs to a person and the dashboard adds up

	s := newTestServer(t, nil)

	result := s.loadScenario("random")
	assert.Equal(t, randomPersons, result.Persons)
	assert.GreaterOrEqual(t, result.Transactions, randomPersons)
	assert.LessOrEqual(t, result.Transactions, randomPersons*4)
	assert.Zero(t, result.Orphans)

	persons := decode[[]PersonDTO](t, s.do(http.MethodGet, "/api/persons", nil))
	require.Len(t, persons, randomPersons)
	owedToMe, iOwe := ledger.ZeroAmount(), ledger.ZeroAmount()
	for _, p := range persons {
		switch {
		case p.Balance.IsPositive():
			iOwe = iOwe.Add(p.Balance)
		case p.Balance.IsNegative():
			owedToMe = owedToMe.Add(p.Balance.Abs())
		}
	}
	d := decode[DashboardDTO](t, s.do(http.MethodGet, "/api/dashboard", nil))
	assert.True(t, owedToMe.Equal(d.TotalOwedToMe), "owed to me %s vs %s", owedToMe, d.TotalOwedToMe)
	assert.True(t, iOwe.Equal(d.TotalIOweThem), "I owe %s vs %s", iOwe, d.TotalIOweThem)
}

func TestScenario_EmptyReplacesData(t *testing.T) {
	s := newTestServer(t, nil)
	s.createPerson("Ali")

	s.loadScenario("empty")

	persons := decode[[]PersonDTO](t, s.do(http.MethodGet, "/api/persons", nil))
	assert.Empty(t, persons)
}

func TestScenario_Unknown(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Unknown scenario", decode[ErrorResponse](t, rec).Error)
}

func TestGetCurrentScenario(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodGet, "/api/scenarios/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))

	s.loadScenario("ali-beth")

	current := decode[ScenarioDTO](t, s.do(http.MethodGet, "/api/scenarios/current", nil))
	assert.Equal(t, "ali-beth", current.ID)
}

