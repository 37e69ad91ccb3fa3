/*
handlers_test.go - Tests for API handlers

Tests for:
- Person and transaction CRUD through the router
- Status mapping of ledger errors
- Save failures reported as warnings
- Export/import round trip over HTTP
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/loan-ledger/ledger"
	"github.com/warp/loan-ledger/metrics"
	"github.com/warp/loan-ledger/store/memory"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var testNow = time.Date(2025, time.March, 1, 14, 30, 0, 0, time.UTC)

type testServer struct {
	t      *testing.T
	ledger *ledger.Ledger
	router http.Handler
}

func newTestServer(t *testing.T, kv ledger.KV) *testServer {
	t.Helper()
	if kv == nil {
		kv = memory.New()
	}
	m := metrics.New()
	l := ledger.New(kv,
		ledger.WithClock(func() time.Time { return testNow }),
		ledger.WithObserver(m),
		ledger.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, l.Load(context.Background()))

	h := NewHandler(l, "PKR")
	h.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	h.now = func() time.Time { return testNow }

	return &testServer{
		t:      t,
		ledger: l,
		router: NewRouter(h, RouterOptions{Metrics: m.Handler(), StaticDir: t.TempDir()}),
	}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func (s *testServer) createPerson(name string) PersonDTO {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/persons", CreatePersonRequest{Name: name})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[PersonDTO](s.t, rec)
}

func (s *testServer) createTransaction(personID, typ string, amount any) TransactionDTO {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/persons/"+personID+"/transactions", map[string]any{
		"type":   typ,
		"amount": amount,
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[TransactionDTO](s.t, rec)
}

// flakyKV fails Set while failing is true.
type flakyKV struct {
	*memory.Store
	failing atomic.Bool
}

func (f *flakyKV) Set(ctx context.Context, key, value string) error {
	if f.failing.Load() {
		return errors.New("quota exceeded")
	}
	return f.Store.Set(ctx, key, value)
}

// =============================================================================
// PERSONS
// =============================================================================

func TestCreatePerson(t *testing.T) {
	s := newTestServer(t, nil)

	p := s.createPerson("  Ali ")

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Ali", p.Name)
	assert.Equal(t, "Settled", p.BalanceLabel)
	assert.Equal(t, "Rs. 0", p.BalanceDisplay)
	assert.Empty(t, p.Warning)
}

func TestCreatePerson_Invalid(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodPost, "/api/persons", CreatePersonRequest{Name: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errResp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "Failed to create person", errResp.Error)
	assert.Contains(t, errResp.Details, "name must not be empty")

	rec = s.do(http.MethodPost, "/api/persons", "{broken")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPerson_NotFound(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodGet, "/api/persons/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/persons/ghost/transactions", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPersons_SortedWithBalances(t *testing.T) {
	s := newTestServer(t, nil)
	beth := s.createPerson("Beth")
	ali := s.createPerson("ali")
	s.createTransaction(beth.ID, "taken", 300)
	s.createTransaction(ali.ID, "given", 150)

	rec := s.do(http.MethodGet, "/api/persons", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	persons := decode[[]PersonDTO](t, rec)

	require.Len(t, persons, 2)
	assert.Equal(t, "ali", persons[0].Name)
	assert.Equal(t, "ali owes you this amount", persons[0].BalanceLabel)
	assert.Equal(t, "To receive", persons[0].Direction)
	assert.Equal(t, "Beth", persons[1].Name)
	assert.Equal(t, "You owe Beth this amount", persons[1].BalanceLabel)
	assert.Equal(t, "Rs. 300", persons[1].BalanceDisplay)
}

func TestDeletePerson_Cascades(t *testing.T) {
	s := newTestServer(t, nil)
	ali := s.createPerson("Ali")
	s.createTransaction(ali.ID, "taken", 500)

	rec := s.do(http.MethodDelete, "/api/persons/"+ali.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, s.ledger.Snapshot().Transactions)

	// Unknown ids are a no-op
	rec = s.do(http.MethodDelete, "/api/persons/"+ali.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestCreateTransaction_AliScenario(t *testing.T) {
	// GIVEN: Ali
	// WHEN: Ali lends me 500 and I repay 200 (amount sent as a string)
	// THEN: Ali's balance is 300, I owe Ali

	s := newTestServer(t, nil)
	ali := s.createPerson("Ali")

	taken := s.createTransaction(ali.ID, "taken", 500)
	assert.Equal(t, "Borrowed", taken.TypeLabel)
	assert.Equal(t, "2025-03-01", taken.Date)
	assert.Equal(t, "14:30", taken.Time)
	assert.Equal(t, "1 Mar 2025 at 2:30 PM", taken.When)

	given := s.createTransaction(ali.ID, "GIVEN", "200")
	assert.Equal(t, "given", given.Type)

	rec := s.do(http.MethodGet, "/api/persons/"+ali.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[PersonDTO](t, rec)
	assert.Equal(t, "300", p.Balance.String())
	assert.Equal(t, 2, p.TransactionCount)
	assert.Equal(t, "You owe Ali this amount", p.BalanceLabel)
}

func TestCreateTransaction_Validation(t *testing.T) {
	s := newTestServer(t, nil)
	ali := s.createPerson("Ali")

	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{"zero amount", "/api/persons/" + ali.ID + "/transactions", map[string]any{"type": "given", "amount": 0}, http.StatusBadRequest},
		{"missing amount", "/api/persons/" + ali.ID + "/transactions", map[string]any{"type": "given"}, http.StatusBadRequest},
		{"text amount", "/api/persons/" + ali.ID + "/transactions", map[string]any{"type": "given", "amount": "lots"}, http.StatusBadRequest},
		{"bad type", "/api/persons/" + ali.ID + "/transactions", map[string]any{"type": "lent", "amount": 5}, http.StatusBadRequest},
		{"bad date", "/api/persons/" + ali.ID + "/transactions", map[string]any{"type": "given", "amount": 5, "date": "yesterday"}, http.StatusBadRequest},
		{"unknown person", "/api/persons/ghost/transactions", map[string]any{"type": "given", "amount": 5}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
	assert.Empty(t, s.ledger.Snapshot().Transactions)
}

func TestListTransactions_MostRecentFirst(t *testing.T) {
	s := newTestServer(t, nil)
	ali := s.createPerson("Ali")

	for _, date := range []string{"2025-01-10", "2025-02-20", "2025-01-15"} {
		rec := s.do(http.MethodPost, "/api/persons/"+ali.ID+"/transactions", CreateTransactionRequest{
			Type: "given", Amount: ledger.NewAmountFromInt(10), Date: date, Time: "09:00",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := s.do(http.MethodGet, "/api/persons/"+ali.ID+"/transactions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	txs := decode[[]TransactionDTO](t, rec)

	require.Len(t, txs, 3)
	assert.Equal(t, "2025-02-20", txs[0].Date)
	assert.Equal(t, "2025-01-15", txs[1].Date)
	assert.Equal(t, "2025-01-10", txs[2].Date)
}

func TestDeleteTransaction(t *testing.T) {
	s := newTestServer(t, nil)
	ali := s.createPerson("Ali")
	tx := s.createTransaction(ali.ID, "given", 100)

	rec := s.do(http.MethodDelete, "/api/transactions/"+tx.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodDelete, "/api/transactions/"+tx.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assert.Empty(t, s.ledger.TransactionsFor(ali.ID))
}

// =============================================================================
// DASHBOARD
// =============================================================================

func TestGetDashboard(t *testing.T) {
	// GIVEN: I gave Ali 150 and Beth lent me 300
	// THEN: owed to me 150, I owe 300, "You owe others"

	s := newTestServer(t, nil)
	ali := s.createPerson("Ali")
	beth := s.createPerson("Beth")
	s.createTransaction(ali.ID, "given", 150)
	s.createTransaction(beth.ID, "taken", 300)

	rec := s.do(http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	d := decode[DashboardDTO](t, rec)

	assert.Equal(t, 2, d.TotalPeople)
	assert.Equal(t, "150", d.TotalOwedToMe.String())
	assert.Equal(t, "300", d.TotalIOweThem.String())
	assert.Equal(t, "-150", d.Net.String())
	assert.Equal(t, "Rs. 150", d.NetDisplay)
	assert.Equal(t, "You owe others", d.NetLabel)
}

// =============================================================================
// SAVE FAILURES
// =============================================================================

func TestSaveFailureIsWarning(t *testing.T) {
	kv := &flakyKV{Store: memory.New()}
	s := newTestServer(t, kv)
	ali := s.createPerson("Ali")

	kv.failing.Store(true)

	rec := s.do(http.MethodPost, "/api/persons", CreatePersonRequest{Name: "Beth"})
	require.Equal(t, http.StatusCreated, rec.Code)
	beth := decode[PersonDTO](t, rec)
	assert.Contains(t, beth.Warning, "could not be saved")

	rec = s.do(http.MethodDelete, "/api/persons/"+ali.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[WarningResponse](t, rec).Warning)

	// The in-memory state reflects both changes
	persons := s.ledger.AllPersonsWithBalance()
	require.Len(t, persons, 1)
	assert.Equal(t, "Beth", persons[0].Name)
}

// =============================================================================
// BACKUP
// =============================================================================

func TestExportImport_RoundTrip(t *testing.T) {
	src := newTestServer(t, nil)
	ali := src.createPerson("Ali")
	src.createTransaction(ali.ID, "taken", 500)
	src.createTransaction(ali.ID, "given", 200)

	rec := src.do(http.MethodGet, "/api/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="loan-manager-backup-2025-03-01.json"`, rec.Header().Get("Content-Disposition"))
	doc := rec.Body.Bytes()

	dst := newTestServer(t, nil)
	rec = dst.do(http.MethodPost, "/api/import", doc)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[ImportResponse](t, rec)
	assert.True(t, result.PersonsReplaced)
	assert.True(t, result.TransactionsReplaced)
	assert.Equal(t, 1, result.Persons)
	assert.Equal(t, 2, result.Transactions)

	rec = dst.do(http.MethodGet, "/api/persons/"+ali.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "300", decode[PersonDTO](t, rec).Balance.String())
}

func TestImport_InvalidDocumentLeavesState(t *testing.T) {
	s := newTestServer(t, nil)
	s.createPerson("Ali")

	for _, body := range []string{"not json", `{"persons": 5}`, `[1,2]`} {
		rec := s.do(http.MethodPost, "/api/import", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
	assert.Len(t, s.ledger.AllPersonsWithBalance(), 1)
}

func TestImport_ReportsSkippedCollection(t *testing.T) {
	// GIVEN: A ledger with one person and a document whose transactions are invalid
	// WHEN: Importing it over HTTP
	// THEN: Persons are replaced and the response says why transactions were kept

	s := newTestServer(t, nil)
	ali := s.createPerson("Ali")
	s.createTransaction(ali.ID, "given", 75)

	doc := `{
		"persons": [{"id": "p1", "name": "Beth", "createdAt": "2025-01-01T00:00:00Z"}],
		"transactions": [{"id": "t1", "personId": "p1", "type": "given", "amount": -5}]
	}`
	rec := s.do(http.MethodPost, "/api/import", doc)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	result := decode[ImportResponse](t, rec)
	assert.True(t, result.PersonsReplaced)
	assert.False(t, result.TransactionsReplaced)
	assert.Empty(t, result.PersonsSkipped)
	assert.Contains(t, result.TransactionsSkipped, "transaction t1: invalid amount")
	assert.Equal(t, 1, result.Orphans)
	assert.Contains(t, rec.Body.String(), `"transactionsSkipped":`)
	assert.NotContains(t, rec.Body.String(), `"personsSkipped"`)
}

// =============================================================================
// OPERATIONS
// =============================================================================

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, nil)
	s.createPerson("Ali")

	rec := s.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "loaded", decode[map[string]string](t, rec)["status"])

	rec = s.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `loan_ledger_mutations_total{op="add_person"} 1`)
	assert.Contains(t, rec.Body.String(), "loan_ledger_persons 1")
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealth_Store(t *testing.T) {
	// GIVEN: A loaded ledger whose handler knows its store
	// WHEN: The store answers, then stops answering
	// THEN: /healthz reports ok, then 503 with the store marked unreachable

	kv := memory.New()
	l := ledger.New(kv)
	require.NoError(t, l.Load(context.Background()))
	h := NewHandler(l, "")
	h.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	var down atomic.Bool
	h.Store = pingFunc(func(ctx context.Context) error {
		if down.Load() {
			return errors.New("connection refused")
		}
		return kv.Ping(ctx)
	})
	router := NewRouter(h, RouterOptions{StaticDir: t.TempDir()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"status": "loaded", "store": "ok"}, decode[map[string]string](t, rec))

	down.Store(true)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, map[string]string{"status": "loaded", "store": "unreachable"}, decode[map[string]string](t, rec))
}

func TestHealth_NotLoaded(t *testing.T) {
	h := NewHandler(ledger.New(memory.New()), "")
	h.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(h, RouterOptions{StaticDir: t.TempDir()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/persons", strings.NewReader(`{"name":"Ali"}`))
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
