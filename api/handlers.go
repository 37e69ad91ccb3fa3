/*
handlers.go - HTTP API handlers for the loan ledger

PURPOSE:
  Exposes the ledger via REST API. Handles HTTP request/response and JSON
  serialization, and delegates every rule to package ledger.

ENDPOINTS:
  Dashboard:
    GET    /api/dashboard                   Totals across all persons

  Persons:
    GET    /api/persons                     List persons with balances (by name)
    POST   /api/persons                     Create person
    GET    /api/persons/{id}                Person with balance
    DELETE /api/persons/{id}                Delete person and their transactions

  Transactions:
    GET    /api/persons/{id}/transactions   History, most recent first
    POST   /api/persons/{id}/transactions   Record a Given/Taken movement
    DELETE /api/transactions/{id}           Delete a transaction

  Backup:
    GET    /api/export                      Download the portable document
    POST   /api/import                      Replace data from a document

  Scenarios:
    GET    /api/scenarios                   List demo scenarios
    GET    /api/scenarios/current           Last loaded scenario (or null)
    POST   /api/scenarios/load              Replace data with a demo scenario

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, unusable import document
  - 404: Person not found
  - 503: Ledger not loaded yet
  - 500: Internal errors
  A mutation applied in memory but not saved is NOT an error: the normal
  success status is returned with a "warning" field.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/loan-ledger/format"
	"github.com/warp/loan-ledger/ledger"
)

// maxImportBytes bounds the size of an import document.
const maxImportBytes = 10 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Pinger checks that a storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// healthTimeout bounds the backend ping done by Health.
const healthTimeout = 2 * time.Second

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger   *ledger.Ledger
	Currency string
	Logger   *slog.Logger

	// Store is pinged by Health when set.
	Store Pinger

	now func() time.Time

	// Last demo scenario loaded through this handler
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler serving l. Amounts are displayed in currency.
func NewHandler(l *ledger.Ledger, currency string) *Handler {
	if currency == "" {
		currency = format.DefaultCurrency
	}
	return &Handler{
		Ledger:   l,
		Currency: currency,
		Logger:   slog.Default(),
		now:      time.Now,
	}
}

// =============================================================================
// DASHBOARD
// =============================================================================

// GetDashboard returns totals across all persons.
// GET /api/dashboard
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toDashboardDTO(h.Ledger.DashboardStats(), h.Currency))
}

// =============================================================================
// PERSON HANDLERS
// =============================================================================

// ListPersons returns all persons with balances, ordered by name.
// GET /api/persons
func (h *Handler) ListPersons(w http.ResponseWriter, r *http.Request) {
	persons := h.Ledger.AllPersonsWithBalance()
	dtos := make([]PersonDTO, len(persons))
	for i, p := range persons {
		dtos[i] = toPersonDTO(p, h.Currency)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePerson adds a person.
// POST /api/persons
func (h *Handler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req CreatePersonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	p, err := h.Ledger.AddPerson(r.Context(), req.Name)
	warning, ok := h.mutationOutcome(w, err, "Failed to create person")
	if !ok {
		return
	}

	dto := toPersonDTO(ledger.PersonWithBalance{
		Person:     p,
		TotalGiven: ledger.ZeroAmount(),
		TotalTaken: ledger.ZeroAmount(),
		Balance:    ledger.ZeroAmount(),
	}, h.Currency)
	dto.Warning = warning
	writeJSON(w, http.StatusCreated, dto)
}

// GetPerson returns one person with balance.
// GET /api/persons/{id}
func (h *Handler) GetPerson(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.Ledger.BalanceFor(id)
	if err != nil {
		h.handleLedgerError(w, err, "Failed to get person")
		return
	}
	writeJSON(w, http.StatusOK, toPersonDTO(p, h.Currency))
}

// DeletePerson removes a person and every transaction of that person.
// DELETE /api/persons/{id}
func (h *Handler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.Ledger.DeletePerson(r.Context(), id)
	h.writeDeleted(w, err, "Failed to delete person")
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// ListTransactions returns a person's transactions, most recent first.
// GET /api/persons/{id}/transactions
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.Ledger.Person(id); !ok {
		writeError(w, http.StatusNotFound, "Person not found", &ledger.NotFoundError{Kind: ledger.KindPerson, ID: id})
		return
	}

	txs := h.Ledger.TransactionsFor(id)
	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx, h.Currency)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateTransaction records a movement for a person.
// POST /api/persons/{id}/transactions
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	txType, err := ledger.ParseTransactionType(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid transaction type", err)
		return
	}

	tx, err := h.Ledger.AddTransaction(r.Context(), ledger.NewTransaction{
		PersonID:    id,
		Type:        txType,
		Amount:      req.Amount,
		Date:        req.Date,
		Time:        req.Time,
		Description: req.Description,
	})
	warning, ok := h.mutationOutcome(w, err, "Failed to create transaction")
	if !ok {
		return
	}

	dto := toTransactionDTO(tx, h.Currency)
	dto.Warning = warning
	writeJSON(w, http.StatusCreated, dto)
}

// DeleteTransaction removes a single transaction.
// DELETE /api/transactions/{id}
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.Ledger.DeleteTransaction(r.Context(), id)
	h.writeDeleted(w, err, "Failed to delete transaction")
}

// =============================================================================
// BACKUP HANDLERS
// =============================================================================

// Export downloads the whole ledger as a portable document.
// GET /api/export
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	filename := ledger.ExportFilename(h.now())
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if err := h.Ledger.WriteExport(w); err != nil {
		h.Logger.Error("export failed", "error", err)
	}
}

// Import replaces ledger data from a portable document.
// POST /api/import
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read import document", err)
		return
	}

	result, err := h.Ledger.Import(r.Context(), data)
	warning, ok := h.mutationOutcome(w, err, "Import failed")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ImportResponse{ImportResult: result, Warning: warning})
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports whether the ledger has been loaded and, when a store is
// configured, whether it still answers.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	state := h.Ledger.State()
	status := http.StatusOK
	if state != ledger.StateLoaded {
		status = http.StatusServiceUnavailable
	}
	body := map[string]string{"status": state.String()}

	if h.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := h.Store.Ping(ctx); err != nil {
			h.Logger.Warn("store ping failed", "error", err)
			body["store"] = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			body["store"] = "ok"
		}
	}
	writeJSON(w, status, body)
}

// =============================================================================
// HELPERS
// =============================================================================

// mutationOutcome writes an error response for hard failures and returns
// ok=false. A save failure is returned as a warning with ok=true.
func (h *Handler) mutationOutcome(w http.ResponseWriter, err error, message string) (string, bool) {
	if err == nil {
		return "", true
	}
	if ledger.IsSaveWarning(err) {
		h.Logger.Warn("change applied but not saved", "error", err)
		return "Change applied but could not be saved: " + err.Error(), true
	}
	h.handleLedgerError(w, err, message)
	return "", false
}

func (h *Handler) writeDeleted(w http.ResponseWriter, err error, message string) {
	warning, ok := h.mutationOutcome(w, err, message)
	if !ok {
		return
	}
	if warning != "" {
		writeJSON(w, http.StatusOK, WarningResponse{Warning: warning})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleLedgerError maps ledger errors to HTTP status codes.
func (h *Handler) handleLedgerError(w http.ResponseWriter, err error, message string) {
	switch {
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, ledger.ErrNotLoaded):
		writeError(w, http.StatusServiceUnavailable, message, err)
	case ledger.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.Logger.Error(message, "error", err)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
