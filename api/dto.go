/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Response types carry
  both raw amounts (for clients that compute) and display strings (for
  clients that only render).

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Wrappers for operations that are not a single record

WARNINGS:
  A mutation that was applied but could not be saved still succeeds. The
  response then carries a non-empty "warning" field.

VALIDATION:
  Validation is done by the ledger, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - format/format.go: Display strings
*/
package api

import (
	"time"

	"github.com/warp/loan-ledger/format"
	"github.com/warp/loan-ledger/ledger"
)

// =============================================================================
// PERSONS
// =============================================================================

// PersonDTO is a person with derived balance.
type PersonDTO struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	CreatedAt        time.Time     `json:"createdAt"`
	TotalGiven       ledger.Amount `json:"totalGiven"`
	TotalTaken       ledger.Amount `json:"totalTaken"`
	Balance          ledger.Amount `json:"balance"`
	TransactionCount int           `json:"transactionCount"`
	BalanceDisplay   string        `json:"balanceDisplay"`
	BalanceLabel     string        `json:"balanceLabel"`
	Direction        string        `json:"direction"`
	Warning          string        `json:"warning,omitempty"`
}

// CreatePersonRequest is the body of POST /api/persons.
type CreatePersonRequest struct {
	Name string `json:"name"`
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// TransactionDTO is a transaction with display fields.
type TransactionDTO struct {
	ID            string        `json:"id"`
	PersonID      string        `json:"personId"`
	Type          string        `json:"type"`
	TypeLabel     string        `json:"typeLabel"`
	Amount        ledger.Amount `json:"amount"`
	AmountDisplay string        `json:"amountDisplay"`
	Date          string        `json:"date"`
	Time          string        `json:"time"`
	When          string        `json:"when"`
	Description   string        `json:"description"`
	CreatedAt     time.Time     `json:"createdAt"`
	Warning       string        `json:"warning,omitempty"`
}

// CreateTransactionRequest is the body of POST /api/persons/{id}/transactions.
// Amount accepts a JSON number or a numeric string. Date and Time default to now.
type CreateTransactionRequest struct {
	Type        string        `json:"type"`
	Amount      ledger.Amount `json:"amount"`
	Date        string        `json:"date,omitempty"`
	Time        string        `json:"time,omitempty"`
	Description string        `json:"description,omitempty"`
}

// =============================================================================
// DASHBOARD
// =============================================================================

// DashboardDTO aggregates every balance.
type DashboardDTO struct {
	TotalPeople     int           `json:"totalPeople"`
	TotalOwedToMe   ledger.Amount `json:"totalOwedToMe"`
	TotalIOweThem   ledger.Amount `json:"totalIOweThem"`
	Net             ledger.Amount `json:"net"`
	OwedToMeDisplay string        `json:"owedToMeDisplay"`
	IOweThemDisplay string        `json:"iOweThemDisplay"`
	NetDisplay      string        `json:"netDisplay"`
	NetLabel        string        `json:"netLabel"`
}

// =============================================================================
// IMPORT / GENERIC RESPONSES
// =============================================================================

// ImportResponse reports what an import replaced.
type ImportResponse struct {
	ledger.ImportResult
	Warning string `json:"warning,omitempty"`
}

// WarningResponse is returned instead of 204 when a delete was not saved.
type WarningResponse struct {
	Warning string `json:"warning"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toPersonDTO(p ledger.PersonWithBalance, currency string) PersonDTO {
	return PersonDTO{
		ID:               p.ID,
		Name:             p.Name,
		CreatedAt:        p.CreatedAt,
		TotalGiven:       p.TotalGiven,
		TotalTaken:       p.TotalTaken,
		Balance:          p.Balance,
		TransactionCount: p.TransactionCount,
		BalanceDisplay:   format.Currency(p.Balance, currency),
		BalanceLabel:     format.BalanceLabel(p),
		Direction:        format.Direction(p.Balance),
	}
}

func toTransactionDTO(tx ledger.Transaction, currency string) TransactionDTO {
	return TransactionDTO{
		ID:            tx.ID,
		PersonID:      tx.PersonID,
		Type:          string(tx.Type),
		TypeLabel:     tx.Type.Label(),
		Amount:        tx.Amount,
		AmountDisplay: format.Currency(tx.Amount, currency),
		Date:          tx.Date,
		Time:          tx.Time,
		When:          format.DateTime(tx.Date, tx.Time),
		Description:   tx.Description,
		CreatedAt:     tx.CreatedAt,
	}
}

func toDashboardDTO(s ledger.DashboardStats, currency string) DashboardDTO {
	net := s.Net()
	return DashboardDTO{
		TotalPeople:     s.TotalPeople,
		TotalOwedToMe:   s.TotalOwedToMe,
		TotalIOweThem:   s.TotalIOweThem,
		Net:             net,
		OwedToMeDisplay: format.Currency(s.TotalOwedToMe, currency),
		IOweThemDisplay: format.Currency(s.TotalIOweThem, currency),
		NetDisplay:      format.Currency(net, currency),
		NetLabel:        format.NetLabel(s),
	}
}
