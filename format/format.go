/*
Package format renders ledger values for people: currency amounts, balance
labels and transaction dates.

CURRENCY:
  Amounts are shown without sign and without fraction digits, using the
  currency's grapheme and thousands separator from go-money:

    Currency(ledger.NewAmountFromInt(-1500), "PKR") -> "Rs. 1,500"
    Currency(ledger.NewAmountFromInt(1500), "USD")  -> "$1,500"

  Direction is carried by the labels, never by a minus sign.

LABELS (balance = taken - given):
  balance > 0   "You owe Ali this amount"   "To pay"
  balance < 0   "Ali owes you this amount"  "To receive"
  balance = 0   "Settled"                   "Settled"
*/
package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/warp/loan-ledger/ledger"
)

// DefaultCurrency is used when no currency is configured.
const DefaultCurrency = "PKR"

// =============================================================================
// CURRENCY
// =============================================================================

var maxInt64 = decimal.NewFromInt(math.MaxInt64)

// Currency formats |amount| rounded to whole units in the given currency.
func Currency(amount ledger.Amount, code string) string {
	whole := amount.Value.Abs().Round(0)
	f := formatter(code)
	if whole.LessThanOrEqual(maxInt64) {
		return f.Format(whole.IntPart())
	}
	// Beyond int64 go-money would wrap; lay out the digits with the same template.
	out := strings.Replace(f.Template, "1", groupDigits(whole.String(), f.Thousand), 1)
	return strings.Replace(out, "$", f.Grapheme, 1)
}

func groupDigits(digits, sep string) string {
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteString(sep)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func formatter(code string) *money.Formatter {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = DefaultCurrency
	}
	cur := money.GetCurrency(code)
	if cur == nil {
		return money.NewFormatter(0, ".", ",", code, "$ 1")
	}
	grapheme, template := cur.Grapheme, cur.Template
	if code == "PKR" {
		grapheme, template = "Rs.", "$ 1"
	}
	return money.NewFormatter(0, cur.Decimal, cur.Thousand, grapheme, template)
}

// =============================================================================
// LABELS
// =============================================================================

// BalanceLabel describes who owes whom for one person.
func BalanceLabel(p ledger.PersonWithBalance) string {
	switch {
	case p.OwesMe():
		return p.Name + " owes you this amount"
	case p.IOwe():
		return "You owe " + p.Name + " this amount"
	default:
		return "Settled"
	}
}

// Direction is the short form of BalanceLabel.
func Direction(balance ledger.Amount) string {
	switch {
	case balance.IsNegative():
		return "To receive"
	case balance.IsPositive():
		return "To pay"
	default:
		return "Settled"
	}
}

// NetLabel describes the overall position on the dashboard.
func NetLabel(stats ledger.DashboardStats) string {
	net := stats.Net()
	switch {
	case net.IsPositive():
		return "Others owe you"
	case net.IsNegative():
		return "You owe others"
	default:
		return "All settled"
	}
}

// TransactionCount renders "1 transaction" or "N transactions".
func TransactionCount(n int) string {
	if n == 1 {
		return "1 transaction"
	}
	return fmt.Sprintf("%d transactions", n)
}

// =============================================================================
// DATES
// =============================================================================

const (
	dateLayout = "2 Jan 2006"
	timeLayout = "3:04 PM"
)

// Date renders "2025-03-01" as "1 Mar 2025". Invalid input is returned as is.
func Date(date string) string {
	t, err := ledger.ParseDate(date)
	if err != nil {
		return date
	}
	return t.Format(dateLayout)
}

// Time renders "14:30" as "2:30 PM". Invalid input is returned as is.
func Time(clock string) string {
	t, err := ledger.ParseTimeOfDay(clock)
	if err != nil {
		return clock
	}
	return t.Format(timeLayout)
}

// DateTime renders a transaction's date and time as "1 Mar 2025 at 2:30 PM".
func DateTime(date, clock string) string {
	return Date(date) + " at " + Time(clock)
}
