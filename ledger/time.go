package ledger

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// DATE / TIME OF DAY - Attribution of a transaction, independent of CreatedAt
// =============================================================================

const (
	DateLayout      = "2006-01-02"
	TimeOfDayLayout = "15:04"
)

// ParseDate validates a calendar date in YYYY-MM-DD form.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q (use YYYY-MM-DD)", ErrInvalidDate, s)
	}
	return t, nil
}

// ParseTimeOfDay validates a 24h time of day in HH:MM (or HH:MM:SS) form.
func ParseTimeOfDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{TimeOfDayLayout, "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: time %q (use HH:MM)", ErrInvalidDate, s)
}

// Today formats now as a transaction date.
func Today(now time.Time) string { return now.Format(DateLayout) }

// CurrentTimeOfDay formats now as a transaction time.
func CurrentTimeOfDay(now time.Time) string { return now.Format(TimeOfDayLayout) }

func occurredAt(date, clock string) time.Time {
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}
	}
	c, err := ParseTimeOfDay(clock)
	if err != nil {
		return d
	}
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), c.Second(), 0, time.UTC)
}
