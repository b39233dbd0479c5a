// Package calendar selects the business days a batch run fetches files for.
package calendar

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidArgument is returned when a negative day count is requested.
var ErrInvalidArgument = errors.New("invalid argument")

// IsBusinessDay reports whether a date counts as a business day.
type IsBusinessDay func(d time.Time) bool

// Weekdays accepts Monday through Friday. Public holidays are not excluded.
func Weekdays(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// ByName resolves a predicate from its configuration name ("weekdays" or "br").
func ByName(name string) (IsBusinessDay, error) {
	switch name {
	case "", "weekdays":
		return Weekdays, nil
	case "br":
		return BrazilianHolidays, nil
	default:
		return nil, fmt.Errorf("%w: unknown business calendar %q", ErrInvalidArgument, name)
	}
}

// LastNBusinessDays returns the n business days before from (most recent first).
// The day of from itself is never included, matching the publication lag of
// the daily price files. A nil predicate means Weekdays.
func LastNBusinessDays(n int, from time.Time, isBusinessDay IsBusinessDay) ([]time.Time, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: day count must be >= 0, got %d", ErrInvalidArgument, n)
	}
	if isBusinessDay == nil {
		isBusinessDay = Weekdays
	}

	out := make([]time.Time, 0, n)
	d := truncateToDate(from)
	for len(out) < n {
		d = d.AddDate(0, 0, -1)
		if isBusinessDay(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
