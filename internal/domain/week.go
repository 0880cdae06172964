package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Week is one trading week of the catalog. Percentage is the signed return
// applied to both pools for the week.
type Week struct {
	ID         string
	WeekNumber int
	StartDate  time.Time
	EndDate    time.Time
	Percentage decimal.Decimal
	CreatedAt  time.Time
}

// Validate checks the week in isolation.
func (w *Week) Validate() error {
	if w.WeekNumber <= 0 {
		return NewValidationError("week_number", ErrInvalidWeekNumber, "")
	}

	if !Day(w.EndDate).After(Day(w.StartDate)) {
		return NewValidationError("end_date", ErrInvalidDateRange,
			"end_date must be after start_date")
	}

	return ValidatePercentage(w.Percentage)
}

// Cutoff is the first instant after the week's start day. Ledger entries
// created strictly before it are applied before the week is settled.
func (w *Week) Cutoff() time.Time {
	return Day(w.StartDate).AddDate(0, 0, 1)
}

// Overlaps reports whether the two weeks share at least one calendar day.
func (w *Week) Overlaps(other *Week) bool {
	return !Day(w.StartDate).After(Day(other.EndDate)) &&
		!Day(other.StartDate).After(Day(w.EndDate))
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
