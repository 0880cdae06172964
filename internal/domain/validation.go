package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxNoteLength       = 500
	MaxPercentageScale  = 4
	MaxMonetaryAmount   = "1000000000000000" // 1 quadrillion, NUMERIC(24,4) headroom
	MinWeeklyPercentage = "-100"
	MaxWeeklyPercentage = "1000"
)

var (
	maxMonetaryAmount   = decimal.RequireFromString(MaxMonetaryAmount)
	minWeeklyPercentage = decimal.RequireFromString(MinWeeklyPercentage)
	maxWeeklyPercentage = decimal.RequireFromString(MaxWeeklyPercentage)
)

// MaxAmount returns the largest magnitude a balance may reach.
func MaxAmount() decimal.Decimal {
	return maxMonetaryAmount
}

// LookupCurrency returns the ISO 4217 currency for code.
func LookupCurrency(code string) (*money.Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, NewValidationError("currency", ErrInvalidCurrency, "empty code")
	}

	cur := money.GetCurrency(code)
	if cur == nil {
		return nil, NewValidationError("currency", ErrInvalidCurrency, code)
	}

	return cur, nil
}

// ValidateAmount validates a ledger amount against the currency minor unit.
func ValidateAmount(amount decimal.Decimal, places int32) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return NewValidationError("amount", ErrInvalidAmount, amount.String())
	}

	if !amount.Equal(amount.Truncate(places)) {
		return NewValidationError("amount", ErrAmountPrecision,
			fmt.Sprintf("%s has more than %d decimal places", amount, places))
	}

	if amount.GreaterThan(maxMonetaryAmount) {
		return NewValidationError("amount", ErrOverflow,
			fmt.Sprintf("maximum amount is %s", MaxMonetaryAmount))
	}

	return nil
}

// ValidatePercentage validates a weekly return. A return of -100% or lower
// would wipe out more than the pools hold.
func ValidatePercentage(pct decimal.Decimal) error {
	if pct.LessThanOrEqual(minWeeklyPercentage) || pct.GreaterThan(maxWeeklyPercentage) {
		return NewValidationError("percentage", ErrInvalidPercentage,
			fmt.Sprintf("%s is outside (%s, %s]", pct, MinWeeklyPercentage, MaxWeeklyPercentage))
	}

	if !pct.Equal(pct.Truncate(MaxPercentageScale)) {
		return NewValidationError("percentage", ErrInvalidPercentage,
			fmt.Sprintf("at most %d decimal places", MaxPercentageScale))
	}

	return nil
}

// ValidateNote validates the free text note of a ledger entry.
func ValidateNote(note string) error {
	if utf8.RuneCountInString(note) > MaxNoteLength {
		return NewValidationError("note", ErrNoteTooLong,
			fmt.Sprintf("note exceeds %d characters", MaxNoteLength))
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
