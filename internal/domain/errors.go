package domain

import (
	"errors"
	"fmt"
)

var (
	// Week catalog errors
	ErrWeekNotFound        = errors.New("week not found")
	ErrInvalidWeekNumber   = errors.New("week number must be positive")
	ErrDuplicateWeekNumber = errors.New("week number already used")
	ErrInvalidDateRange    = errors.New("invalid week date range")
	ErrWeekOverlap         = errors.New("week overlaps another week")
	ErrUnsortedWeeks       = errors.New("weeks are not in chronological order")
	ErrInvalidPercentage   = errors.New("invalid weekly percentage")

	// Ledger errors
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrAmountPrecision        = errors.New("amount has more decimals than the currency allows")
	ErrInvalidPool            = errors.New("invalid pool")
	ErrInvalidKind            = errors.New("invalid ledger entry kind")
	ErrEngineAuthoredKind     = errors.New("performance fee entries are written by settlement only")
	ErrNonChronologicalLedger = errors.New("ledger entries are not in chronological order")
	ErrInsufficientBalance    = errors.New("withdrawal exceeds pool balance")
	ErrInvalidCurrency        = errors.New("invalid currency code")
	ErrNoteTooLong            = errors.New("note too long")

	// Arithmetic errors
	ErrOverflow = errors.New("monetary amount exceeds supported range")

	// Consistency errors
	ErrGenerationMismatch = errors.New("settlement generation changed during settlement")
)

// ValidationError reports malformed settlement input. No output is produced
// when it is returned.
type ValidationError struct {
	Field  string
	Detail string
	Err    error
}

// NewValidationError creates a ValidationError wrapping a sentinel.
func NewValidationError(field string, err error, detail string) *ValidationError {
	return &ValidationError{Field: field, Detail: detail, Err: err}
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("validation failed on %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("validation failed on %s: %v: %s", e.Field, e.Err, e.Detail)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ArithmeticError reports an overflow or an unrepresentable amount.
type ArithmeticError struct {
	Op    string
	Value string
	Err   error
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("arithmetic error in %s (value %s): %v", e.Op, e.Value, e.Err)
}

func (e *ArithmeticError) Unwrap() error { return e.Err }

// ConsistencyError reports that another settlement wrote results between our
// read and our write. The caller must retry the whole settlement.
type ConsistencyError struct {
	Expected int64
	Actual   int64
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%v: expected generation %d, found %d", ErrGenerationMismatch, e.Expected, e.Actual)
}

func (e *ConsistencyError) Unwrap() error { return ErrGenerationMismatch }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsArithmetic reports whether err is an ArithmeticError.
func IsArithmetic(err error) bool {
	var ae *ArithmeticError
	return errors.As(err, &ae)
}

// IsConsistency reports whether err is a ConsistencyError.
func IsConsistency(err error) bool {
	var ce *ConsistencyError
	return errors.As(err, &ce)
}
