package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Pool identifies one of the two capital pools.
type Pool string

const (
	// PoolCapital is the investor / funding pool.
	PoolCapital Pool = "CAPITAL"
	// PoolOperator is the pool rewarded with the performance fee.
	PoolOperator Pool = "OPERATOR"
)

// Valid reports whether p is a known pool.
func (p Pool) Valid() bool {
	return p == PoolCapital || p == PoolOperator
}

// ParsePool parses a pool name case-insensitively.
func ParsePool(s string) (Pool, error) {
	p := Pool(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", NewValidationError("pool", ErrInvalidPool, s)
	}
	return p, nil
}

// EntryKind is the type of capital movement.
type EntryKind string

const (
	KindDeposit        EntryKind = "DEPOSIT"
	KindWithdrawal     EntryKind = "WITHDRAWAL"
	KindPerformanceFee EntryKind = "PERFORMANCE_FEE"
)

// Valid reports whether k is a known kind.
func (k EntryKind) Valid() bool {
	switch k {
	case KindDeposit, KindWithdrawal, KindPerformanceFee:
		return true
	}
	return false
}

// LedgerEntry is an append-only capital movement against a pool.
// PERFORMANCE_FEE entries are written by settlement only.
type LedgerEntry struct {
	CreatedAt time.Time
	ID        string
	Pool      Pool
	Kind      EntryKind
	Note      string
	Amount    decimal.Decimal
}

// SignedAmount returns the effect of the entry on its pool balance.
// Fee entries have no effect: they record a transfer settlement already made.
func (e *LedgerEntry) SignedAmount() decimal.Decimal {
	switch e.Kind {
	case KindDeposit:
		return e.Amount
	case KindWithdrawal:
		return e.Amount.Neg()
	default:
		return decimal.Zero
	}
}

// IsEngineOutput reports whether the entry was written by settlement.
func (e *LedgerEntry) IsEngineOutput() bool {
	return e.Kind == KindPerformanceFee
}

// FeeEntryID returns the deterministic id of the fee entry for a week.
func FeeEntryID(weekID string) string {
	return "fee-" + weekID
}
