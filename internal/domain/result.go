package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WeeklyResult is the settled snapshot of one week. It is derived data and
// can always be recomputed from the week catalog and the ledger.
type WeeklyResult struct {
	WeekID        string
	WeekNumber    int
	CapitalStart  decimal.Decimal
	OperatorStart decimal.Decimal
	CapitalPnL    decimal.Decimal
	OperatorPnL   decimal.Decimal
	FeeGenerated  decimal.Decimal
	CapitalEnd    decimal.Decimal
	OperatorEnd   decimal.Decimal
	HWMBefore     decimal.Decimal
	HWMAfter      decimal.Decimal
}

// Conserved reports whether the fee only moved value between the pools.
func (r *WeeklyResult) Conserved() bool {
	before := r.CapitalStart.Add(r.OperatorStart).Add(r.CapitalPnL).Add(r.OperatorPnL)
	return r.CapitalEnd.Add(r.OperatorEnd).Equal(before)
}

// Equal compares every monetary field exactly.
func (r *WeeklyResult) Equal(o *WeeklyResult) bool {
	return r.WeekID == o.WeekID &&
		r.WeekNumber == o.WeekNumber &&
		r.CapitalStart.Equal(o.CapitalStart) &&
		r.OperatorStart.Equal(o.OperatorStart) &&
		r.CapitalPnL.Equal(o.CapitalPnL) &&
		r.OperatorPnL.Equal(o.OperatorPnL) &&
		r.FeeGenerated.Equal(o.FeeGenerated) &&
		r.CapitalEnd.Equal(o.CapitalEnd) &&
		r.OperatorEnd.Equal(o.OperatorEnd) &&
		r.HWMBefore.Equal(o.HWMBefore) &&
		r.HWMAfter.Equal(o.HWMAfter)
}

// FinancialState is the current balance of both pools and the high-water mark.
type FinancialState struct {
	CapitalBalance  decimal.Decimal
	OperatorBalance decimal.Decimal
	HWM             decimal.Decimal
}

// Equal compares the state exactly.
func (s FinancialState) Equal(o FinancialState) bool {
	return s.CapitalBalance.Equal(o.CapitalBalance) &&
		s.OperatorBalance.Equal(o.OperatorBalance) &&
		s.HWM.Equal(o.HWM)
}

// StoredState is the persisted singleton state with its write generation.
type StoredState struct {
	FinancialState
	Generation int64
	SettledAt  time.Time
}
