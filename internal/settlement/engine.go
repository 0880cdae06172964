// Package settlement replays the week catalog and the capital ledger into
// per-week results and the current financial state.
//
// The engine is a pure function of its two inputs: it performs no I/O and
// keeps nothing between calls. Callers are responsible for reading the inputs
// and writing the outputs under a single-writer discipline.
package settlement

import (
	"github.com/shopspring/decimal"

	"github.com/iho/gosettle/internal/domain"
)

// DefaultCurrency is used when Options.Currency is empty.
const DefaultCurrency = "USD"

// Options configures an Engine.
type Options struct {
	// Currency whose minor unit every produced amount is rounded to.
	Currency string
}

// Engine settles weeks against the ledger.
type Engine struct {
	policy policy
}

// Settlement is the complete output of one replay.
type Settlement struct {
	Results []domain.WeeklyResult
	State   domain.FinancialState
	// FeeEntries are the PERFORMANCE_FEE records of every week with a fee.
	FeeEntries []domain.LedgerEntry
}

// TotalFees sums the fees of every settled week.
func (s *Settlement) TotalFees() decimal.Decimal {
	total := decimal.Zero
	for i := range s.Results {
		total = total.Add(s.Results[i].FeeGenerated)
	}
	return total
}

// New creates an Engine.
func New(opts Options) (*Engine, error) {
	if opts.Currency == "" {
		opts.Currency = DefaultCurrency
	}

	p, err := newPolicy(opts.Currency)
	if err != nil {
		return nil, err
	}

	return &Engine{policy: p}, nil
}

// Currency returns the ISO code the engine rounds to.
func (e *Engine) Currency() string {
	return e.policy.currency
}

// Places returns the number of decimals of the currency's minor unit.
func (e *Engine) Places() int32 {
	return e.policy.places
}

// Settle replays weeks (sorted by start date, then week number) against the
// ledger (sorted by creation time). It either returns a complete settlement
// or an error and nothing else.
func (e *Engine) Settle(weeks []domain.Week, ledger []domain.LedgerEntry) (*Settlement, error) {
	if err := validateWeeks(weeks); err != nil {
		return nil, err
	}

	if err := validateLedger(e.policy, ledger); err != nil {
		return nil, err
	}

	cur := pools{capital: decimal.Zero, operator: decimal.Zero, hwm: decimal.Zero}
	entries := newCursor(ledger)

	out := &Settlement{
		Results:    make([]domain.WeeklyResult, 0, len(weeks)),
		FeeEntries: make([]domain.LedgerEntry, 0),
	}

	for i := range weeks {
		w := &weeks[i]

		var err error
		if cur, err = entries.applyBefore(e.policy, w.Cutoff(), cur); err != nil {
			return nil, err
		}

		res, err := e.policy.settleWeek(w, cur)
		if err != nil {
			return nil, err
		}

		out.Results = append(out.Results, res)
		if res.FeeGenerated.IsPositive() {
			out.FeeEntries = append(out.FeeEntries, feeEntry(w, res.FeeGenerated))
		}

		cur = pools{capital: res.CapitalEnd, operator: res.OperatorEnd, hwm: res.HWMAfter}
	}

	cur, err := entries.applyRest(e.policy, cur)
	if err != nil {
		return nil, err
	}

	out.State = domain.FinancialState{
		CapitalBalance:  cur.capital,
		OperatorBalance: cur.operator,
		HWM:             cur.hwm,
	}

	return out, nil
}

func feeEntry(w *domain.Week, fee decimal.Decimal) domain.LedgerEntry {
	return domain.LedgerEntry{
		ID:        domain.FeeEntryID(w.ID),
		Pool:      domain.PoolOperator,
		Kind:      domain.KindPerformanceFee,
		Amount:    fee,
		Note:      "performance fee paid to operator",
		CreatedAt: domain.Day(w.EndDate),
	}
}
