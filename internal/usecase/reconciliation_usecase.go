package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gosettle/internal/domain"
	"github.com/iho/gosettle/internal/settlement"
)

// ReconciliationUseCase detects drift between stored settlement output and a
// fresh replay of the inputs.
type ReconciliationUseCase struct {
	txManager  TransactionManager
	weekRepo   WeekRepository
	ledgerRepo LedgerRepository
	resultRepo ResultRepository
	engine     *settlement.Engine
	observer   SettlementObserver
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	txManager TransactionManager,
	weekRepo WeekRepository,
	ledgerRepo LedgerRepository,
	resultRepo ResultRepository,
	engine *settlement.Engine,
	observer SettlementObserver,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		txManager:  txManager,
		weekRepo:   weekRepo,
		ledgerRepo: ledgerRepo,
		resultRepo: resultRepo,
		engine:     engine,
		observer:   observer,
	}
}

// Discrepancy is one stored value that differs from the replay.
type Discrepancy struct {
	// Scope is a week id, "state" or a fee entry id.
	Scope    string
	Field    string
	Stored   string
	Replayed string
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	CheckedAt     time.Time
	Discrepancies []Discrepancy
	Generation    int64
	WeeksChecked  int
	Consistent    bool
}

// Reconcile replays the stored inputs and compares every derived value.
// It holds the settlement lock so every read sees the same generation.
func (uc *ReconciliationUseCase) Reconcile(ctx context.Context) (*ReconciliationReport, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.resultRepo.Lock(ctx, tx); err != nil {
		return nil, err
	}

	state, err := uc.resultRepo.GetStateTx(ctx, tx)
	if err != nil {
		return nil, err
	}

	weeks, err := uc.weekRepo.ListTx(ctx, tx)
	if err != nil {
		return nil, err
	}

	entries, err := uc.ledgerRepo.ListTx(ctx, tx)
	if err != nil {
		return nil, err
	}

	stored, err := uc.resultRepo.ListResultsTx(ctx, tx)
	if err != nil {
		return nil, err
	}

	replay, err := uc.engine.Settle(weeks, userEntries(entries))
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		CheckedAt:     time.Now().UTC(),
		Generation:    state.Generation,
		WeeksChecked:  len(replay.Results),
		Discrepancies: make([]Discrepancy, 0),
	}

	report.Discrepancies = append(report.Discrepancies, compareResults(stored, replay.Results)...)
	report.Discrepancies = append(report.Discrepancies, compareState(state.FinancialState, replay.State)...)
	report.Discrepancies = append(report.Discrepancies, compareFees(entries, replay.FeeEntries)...)
	report.Consistent = len(report.Discrepancies) == 0

	if uc.observer != nil {
		uc.observer.ObserveDiscrepancies(len(report.Discrepancies))
	}

	return report, nil
}

func compareResults(stored, replayed []domain.WeeklyResult) []Discrepancy {
	var out []Discrepancy

	byWeek := make(map[string]*domain.WeeklyResult, len(stored))
	for i := range stored {
		byWeek[stored[i].WeekID] = &stored[i]
	}

	for i := range replayed {
		want := &replayed[i]
		got, ok := byWeek[want.WeekID]
		if !ok {
			out = append(out, Discrepancy{Scope: want.WeekID, Field: "result", Stored: "missing", Replayed: "present"})
			continue
		}
		delete(byWeek, want.WeekID)

		if got.Equal(want) {
			continue
		}

		fields := []struct {
			name     string
			got, exp decimal.Decimal
		}{
			{"capital_start", got.CapitalStart, want.CapitalStart},
			{"operator_start", got.OperatorStart, want.OperatorStart},
			{"capital_pnl", got.CapitalPnL, want.CapitalPnL},
			{"operator_pnl", got.OperatorPnL, want.OperatorPnL},
			{"fee_generated", got.FeeGenerated, want.FeeGenerated},
			{"capital_end", got.CapitalEnd, want.CapitalEnd},
			{"operator_end", got.OperatorEnd, want.OperatorEnd},
			{"hwm_before", got.HWMBefore, want.HWMBefore},
			{"hwm_after", got.HWMAfter, want.HWMAfter},
		}
		for _, f := range fields {
			if !f.got.Equal(f.exp) {
				out = append(out, Discrepancy{Scope: want.WeekID, Field: f.name, Stored: f.got.String(), Replayed: f.exp.String()})
			}
		}
	}

	for id := range byWeek {
		out = append(out, Discrepancy{Scope: id, Field: "result", Stored: "present", Replayed: "missing"})
	}

	return out
}

func compareState(stored, replayed domain.FinancialState) []Discrepancy {
	var out []Discrepancy

	if !stored.CapitalBalance.Equal(replayed.CapitalBalance) {
		out = append(out, Discrepancy{Scope: "state", Field: "capital_balance",
			Stored: stored.CapitalBalance.String(), Replayed: replayed.CapitalBalance.String()})
	}
	if !stored.OperatorBalance.Equal(replayed.OperatorBalance) {
		out = append(out, Discrepancy{Scope: "state", Field: "operator_balance",
			Stored: stored.OperatorBalance.String(), Replayed: replayed.OperatorBalance.String()})
	}
	if !stored.HWM.Equal(replayed.HWM) {
		out = append(out, Discrepancy{Scope: "state", Field: "hwm",
			Stored: stored.HWM.String(), Replayed: replayed.HWM.String()})
	}

	return out
}

func compareFees(entries, replayed []domain.LedgerEntry) []Discrepancy {
	var out []Discrepancy

	stored := make(map[string]decimal.Decimal)
	for i := range entries {
		if entries[i].IsEngineOutput() {
			stored[entries[i].ID] = entries[i].Amount
		}
	}

	for i := range replayed {
		want := &replayed[i]
		got, ok := stored[want.ID]
		switch {
		case !ok:
			out = append(out, Discrepancy{Scope: want.ID, Field: "amount", Stored: "missing", Replayed: want.Amount.String()})
		case !got.Equal(want.Amount):
			out = append(out, Discrepancy{Scope: want.ID, Field: "amount", Stored: got.String(), Replayed: want.Amount.String()})
		}
		delete(stored, want.ID)
	}

	for id, amount := range stored {
		out = append(out, Discrepancy{Scope: id, Field: "amount", Stored: amount.String(), Replayed: "missing"})
	}

	return out
}
