package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gosettle/internal/domain"
	"github.com/iho/gosettle/internal/settlement"
)

// SettlementUseCase orchestrates settlement: it reads the inputs, runs the
// engine and persists the outputs atomically.
type SettlementUseCase struct {
	txManager  TransactionManager
	weekRepo   WeekRepository
	ledgerRepo LedgerRepository
	resultRepo ResultRepository
	outboxRepo OutboxRepository
	idGen      IDGenerator
	engine     *settlement.Engine
	retrier    Retrier
	cache      Cache
	observer   SettlementObserver
}

// NewSettlementUseCase creates a new SettlementUseCase. retrier, cache and
// observer may be nil.
func NewSettlementUseCase(
	txManager TransactionManager,
	weekRepo WeekRepository,
	ledgerRepo LedgerRepository,
	resultRepo ResultRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	engine *settlement.Engine,
	retrier Retrier,
	cache Cache,
	observer SettlementObserver,
) *SettlementUseCase {
	return &SettlementUseCase{
		txManager:  txManager,
		weekRepo:   weekRepo,
		ledgerRepo: ledgerRepo,
		resultRepo: resultRepo,
		outboxRepo: outboxRepo,
		idGen:      idGen,
		engine:     engine,
		retrier:    retrier,
		cache:      cache,
		observer:   observer,
	}
}

// SettlementReport summarizes one committed settlement.
type SettlementReport struct {
	SettledAt  time.Time
	Results    []domain.WeeklyResult
	State      domain.FinancialState
	TotalFees  decimal.Decimal
	Generation int64
	Duration   time.Duration
}

// Lock takes the settlement lock inside tx.
func (uc *SettlementUseCase) Lock(ctx context.Context, tx Transaction) error {
	return uc.resultRepo.Lock(ctx, tx)
}

// SettleTx replays the committed and in-flight inputs visible to tx and
// replaces every derived row. Nothing is written when the engine fails.
func (uc *SettlementUseCase) SettleTx(ctx context.Context, tx Transaction) (*SettlementReport, error) {
	start := time.Now()

	if err := uc.resultRepo.Lock(ctx, tx); err != nil {
		return nil, err
	}

	stored, err := uc.resultRepo.GetStateTx(ctx, tx)
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

	out, err := uc.engine.Settle(weeks, userEntries(entries))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	generation, err := uc.resultRepo.Replace(ctx, tx, stored.Generation, &Persisted{
		Results:    out.Results,
		FeeEntries: out.FeeEntries,
		State:      out.State,
		SettledAt:  now,
	})
	if err != nil {
		return nil, err
	}

	report := &SettlementReport{
		Generation: generation,
		Results:    out.Results,
		State:      out.State,
		TotalFees:  out.TotalFees(),
		SettledAt:  now,
	}

	if uc.outboxRepo != nil {
		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   domain.AggregateTypeSettlement,
			AggregateType: domain.AggregateTypeSettlement,
			EventType:     domain.EventTypeSettlementCompleted,
			Payload: domain.Payload(domain.SettlementCompletedEvent{
				Generation:      generation,
				WeeksSettled:    len(out.Results),
				CapitalBalance:  out.State.CapitalBalance.String(),
				OperatorBalance: out.State.OperatorBalance.String(),
				HWM:             out.State.HWM.String(),
				TotalFees:       report.TotalFees.String(),
			}),
			CreatedAt: now,
		}
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return nil, fmt.Errorf("write settlement event: %w", err)
		}
	}

	report.Duration = time.Since(start)

	return report, nil
}

// AfterCommit drops the cached state and records the settlement.
func (uc *SettlementUseCase) AfterCommit(ctx context.Context, report *SettlementReport) {
	if uc.cache != nil {
		_ = uc.cache.Delete(ctx, StateCacheKey)
	}

	if uc.observer != nil && report != nil {
		uc.observer.ObserveSettlement(report.Duration, report)
	}
}

// Recalculate runs a full settlement in its own transaction.
func (uc *SettlementUseCase) Recalculate(ctx context.Context) (*SettlementReport, error) {
	var report *SettlementReport

	err := uc.retry(ctx, func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		r, err := uc.SettleTx(ctx, tx)
		if err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		report = r
		return nil
	})
	if err != nil {
		uc.ObserveError(err)
		return nil, err
	}

	uc.AfterCommit(ctx, report)

	return report, nil
}

// GetFinancialState returns the stored state, read through the cache.
func (uc *SettlementUseCase) GetFinancialState(ctx context.Context) (*domain.StoredState, error) {
	if uc.cache != nil {
		if data, err := uc.cache.Get(ctx, StateCacheKey); err == nil && data != nil {
			var cached domain.StoredState
			if err := json.Unmarshal(data, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	state, err := uc.resultRepo.GetState(ctx)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if data, err := json.Marshal(state); err == nil {
			_ = uc.cache.Set(ctx, StateCacheKey, data, StateCacheTTL)
		}
	}

	return state, nil
}

// ListResults returns the stored weekly results in catalog order.
func (uc *SettlementUseCase) ListResults(ctx context.Context) ([]domain.WeeklyResult, error) {
	return uc.resultRepo.ListResults(ctx)
}

// Performance splits the capital pool's growth into trading profit and
// net deposits.
type Performance struct {
	WorkProfit     decimal.Decimal
	FeesPaid       decimal.Decimal
	NetDeposits    decimal.Decimal
	CapitalBalance decimal.Decimal
	// ReturnOnDeposits is WorkProfit over NetDeposits in percent, zero when
	// nothing is deposited.
	ReturnOnDeposits decimal.Decimal
	WeeksSettled     int
}

// Performance derives work profit versus deposit profit for the capital pool.
func (uc *SettlementUseCase) Performance(ctx context.Context) (*Performance, error) {
	results, err := uc.resultRepo.ListResults(ctx)
	if err != nil {
		return nil, err
	}

	totals, err := uc.ledgerRepo.Totals(ctx, domain.PoolCapital)
	if err != nil {
		return nil, err
	}

	state, err := uc.GetFinancialState(ctx)
	if err != nil {
		return nil, err
	}

	perf := &Performance{
		WorkProfit:       decimal.Zero,
		FeesPaid:         decimal.Zero,
		NetDeposits:      totals.Deposits.Sub(totals.Withdrawals),
		CapitalBalance:   state.CapitalBalance,
		ReturnOnDeposits: decimal.Zero,
		WeeksSettled:     len(results),
	}

	for i := range results {
		perf.WorkProfit = perf.WorkProfit.Add(results[i].CapitalPnL)
		perf.FeesPaid = perf.FeesPaid.Add(results[i].FeeGenerated)
	}
	perf.WorkProfit = perf.WorkProfit.Sub(perf.FeesPaid)

	if perf.NetDeposits.IsPositive() {
		perf.ReturnOnDeposits = perf.WorkProfit.Div(perf.NetDeposits).Shift(2).Round(domain.MaxPercentageScale)
	}

	return perf, nil
}

// ObserveError reports a failed settlement to the observer.
func (uc *SettlementUseCase) ObserveError(err error) {
	if uc.observer == nil {
		return
	}
	uc.observer.ObserveSettlementError(ErrorKind(err))
}

func (uc *SettlementUseCase) retry(ctx context.Context, op func() error) error {
	if uc.retrier == nil {
		return op()
	}
	return uc.retrier.Retry(ctx, op)
}

// ErrorKind classifies a settlement error for metrics.
func ErrorKind(err error) string {
	switch {
	case domain.IsValidation(err):
		return ErrorKindValidation
	case domain.IsArithmetic(err):
		return ErrorKindArithmetic
	case domain.IsConsistency(err), errors.Is(err, domain.ErrGenerationMismatch):
		return ErrorKindConsistency
	default:
		return ErrorKindInternal
	}
}

// userEntries drops rows settlement wrote itself; they are regenerated.
func userEntries(entries []domain.LedgerEntry) []domain.LedgerEntry {
	out := make([]domain.LedgerEntry, 0, len(entries))
	for i := range entries {
		if !entries[i].IsEngineOutput() {
			out = append(out, entries[i])
		}
	}
	return out
}
