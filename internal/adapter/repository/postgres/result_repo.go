package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/iho/gosettle/internal/domain"
	"github.com/iho/gosettle/internal/infrastructure/postgres/generated"
	"github.com/iho/gosettle/internal/usecase"
)

// SettlementLockKey is the pg_advisory_xact_lock key every settlement writer takes.
const SettlementLockKey int64 = 0x5e771e

// ResultRepository implements usecase.ResultRepository.
type ResultRepository struct {
	queries *generated.Queries
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(db generated.DBTX) *ResultRepository {
	return &ResultRepository{
		queries: generated.New(db),
	}
}

// Lock takes the transaction-scoped settlement lock. It is released on
// commit or rollback.
func (r *ResultRepository) Lock(ctx context.Context, tx usecase.Transaction) error {
	return generated.New(tx.(*Tx).PgxTx()).AcquireSettlementLock(ctx, SettlementLockKey)
}

// GetState reads the stored financial state.
func (r *ResultRepository) GetState(ctx context.Context) (*domain.StoredState, error) {
	return getState(ctx, r.queries)
}

// GetStateTx reads the stored financial state inside tx.
func (r *ResultRepository) GetStateTx(ctx context.Context, tx usecase.Transaction) (*domain.StoredState, error) {
	return getState(ctx, generated.New(tx.(*Tx).PgxTx()))
}

// ListResults returns stored results in catalog order.
func (r *ResultRepository) ListResults(ctx context.Context) ([]domain.WeeklyResult, error) {
	rows, err := r.queries.ListWeeklyResults(ctx)
	if err != nil {
		return nil, err
	}

	return rowsToResults(rows), nil
}

// ListResultsTx is ListResults inside tx.
func (r *ResultRepository) ListResultsTx(ctx context.Context, tx usecase.Transaction) ([]domain.WeeklyResult, error) {
	rows, err := generated.New(tx.(*Tx).PgxTx()).ListWeeklyResults(ctx)
	if err != nil {
		return nil, err
	}

	return rowsToResults(rows), nil
}

// Replace swaps results, fee entries and state. The state row is updated
// first so a concurrent writer fails before touching anything else.
func (r *ResultRepository) Replace(ctx context.Context, tx usecase.Transaction, expected int64, out *usecase.Persisted) (int64, error) {
	queries := generated.New(tx.(*Tx).PgxTx())

	generation, err := queries.UpdateFinancialState(ctx, generated.UpdateFinancialStateParams{
		CapitalBalance:  decimalToNumeric(out.State.CapitalBalance),
		OperatorBalance: decimalToNumeric(out.State.OperatorBalance),
		Hwm:             decimalToNumeric(out.State.HWM),
		SettledAt:       timeToPgTimestamptz(out.SettledAt),
		Generation:      expected,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			current, getErr := getState(ctx, queries)
			if getErr != nil {
				return 0, getErr
			}
			return 0, &domain.ConsistencyError{Expected: expected, Actual: current.Generation}
		}
		return 0, fmt.Errorf("update financial state: %w", err)
	}

	if err := queries.DeleteWeeklyResults(ctx); err != nil {
		return 0, fmt.Errorf("delete weekly results: %w", err)
	}

	for i := range out.Results {
		res := &out.Results[i]
		err := queries.InsertWeeklyResult(ctx, generated.InsertWeeklyResultParams{
			WeekID:        res.WeekID,
			WeekNumber:    int32(res.WeekNumber),
			Position:      int32(i),
			CapitalStart:  decimalToNumeric(res.CapitalStart),
			OperatorStart: decimalToNumeric(res.OperatorStart),
			CapitalPnl:    decimalToNumeric(res.CapitalPnL),
			OperatorPnl:   decimalToNumeric(res.OperatorPnL),
			FeeGenerated:  decimalToNumeric(res.FeeGenerated),
			CapitalEnd:    decimalToNumeric(res.CapitalEnd),
			OperatorEnd:   decimalToNumeric(res.OperatorEnd),
			HwmBefore:     decimalToNumeric(res.HWMBefore),
			HwmAfter:      decimalToNumeric(res.HWMAfter),
			SettledAt:     timeToPgTimestamptz(out.SettledAt),
		})
		if err != nil {
			return 0, fmt.Errorf("insert result for week %s: %w", res.WeekID, err)
		}
	}

	if err := queries.DeleteEngineLedgerEntries(ctx); err != nil {
		return 0, fmt.Errorf("delete fee entries: %w", err)
	}

	for i := range out.FeeEntries {
		if err := appendEntry(ctx, queries, &out.FeeEntries[i]); err != nil {
			return 0, fmt.Errorf("insert fee entry %s: %w", out.FeeEntries[i].ID, err)
		}
	}

	return generation, nil
}

func getState(ctx context.Context, queries *generated.Queries) (*domain.StoredState, error) {
	row, err := queries.GetFinancialState(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.StoredState{
		FinancialState: domain.FinancialState{
			CapitalBalance:  numericToDecimal(row.CapitalBalance),
			OperatorBalance: numericToDecimal(row.OperatorBalance),
			HWM:             numericToDecimal(row.Hwm),
		},
		Generation: row.Generation,
		SettledAt:  row.SettledAt.Time,
	}, nil
}

func rowsToResults(rows []generated.WeeklyResult) []domain.WeeklyResult {
	results := make([]domain.WeeklyResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, domain.WeeklyResult{
			WeekID:        row.WeekID,
			WeekNumber:    int(row.WeekNumber),
			CapitalStart:  numericToDecimal(row.CapitalStart),
			OperatorStart: numericToDecimal(row.OperatorStart),
			CapitalPnL:    numericToDecimal(row.CapitalPnl),
			OperatorPnL:   numericToDecimal(row.OperatorPnl),
			FeeGenerated:  numericToDecimal(row.FeeGenerated),
			CapitalEnd:    numericToDecimal(row.CapitalEnd),
			OperatorEnd:   numericToDecimal(row.OperatorEnd),
			HWMBefore:     numericToDecimal(row.HwmBefore),
			HWMAfter:      numericToDecimal(row.HwmAfter),
		})
	}

	return results
}
