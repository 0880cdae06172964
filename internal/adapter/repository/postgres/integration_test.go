package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gosettle/internal/adapter/repository/postgres"
	"github.com/iho/gosettle/internal/domain"
	infrapg "github.com/iho/gosettle/internal/infrastructure/postgres"
	"github.com/iho/gosettle/internal/settlement"
	"github.com/iho/gosettle/internal/usecase"
)

const migrationsPath = "../../../infrastructure/postgres/migrations"

// integrationEnv runs the use cases against a real database named by
// DATABASE_URL. Every test starts from empty tables.
type integrationEnv struct {
	pool       *pgxpool.Pool
	outbox     *postgres.OutboxRepository
	settlement *usecase.SettlementUseCase
	weeks      *usecase.WeekUseCase
	capital    *usecase.CapitalUseCase
	reconcile  *usecase.ReconciliationUseCase
}

func newIntegrationEnv(t *testing.T) *integrationEnv {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	require.NoError(t, infrapg.RunMigrations(dbURL, migrationsPath))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := infrapg.NewPool(ctx, dbURL, 10, 2)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE weekly_results, weeks, capital_ledger, outbox_events`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `UPDATE financial_state
		SET capital_balance = 0, operator_balance = 0, hwm = 0, generation = 0, settled_at = NULL`)
	require.NoError(t, err)

	engine, err := settlement.New(settlement.Options{Currency: "USD"})
	require.NoError(t, err)

	txManager := postgres.NewTxManager(pool).WithStatementTimeout(5 * time.Second)
	weekRepo := postgres.NewWeekRepository(pool)
	ledgerRepo := postgres.NewLedgerRepository(pool)
	resultRepo := postgres.NewResultRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)
	idGen := postgres.NewULIDGenerator()
	retrier := postgres.NewRetrier(zerolog.Nop())

	settlementUC := usecase.NewSettlementUseCase(txManager, weekRepo, ledgerRepo, resultRepo, outboxRepo,
		idGen, engine, retrier, nil, nil)

	return &integrationEnv{
		pool:       pool,
		outbox:     outboxRepo,
		settlement: settlementUC,
		weeks:      usecase.NewWeekUseCase(txManager, weekRepo, resultRepo, outboxRepo, idGen, settlementUC, retrier),
		capital:    usecase.NewCapitalUseCase(txManager, ledgerRepo, outboxRepo, idGen, settlementUC, retrier, engine.Places()),
		reconcile:  usecase.NewReconciliationUseCase(txManager, weekRepo, ledgerRepo, resultRepo, engine, nil),
	}
}

func (e *integrationEnv) deposit(t *testing.T, pool domain.Pool, amount string, at time.Time) {
	t.Helper()

	_, _, err := e.capital.RecordDeposit(context.Background(), usecase.RecordCapitalInput{
		EffectiveAt: &at,
		Pool:        pool,
		Amount:      decimal.RequireFromString(amount),
	})
	require.NoError(t, err)
}

func (e *integrationEnv) week(t *testing.T, start, end, pct string) *domain.Week {
	t.Helper()

	s, err := time.Parse("2006-01-02", start)
	require.NoError(t, err)
	en, err := time.Parse("2006-01-02", end)
	require.NoError(t, err)

	w, _, err := e.weeks.CreateWeek(context.Background(), usecase.CreateWeekInput{
		StartDate:  s,
		EndDate:    en,
		Percentage: decimal.RequireFromString(pct),
	})
	require.NoError(t, err)
	return w
}

func assertState(t *testing.T, state *domain.StoredState, capital, operator, hwm string) {
	t.Helper()

	assert.True(t, decimal.RequireFromString(capital).Equal(state.CapitalBalance),
		"capital: want %s, got %s", capital, state.CapitalBalance)
	assert.True(t, decimal.RequireFromString(operator).Equal(state.OperatorBalance),
		"operator: want %s, got %s", operator, state.OperatorBalance)
	assert.True(t, decimal.RequireFromString(hwm).Equal(state.HWM),
		"hwm: want %s, got %s", hwm, state.HWM)
}

func TestIntegration_SettlementLifecycle(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()

	env.deposit(t, domain.PoolCapital, "100000", time.Date(2023, 12, 31, 10, 0, 0, 0, time.UTC))
	env.week(t, "2024-01-01", "2024-01-07", "10")
	second := env.week(t, "2024-01-08", "2024-01-14", "-5")

	state, err := env.settlement.GetFinancialState(ctx)
	require.NoError(t, err)
	assertState(t, state, "101650", "2850", "110000")
	assert.Equal(t, int64(3), state.Generation)

	results, err := env.settlement.ListResults(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, decimal.RequireFromString("3000").Equal(results[0].FeeGenerated))

	report, err := env.reconcile.Reconcile(ctx)
	require.NoError(t, err)
	assert.True(t, report.Consistent, "discrepancies: %+v", report.Discrepancies)

	_, err = env.weeks.DeleteWeek(ctx, second.ID)
	require.NoError(t, err)

	state, err = env.settlement.GetFinancialState(ctx)
	require.NoError(t, err)
	assertState(t, state, "107000", "3000", "110000")

	events, err := env.outbox.GetUnpublished(ctx, 100)
	require.NoError(t, err)
	assert.NotEmpty(t, events)
}

func TestIntegration_OverdraftRollsBack(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()

	env.deposit(t, domain.PoolCapital, "100", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	_, _, err := env.capital.RecordWithdrawal(ctx, usecase.RecordCapitalInput{
		Pool:   domain.PoolCapital,
		Amount: decimal.RequireFromString("100.01"),
	})
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	entries, err := env.capital.ListEntries(ctx, nil, 0, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "rejected withdrawal must not be stored")

	state, err := env.settlement.GetFinancialState(ctx)
	require.NoError(t, err)
	assertState(t, state, "100", "0", "0")
	assert.Equal(t, int64(1), state.Generation)
}

func TestIntegration_ConcurrentDeposits(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()

	const workers = 10

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := env.capital.RecordDeposit(ctx, usecase.RecordCapitalInput{
				Pool:   domain.PoolCapital,
				Amount: decimal.NewFromInt(10),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	state, err := env.settlement.GetFinancialState(ctx)
	require.NoError(t, err)
	assertState(t, state, "100", "0", "0")
	assert.Equal(t, int64(workers), state.Generation)

	report, err := env.reconcile.Reconcile(ctx)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
}
