package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"

	"github.com/iho/gosettle/internal/domain"
	"github.com/iho/gosettle/internal/usecase"
)

func num(s string) pgtype.Numeric {
	return decimalToNumeric(decimal.RequireFromString(s))
}

func ts(t time.Time) pgtype.Timestamptz {
	return timeToPgTimestamptz(t)
}

var weekColumns = []string{"id", "week_number", "start_date", "end_date", "percentage", "created_at"}

func TestWeekRepositoryListTx(t *testing.T) {
	mock := newMockPool(t)
	tx := beginTx(t, mock)
	repo := NewWeekRepository(mock)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM weeks ORDER BY start_date, week_number").
		WillReturnRows(pgxmock.NewRows(weekColumns).
			AddRow("w1", int32(1), timeToPgDate(start), timeToPgDate(start.AddDate(0, 0, 6)), num("10.5"), ts(start)).
			AddRow("w2", int32(2), timeToPgDate(start.AddDate(0, 0, 7)), timeToPgDate(start.AddDate(0, 0, 13)), num("-2"), ts(start)))

	weeks, err := repo.ListTx(context.Background(), tx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(weeks) != 2 {
		t.Fatalf("expected 2 weeks, got %d", len(weeks))
	}
	if !weeks[0].Percentage.Equal(decimal.RequireFromString("10.5")) {
		t.Fatalf("unexpected percentage %s", weeks[0].Percentage)
	}
	if !weeks[1].StartDate.Equal(start.AddDate(0, 0, 7)) {
		t.Fatalf("unexpected start date %s", weeks[1].StartDate)
	}

	assertExpectations(t, mock)
}

func TestWeekRepositoryGetByIDNotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewWeekRepository(mock)

	mock.ExpectQuery("FROM weeks WHERE id = ").WithArgs("missing").WillReturnError(pgx.ErrNoRows)

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, domain.ErrWeekNotFound) {
		t.Fatalf("expected ErrWeekNotFound, got %v", err)
	}
}

func TestWeekRepositoryCreateDuplicateNumber(t *testing.T) {
	mock := newMockPool(t)
	tx := beginTx(t, mock)
	repo := NewWeekRepository(mock)

	mock.ExpectExec("INSERT INTO weeks").
		WithArgs("w1", int32(3), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	err := repo.Create(context.Background(), tx, &domain.Week{ID: "w1", WeekNumber: 3})
	if !errors.Is(err, domain.ErrDuplicateWeekNumber) {
		t.Fatalf("expected duplicate week number, got %v", err)
	}
}

func TestWeekRepositoryDeleteMissing(t *testing.T) {
	mock := newMockPool(t)
	tx := beginTx(t, mock)
	repo := NewWeekRepository(mock)

	mock.ExpectExec("DELETE FROM weeks").WithArgs("w9").WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := repo.Delete(context.Background(), tx, "w9"); !errors.Is(err, domain.ErrWeekNotFound) {
		t.Fatalf("expected ErrWeekNotFound, got %v", err)
	}
}

func TestLedgerRepositoryListByPool(t *testing.T) {
	mock := newMockPool(t)
	repo := NewLedgerRepository(mock)

	at := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM capital_ledger\\s+WHERE pool = ").
		WithArgs("OPERATOR", int32(50), int32(0)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "pool", "kind", "amount", "note", "created_at"}).
			AddRow("e1", "OPERATOR", "DEPOSIT", num("12.34"), "seed", ts(at)))

	pool := domain.PoolOperator
	entries, err := repo.List(context.Background(), &pool, 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Kind != domain.KindDeposit || !entries[0].Amount.Equal(decimal.RequireFromString("12.34")) {
		t.Fatalf("unexpected entries %+v", entries)
	}

	assertExpectations(t, mock)
}

func TestLedgerRepositoryTotals(t *testing.T) {
	mock := newMockPool(t)
	repo := NewLedgerRepository(mock)

	mock.ExpectQuery("FROM capital_ledger WHERE pool = ").
		WithArgs("CAPITAL").
		WillReturnRows(pgxmock.NewRows([]string{"deposits", "withdrawals", "fees"}).
			AddRow(num("1000"), num("250.5"), num("0")))

	totals, err := repo.Totals(context.Background(), domain.PoolCapital)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !totals.Withdrawals.Equal(decimal.RequireFromString("250.5")) {
		t.Fatalf("unexpected withdrawals %s", totals.Withdrawals)
	}
}

func TestResultRepositoryReplace(t *testing.T) {
	mock := newMockPool(t)
	tx := beginTx(t, mock)
	repo := NewResultRepository(mock)
	anyArg := pgxmock.AnyArg()

	mock.ExpectQuery("UPDATE financial_state").
		WithArgs(anyArg, anyArg, anyArg, anyArg, int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"generation"}).AddRow(int64(4)))
	mock.ExpectExec("DELETE FROM weekly_results").WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("INSERT INTO weekly_results").
		WithArgs("w1", int32(1), int32(0), anyArg, anyArg, anyArg, anyArg, anyArg, anyArg, anyArg, anyArg, anyArg, anyArg).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("DELETE FROM capital_ledger WHERE kind = 'PERFORMANCE_FEE'").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("INSERT INTO capital_ledger").
		WithArgs("fee-w1", "OPERATOR", "PERFORMANCE_FEE", anyArg, "performance fee paid to operator", anyArg).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	generation, err := repo.Replace(context.Background(), tx, 3, &usecase.Persisted{
		Results: []domain.WeeklyResult{{WeekID: "w1", WeekNumber: 1}},
		FeeEntries: []domain.LedgerEntry{{
			ID: "fee-w1", Pool: domain.PoolOperator, Kind: domain.KindPerformanceFee,
			Amount: decimal.NewFromInt(3000), Note: "performance fee paid to operator",
		}},
		SettledAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if generation != 4 {
		t.Fatalf("expected generation 4, got %d", generation)
	}

	assertExpectations(t, mock)
}

func TestResultRepositoryReplaceGenerationMismatch(t *testing.T) {
	mock := newMockPool(t)
	tx := beginTx(t, mock)
	repo := NewResultRepository(mock)
	anyArg := pgxmock.AnyArg()

	mock.ExpectQuery("UPDATE financial_state").
		WithArgs(anyArg, anyArg, anyArg, anyArg, int64(3)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("FROM financial_state WHERE id = 1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "capital_balance", "operator_balance", "hwm", "generation", "settled_at"}).
			AddRow(int16(1), num("0"), num("0"), num("0"), int64(5), ts(time.Now())))

	_, err := repo.Replace(context.Background(), tx, 3, &usecase.Persisted{})

	var ce *domain.ConsistencyError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConsistencyError, got %v", err)
	}
	if ce.Expected != 3 || ce.Actual != 5 {
		t.Fatalf("unexpected generations %+v", ce)
	}

	assertExpectations(t, mock)
}

func TestResultRepositoryLock(t *testing.T) {
	mock := newMockPool(t)
	tx := beginTx(t, mock)
	repo := NewResultRepository(mock)

	mock.ExpectExec("SELECT pg_advisory_xact_lock").WithArgs(SettlementLockKey).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))

	if err := repo.Lock(context.Background(), tx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertExpectations(t, mock)
}

func TestResultRepositoryGetState(t *testing.T) {
	mock := newMockPool(t)
	repo := NewResultRepository(mock)

	mock.ExpectQuery("FROM financial_state WHERE id = 1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "capital_balance", "operator_balance", "hwm", "generation", "settled_at"}).
			AddRow(int16(1), num("107000"), num("3000"), num("110000"), int64(2), pgtype.Timestamptz{}))

	state, err := repo.GetState(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !state.HWM.Equal(decimal.NewFromInt(110000)) || state.Generation != 2 {
		t.Fatalf("unexpected state %+v", state)
	}
}

func TestOutboxRepositoryCreate(t *testing.T) {
	mock := newMockPool(t)
	tx := beginTx(t, mock)
	repo := NewOutboxRepository(mock)

	mock.ExpectExec("INSERT INTO outbox_events").
		WithArgs("ev1", "settlement", "settlement", domain.EventTypeSettlementCompleted,
			[]byte(`{"generation":1}`), pgxmock.AnyArg(), false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), tx, &domain.OutboxEvent{
		ID:            "ev1",
		AggregateID:   "settlement",
		AggregateType: domain.AggregateTypeSettlement,
		EventType:     domain.EventTypeSettlementCompleted,
		Payload:       map[string]any{"generation": 1},
		CreatedAt:     time.Now(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertExpectations(t, mock)
}

func TestNumericRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "107000", "-5350.25", "0.0001", "999999999999999.9999"} {
		got := numericToDecimal(num(s))
		if !got.Equal(decimal.RequireFromString(s)) {
			t.Fatalf("round trip of %s gave %s", s, got)
		}
	}
}
