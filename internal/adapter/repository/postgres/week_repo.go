package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/gosettle/internal/domain"
	"github.com/iho/gosettle/internal/infrastructure/postgres/generated"
	"github.com/iho/gosettle/internal/usecase"
)

// WeekRepository implements usecase.WeekRepository.
type WeekRepository struct {
	queries *generated.Queries
}

// NewWeekRepository creates a new WeekRepository.
func NewWeekRepository(db generated.DBTX) *WeekRepository {
	return &WeekRepository{
		queries: generated.New(db),
	}
}

// Create inserts a week.
func (r *WeekRepository) Create(ctx context.Context, tx usecase.Transaction, week *domain.Week) error {
	queries := generated.New(tx.(*Tx).PgxTx())

	err := queries.CreateWeek(ctx, generated.CreateWeekParams{
		ID:         week.ID,
		WeekNumber: int32(week.WeekNumber),
		StartDate:  timeToPgDate(week.StartDate),
		EndDate:    timeToPgDate(week.EndDate),
		Percentage: decimalToNumeric(week.Percentage),
		CreatedAt:  timeToPgTimestamptz(week.CreatedAt),
	})
	if isUniqueViolation(err) {
		return domain.NewValidationError("week_number", domain.ErrDuplicateWeekNumber, "")
	}

	return err
}

// GetByID retrieves a week by ID.
func (r *WeekRepository) GetByID(ctx context.Context, id string) (*domain.Week, error) {
	row, err := r.queries.GetWeekByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWeekNotFound
		}

		return nil, err
	}

	return rowToWeek(row), nil
}

// GetByIDForUpdate retrieves a week by ID with a FOR UPDATE lock.
func (r *WeekRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Week, error) {
	queries := generated.New(tx.(*Tx).PgxTx())

	row, err := queries.GetWeekByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWeekNotFound
		}

		return nil, err
	}

	return rowToWeek(row), nil
}

// UpdatePercentage sets the weekly return.
func (r *WeekRepository) UpdatePercentage(ctx context.Context, tx usecase.Transaction, id string, percentage decimal.Decimal) error {
	queries := generated.New(tx.(*Tx).PgxTx())

	n, err := queries.UpdateWeekPercentage(ctx, generated.UpdateWeekPercentageParams{
		ID:         id,
		Percentage: decimalToNumeric(percentage),
	})
	if err != nil {
		return err
	}

	if n == 0 {
		return domain.ErrWeekNotFound
	}

	return nil
}

// Delete removes a week. Its stored result is removed by cascade.
func (r *WeekRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	queries := generated.New(tx.(*Tx).PgxTx())

	n, err := queries.DeleteWeek(ctx, id)
	if err != nil {
		return err
	}

	if n == 0 {
		return domain.ErrWeekNotFound
	}

	return nil
}

// List returns the catalog sorted by start date, then week number.
func (r *WeekRepository) List(ctx context.Context) ([]domain.Week, error) {
	rows, err := r.queries.ListWeeks(ctx)
	if err != nil {
		return nil, err
	}

	return rowsToWeeks(rows), nil
}

// ListTx is List inside a transaction.
func (r *WeekRepository) ListTx(ctx context.Context, tx usecase.Transaction) ([]domain.Week, error) {
	rows, err := generated.New(tx.(*Tx).PgxTx()).ListWeeks(ctx)
	if err != nil {
		return nil, err
	}

	return rowsToWeeks(rows), nil
}

// MaxWeekNumber returns the highest week number, 0 for an empty catalog.
func (r *WeekRepository) MaxWeekNumber(ctx context.Context, tx usecase.Transaction) (int, error) {
	n, err := generated.New(tx.(*Tx).PgxTx()).MaxWeekNumber(ctx)
	return int(n), err
}

func rowsToWeeks(rows []generated.Week) []domain.Week {
	weeks := make([]domain.Week, 0, len(rows))
	for _, row := range rows {
		weeks = append(weeks, *rowToWeek(row))
	}

	return weeks
}

func rowToWeek(row generated.Week) *domain.Week {
	return &domain.Week{
		ID:         row.ID,
		WeekNumber: int(row.WeekNumber),
		StartDate:  pgDateToTime(row.StartDate),
		EndDate:    pgDateToTime(row.EndDate),
		Percentage: numericToDecimal(row.Percentage),
		CreatedAt:  row.CreatedAt.Time,
	}
}
