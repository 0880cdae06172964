package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gosettle/internal/domain"
)

// WeekUseCase manages the week catalog. Every change re-settles.
type WeekUseCase struct {
	mutator
	weekRepo   WeekRepository
	resultRepo ResultRepository
	outboxRepo OutboxRepository
	idGen      IDGenerator
}

// NewWeekUseCase creates a new WeekUseCase.
func NewWeekUseCase(
	txManager TransactionManager,
	weekRepo WeekRepository,
	resultRepo ResultRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	settler Settler,
	retrier Retrier,
) *WeekUseCase {
	return &WeekUseCase{
		mutator:    mutator{txManager: txManager, settler: settler, retrier: retrier},
		weekRepo:   weekRepo,
		resultRepo: resultRepo,
		outboxRepo: outboxRepo,
		idGen:      idGen,
	}
}

// CreateWeekInput represents input for creating a week.
type CreateWeekInput struct {
	// WeekNumber is assigned sequentially when nil.
	WeekNumber *int
	StartDate  time.Time
	EndDate    time.Time
	Percentage decimal.Decimal
}

// WeekWithResult pairs a week with its stored result, if settled.
type WeekWithResult struct {
	Week   domain.Week
	Result *domain.WeeklyResult
}

// CreateWeek adds a week to the catalog and settles.
func (uc *WeekUseCase) CreateWeek(ctx context.Context, input CreateWeekInput) (*domain.Week, *SettlementReport, error) {
	if err := domain.ValidatePercentage(input.Percentage); err != nil {
		return nil, nil, err
	}

	var week *domain.Week

	report, err := uc.run(ctx, func(tx Transaction) error {
		number := 0
		if input.WeekNumber != nil {
			number = *input.WeekNumber
		} else {
			maxNumber, err := uc.weekRepo.MaxWeekNumber(ctx, tx)
			if err != nil {
				return err
			}
			number = maxNumber + 1
		}

		week = &domain.Week{
			ID:         uc.idGen.Generate(),
			WeekNumber: number,
			StartDate:  domain.Day(input.StartDate),
			EndDate:    domain.Day(input.EndDate),
			Percentage: input.Percentage,
			CreatedAt:  time.Now().UTC(),
		}

		if err := week.Validate(); err != nil {
			return err
		}

		existing, err := uc.weekRepo.ListTx(ctx, tx)
		if err != nil {
			return err
		}

		if err := checkCatalog(week, existing); err != nil {
			return err
		}

		if err := uc.weekRepo.Create(ctx, tx, week); err != nil {
			return err
		}

		return uc.emit(ctx, tx, domain.EventTypeWeekCreated, week)
	})
	if err != nil {
		return nil, nil, err
	}

	return week, report, nil
}

// UpdateWeekPercentage changes the return of an existing week and settles.
func (uc *WeekUseCase) UpdateWeekPercentage(ctx context.Context, id string, percentage decimal.Decimal) (*domain.Week, *SettlementReport, error) {
	if err := domain.ValidatePercentage(percentage); err != nil {
		return nil, nil, err
	}

	var week *domain.Week

	report, err := uc.run(ctx, func(tx Transaction) error {
		w, err := uc.weekRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := uc.weekRepo.UpdatePercentage(ctx, tx, id, percentage); err != nil {
			return err
		}

		w.Percentage = percentage
		week = w

		return uc.emit(ctx, tx, domain.EventTypeWeekUpdated, w)
	})
	if err != nil {
		return nil, nil, err
	}

	return week, report, nil
}

// DeleteWeek removes a week and settles. Its result and fee entry go away
// with the settlement.
func (uc *WeekUseCase) DeleteWeek(ctx context.Context, id string) (*SettlementReport, error) {
	return uc.run(ctx, func(tx Transaction) error {
		w, err := uc.weekRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := uc.weekRepo.Delete(ctx, tx, id); err != nil {
			return err
		}

		return uc.emit(ctx, tx, domain.EventTypeWeekDeleted, w)
	})
}

// GetWeek returns a week by ID.
func (uc *WeekUseCase) GetWeek(ctx context.Context, id string) (*domain.Week, error) {
	return uc.weekRepo.GetByID(ctx, id)
}

// ListWeeks returns the catalog in settlement order.
func (uc *WeekUseCase) ListWeeks(ctx context.Context) ([]domain.Week, error) {
	return uc.weekRepo.List(ctx)
}

// ListWeeksWithResults joins each week with its stored result. Both are read
// under the settlement lock, so a week never pairs with another generation's
// result.
func (uc *WeekUseCase) ListWeeksWithResults(ctx context.Context) ([]WeekWithResult, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.resultRepo.Lock(ctx, tx); err != nil {
		return nil, err
	}

	weeks, err := uc.weekRepo.ListTx(ctx, tx)
	if err != nil {
		return nil, err
	}

	results, err := uc.resultRepo.ListResultsTx(ctx, tx)
	if err != nil {
		return nil, err
	}

	byWeek := make(map[string]*domain.WeeklyResult, len(results))
	for i := range results {
		byWeek[results[i].WeekID] = &results[i]
	}

	out := make([]WeekWithResult, 0, len(weeks))
	for _, w := range weeks {
		out = append(out, WeekWithResult{Week: w, Result: byWeek[w.ID]})
	}

	return out, nil
}

func (uc *WeekUseCase) emit(ctx context.Context, tx Transaction, eventType string, w *domain.Week) error {
	if uc.outboxRepo == nil {
		return nil
	}

	return uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   w.ID,
		AggregateType: domain.AggregateTypeWeek,
		EventType:     eventType,
		Payload: domain.Payload(domain.WeekChangedEvent{
			WeekID:     w.ID,
			WeekNumber: w.WeekNumber,
			Percentage: w.Percentage.String(),
		}),
		CreatedAt: time.Now().UTC(),
	})
}

// checkCatalog rejects a week that reuses a number or shares a day with an
// existing week.
func checkCatalog(week *domain.Week, existing []domain.Week) error {
	for i := range existing {
		other := &existing[i]
		if other.WeekNumber == week.WeekNumber {
			return domain.NewValidationError("week_number", domain.ErrDuplicateWeekNumber,
				fmt.Sprintf("week %d already exists", week.WeekNumber))
		}
		if week.Overlaps(other) {
			return domain.NewValidationError("start_date", domain.ErrWeekOverlap,
				fmt.Sprintf("overlaps week %d", other.WeekNumber))
		}
	}
	return nil
}
