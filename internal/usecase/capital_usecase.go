package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gosettle/internal/domain"
)

// CapitalUseCase records deposits and withdrawals. Every entry re-settles.
type CapitalUseCase struct {
	mutator
	ledgerRepo LedgerRepository
	outboxRepo OutboxRepository
	idGen      IDGenerator
	places     int32
}

// NewCapitalUseCase creates a new CapitalUseCase. places is the number of
// decimals the settlement currency allows.
func NewCapitalUseCase(
	txManager TransactionManager,
	ledgerRepo LedgerRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	settler Settler,
	retrier Retrier,
	places int32,
) *CapitalUseCase {
	return &CapitalUseCase{
		mutator:    mutator{txManager: txManager, settler: settler, retrier: retrier},
		ledgerRepo: ledgerRepo,
		outboxRepo: outboxRepo,
		idGen:      idGen,
		places:     places,
	}
}

// RecordCapitalInput represents input for a deposit or a withdrawal.
type RecordCapitalInput struct {
	// EffectiveAt backdates the entry. Defaults to now.
	EffectiveAt *time.Time
	Pool        domain.Pool
	Note        string
	Amount      decimal.Decimal
}

// CapitalSummary aggregates one pool's ledger.
type CapitalSummary struct {
	Pool         domain.Pool
	Deposits     decimal.Decimal
	Withdrawals  decimal.Decimal
	Net          decimal.Decimal
	FeesReceived decimal.Decimal
}

// RecordDeposit appends a deposit and settles.
func (uc *CapitalUseCase) RecordDeposit(ctx context.Context, input RecordCapitalInput) (*domain.LedgerEntry, *SettlementReport, error) {
	return uc.record(ctx, domain.KindDeposit, input)
}

// RecordWithdrawal appends a withdrawal and settles. A withdrawal that
// overdraws its pool at any point of the replay is rejected.
func (uc *CapitalUseCase) RecordWithdrawal(ctx context.Context, input RecordCapitalInput) (*domain.LedgerEntry, *SettlementReport, error) {
	return uc.record(ctx, domain.KindWithdrawal, input)
}

func (uc *CapitalUseCase) record(ctx context.Context, kind domain.EntryKind, input RecordCapitalInput) (*domain.LedgerEntry, *SettlementReport, error) {
	if !input.Pool.Valid() {
		return nil, nil, domain.NewValidationError("pool", domain.ErrInvalidPool, string(input.Pool))
	}

	if err := domain.ValidateAmount(input.Amount, uc.places); err != nil {
		return nil, nil, err
	}

	if err := domain.ValidateNote(input.Note); err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	createdAt := now
	if input.EffectiveAt != nil {
		createdAt = input.EffectiveAt.UTC()
	}

	entry := &domain.LedgerEntry{
		ID:        uc.idGen.Generate(),
		Pool:      input.Pool,
		Kind:      kind,
		Amount:    input.Amount,
		Note:      input.Note,
		CreatedAt: createdAt,
	}

	report, err := uc.run(ctx, func(tx Transaction) error {
		if err := uc.ledgerRepo.Append(ctx, tx, entry); err != nil {
			return err
		}

		if uc.outboxRepo == nil {
			return nil
		}

		return uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   entry.ID,
			AggregateType: domain.AggregateTypeLedger,
			EventType:     domain.EventTypeCapitalRecorded,
			Payload: domain.Payload(domain.CapitalRecordedEvent{
				EntryID: entry.ID,
				Pool:    string(entry.Pool),
				Kind:    string(entry.Kind),
				Amount:  entry.Amount.String(),
			}),
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, nil, err
	}

	return entry, report, nil
}

// ListEntries returns ledger entries newest first, optionally for one pool.
func (uc *CapitalUseCase) ListEntries(ctx context.Context, pool *domain.Pool, limit, offset int) ([]domain.LedgerEntry, error) {
	limit, offset, err := domain.ValidatePagination(limit, offset)
	if err != nil {
		return nil, err
	}

	if pool != nil && !pool.Valid() {
		return nil, domain.NewValidationError("pool", domain.ErrInvalidPool, string(*pool))
	}

	return uc.ledgerRepo.List(ctx, pool, limit, offset)
}

// Summary aggregates a pool's deposits, withdrawals and received fees.
func (uc *CapitalUseCase) Summary(ctx context.Context, pool domain.Pool) (*CapitalSummary, error) {
	if !pool.Valid() {
		return nil, domain.NewValidationError("pool", domain.ErrInvalidPool, string(pool))
	}

	totals, err := uc.ledgerRepo.Totals(ctx, pool)
	if err != nil {
		return nil, err
	}

	return &CapitalSummary{
		Pool:         pool,
		Deposits:     totals.Deposits,
		Withdrawals:  totals.Withdrawals,
		Net:          totals.Deposits.Sub(totals.Withdrawals),
		FeesReceived: totals.Fees,
	}, nil
}
