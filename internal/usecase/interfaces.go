package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gosettle/internal/domain"
)

// WeekRepository defines data access for the week catalog.
type WeekRepository interface {
	Create(ctx context.Context, tx Transaction, week *domain.Week) error
	GetByID(ctx context.Context, id string) (*domain.Week, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Week, error)
	UpdatePercentage(ctx context.Context, tx Transaction, id string, percentage decimal.Decimal) error
	Delete(ctx context.Context, tx Transaction, id string) error
	// List returns the catalog sorted by start date, then week number.
	List(ctx context.Context) ([]domain.Week, error)
	ListTx(ctx context.Context, tx Transaction) ([]domain.Week, error)
	MaxWeekNumber(ctx context.Context, tx Transaction) (int, error)
}

// LedgerRepository defines data access for the append-only capital ledger.
type LedgerRepository interface {
	Append(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	// List returns entries newest first, optionally filtered by pool.
	List(ctx context.Context, pool *domain.Pool, limit, offset int) ([]domain.LedgerEntry, error)
	// ListTx returns every entry sorted by creation time, then id.
	ListTx(ctx context.Context, tx Transaction) ([]domain.LedgerEntry, error)
	Totals(ctx context.Context, pool domain.Pool) (*LedgerTotals, error)
}

// LedgerTotals aggregates a pool's ledger by kind.
type LedgerTotals struct {
	Deposits    decimal.Decimal
	Withdrawals decimal.Decimal
	Fees        decimal.Decimal
}

// ResultRepository persists settlement output: weekly results, engine-written
// fee entries and the singleton financial state.
type ResultRepository interface {
	// Lock takes the transaction-scoped settlement lock.
	Lock(ctx context.Context, tx Transaction) error
	GetState(ctx context.Context) (*domain.StoredState, error)
	GetStateTx(ctx context.Context, tx Transaction) (*domain.StoredState, error)
	ListResults(ctx context.Context) ([]domain.WeeklyResult, error)
	ListResultsTx(ctx context.Context, tx Transaction) ([]domain.WeeklyResult, error)
	// Replace swaps the whole derived set if the stored generation still
	// equals expected, and returns the new generation.
	Replace(ctx context.Context, tx Transaction, expected int64, out *Persisted) (int64, error)
}

// Persisted is everything one settlement writes.
type Persisted struct {
	Results    []domain.WeeklyResult
	FeeEntries []domain.LedgerEntry
	State      domain.FinancialState
	SettledAt  time.Time
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs an operation on transient failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Delete releases a claimed key so a later retry can run.
	Delete(ctx context.Context, key string) error
}

// SettlementObserver receives settlement outcomes, typically for metrics.
type SettlementObserver interface {
	ObserveSettlement(duration time.Duration, report *SettlementReport)
	ObserveSettlementError(kind string)
	ObserveDiscrepancies(count int)
}

// Settler runs a settlement inside a caller-owned transaction.
type Settler interface {
	// Lock serializes writers of the week catalog, the ledger and results.
	Lock(ctx context.Context, tx Transaction) error
	SettleTx(ctx context.Context, tx Transaction) (*SettlementReport, error)
	AfterCommit(ctx context.Context, report *SettlementReport)
	// ObserveError reports a settlement that failed inside a mutation.
	ObserveError(err error)
}
