package postgres

import (
	"context"

	"github.com/iho/gosettle/internal/domain"
	"github.com/iho/gosettle/internal/infrastructure/postgres/generated"
	"github.com/iho/gosettle/internal/usecase"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	queries *generated.Queries
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db generated.DBTX) *LedgerRepository {
	return &LedgerRepository{
		queries: generated.New(db),
	}
}

// Append inserts a ledger entry.
func (r *LedgerRepository) Append(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	return appendEntry(ctx, generated.New(tx.(*Tx).PgxTx()), entry)
}

// List returns entries newest first, optionally filtered by pool.
func (r *LedgerRepository) List(ctx context.Context, pool *domain.Pool, limit, offset int) ([]domain.LedgerEntry, error) {
	var (
		rows []generated.CapitalLedger
		err  error
	)

	if pool != nil {
		rows, err = r.queries.ListLedgerEntriesByPool(ctx, generated.ListLedgerEntriesByPoolParams{
			Pool:   string(*pool),
			Limit:  int32(limit),
			Offset: int32(offset),
		})
	} else {
		rows, err = r.queries.ListLedgerEntries(ctx, generated.ListLedgerEntriesParams{
			Limit:  int32(limit),
			Offset: int32(offset),
		})
	}
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows), nil
}

// ListTx returns every entry sorted by creation time, then id.
func (r *LedgerRepository) ListTx(ctx context.Context, tx usecase.Transaction) ([]domain.LedgerEntry, error) {
	rows, err := generated.New(tx.(*Tx).PgxTx()).ListLedgerChronological(ctx)
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows), nil
}

// Totals aggregates a pool's entries by kind.
func (r *LedgerRepository) Totals(ctx context.Context, pool domain.Pool) (*usecase.LedgerTotals, error) {
	row, err := r.queries.LedgerTotalsByPool(ctx, string(pool))
	if err != nil {
		return nil, err
	}

	return &usecase.LedgerTotals{
		Deposits:    numericToDecimal(row.Deposits),
		Withdrawals: numericToDecimal(row.Withdrawals),
		Fees:        numericToDecimal(row.Fees),
	}, nil
}

func appendEntry(ctx context.Context, queries *generated.Queries, entry *domain.LedgerEntry) error {
	return queries.AppendLedgerEntry(ctx, generated.AppendLedgerEntryParams{
		ID:        entry.ID,
		Pool:      string(entry.Pool),
		Kind:      string(entry.Kind),
		Amount:    decimalToNumeric(entry.Amount),
		Note:      entry.Note,
		CreatedAt: timeToPgTimestamptz(entry.CreatedAt),
	})
}

func rowsToEntries(rows []generated.CapitalLedger) []domain.LedgerEntry {
	entries := make([]domain.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, domain.LedgerEntry{
			ID:        row.ID,
			Pool:      domain.Pool(row.Pool),
			Kind:      domain.EntryKind(row.Kind),
			Amount:    numericToDecimal(row.Amount),
			Note:      row.Note,
			CreatedAt: row.CreatedAt.Time,
		})
	}

	return entries
}
