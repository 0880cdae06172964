package usecase

import "context"

// mutator applies an input change and the settlement it triggers in one
// transaction: an input that makes settlement fail is never committed.
type mutator struct {
	txManager TransactionManager
	settler   Settler
	retrier   Retrier
}

func (m mutator) run(ctx context.Context, change func(tx Transaction) error) (*SettlementReport, error) {
	var (
		report    *SettlementReport
		settleErr error
	)

	op := func() error {
		settleErr = nil

		tx, err := m.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		if err := m.settler.Lock(ctx, tx); err != nil {
			return err
		}

		if err := change(tx); err != nil {
			return err
		}

		r, err := m.settler.SettleTx(ctx, tx)
		if err != nil {
			settleErr = err
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		report = r
		return nil
	}

	var err error
	if m.retrier != nil {
		err = m.retrier.Retry(ctx, op)
	} else {
		err = op()
	}
	if err != nil {
		// Rejected input changes are not settlement failures.
		if settleErr != nil {
			m.settler.ObserveError(settleErr)
		}
		return nil, err
	}

	m.settler.AfterCommit(ctx, report)

	return report, nil
}
