package settlement

import (
	"fmt"
	"time"

	"github.com/iho/gosettle/internal/domain"
)

// cursor walks the chronologically sorted ledger once, handing out the
// entries that fall before each week's cutoff.
type cursor struct {
	entries []domain.LedgerEntry
	next    int
}

func newCursor(entries []domain.LedgerEntry) *cursor {
	return &cursor{entries: entries}
}

// applyBefore applies every remaining entry created before cutoff.
func (c *cursor) applyBefore(p policy, cutoff time.Time, cur pools) (pools, error) {
	for c.next < len(c.entries) && c.entries[c.next].CreatedAt.Before(cutoff) {
		var err error
		if cur, err = applyEntry(p, &c.entries[c.next], cur); err != nil {
			return pools{}, err
		}
		c.next++
	}
	return cur, nil
}

// applyRest applies every remaining entry.
func (c *cursor) applyRest(p policy, cur pools) (pools, error) {
	for ; c.next < len(c.entries); c.next++ {
		var err error
		if cur, err = applyEntry(p, &c.entries[c.next], cur); err != nil {
			return pools{}, err
		}
	}
	return cur, nil
}

func applyEntry(p policy, e *domain.LedgerEntry, cur pools) (pools, error) {
	if e.IsEngineOutput() {
		return cur, nil
	}

	delta := e.SignedAmount()

	switch e.Pool {
	case domain.PoolCapital:
		cur.capital = cur.capital.Add(delta)
		if cur.capital.IsNegative() {
			return pools{}, domain.NewValidationError("ledger", domain.ErrInsufficientBalance,
				fmt.Sprintf("entry %s leaves %s at %s", e.ID, e.Pool, cur.capital))
		}
	case domain.PoolOperator:
		cur.operator = cur.operator.Add(delta)
		if cur.operator.IsNegative() {
			return pools{}, domain.NewValidationError("ledger", domain.ErrInsufficientBalance,
				fmt.Sprintf("entry %s leaves %s at %s", e.ID, e.Pool, cur.operator))
		}
	}

	if err := p.check("apply ledger entry", cur.capital, cur.operator); err != nil {
		return pools{}, err
	}

	return cur, nil
}
