package settlement

import (
	"fmt"

	"github.com/iho/gosettle/internal/domain"
)

// validateWeeks checks each week, the catalog order and that no two weeks
// share a calendar day.
func validateWeeks(weeks []domain.Week) error {
	seen := make(map[int]string, len(weeks))

	for i := range weeks {
		w := &weeks[i]
		if err := w.Validate(); err != nil {
			return fmt.Errorf("week %d (%s): %w", w.WeekNumber, w.ID, err)
		}

		if other, ok := seen[w.WeekNumber]; ok {
			return domain.NewValidationError("week_number", domain.ErrDuplicateWeekNumber,
				fmt.Sprintf("week %d used by %s and %s", w.WeekNumber, other, w.ID))
		}
		seen[w.WeekNumber] = w.ID

		if i == 0 {
			continue
		}

		prev := &weeks[i-1]
		if w.StartDate.Before(prev.StartDate) ||
			(w.StartDate.Equal(prev.StartDate) && w.WeekNumber < prev.WeekNumber) {
			return domain.NewValidationError("weeks", domain.ErrUnsortedWeeks,
				fmt.Sprintf("week %d precedes week %d", w.WeekNumber, prev.WeekNumber))
		}

		if w.Overlaps(prev) {
			return domain.NewValidationError("start_date", domain.ErrWeekOverlap,
				fmt.Sprintf("week %d overlaps week %d", w.WeekNumber, prev.WeekNumber))
		}
	}

	return nil
}

// validateLedger checks entry shape and chronological order.
func validateLedger(p policy, entries []domain.LedgerEntry) error {
	for i := range entries {
		e := &entries[i]

		if !e.Pool.Valid() {
			return domain.NewValidationError("pool", domain.ErrInvalidPool,
				fmt.Sprintf("entry %s has pool %q", e.ID, e.Pool))
		}

		if !e.Kind.Valid() {
			return domain.NewValidationError("kind", domain.ErrInvalidKind,
				fmt.Sprintf("entry %s has kind %q", e.ID, e.Kind))
		}

		if err := domain.ValidateAmount(e.Amount, p.places); err != nil {
			return fmt.Errorf("entry %s: %w", e.ID, err)
		}

		if i > 0 && e.CreatedAt.Before(entries[i-1].CreatedAt) {
			return domain.NewValidationError("created_at", domain.ErrNonChronologicalLedger,
				fmt.Sprintf("entry %s is older than entry %s", e.ID, entries[i-1].ID))
		}
	}

	return nil
}
