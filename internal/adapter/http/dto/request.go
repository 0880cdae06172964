package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gosettle/internal/domain"
	"github.com/iho/gosettle/internal/usecase"
)

// DateLayout is the wire format of week dates.
const DateLayout = "2006-01-02"

// CreateWeekRequest represents a request to create a week.
type CreateWeekRequest struct {
	WeekNumber *int             `json:"week_number,omitempty"`
	StartDate  string           `json:"start_date"`
	EndDate    string           `json:"end_date"`
	Percentage *decimal.Decimal `json:"percentage"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateWeekRequest) ToUseCaseInput() (usecase.CreateWeekInput, error) {
	start, err := parseDate("start_date", r.StartDate)
	if err != nil {
		return usecase.CreateWeekInput{}, err
	}

	end, err := parseDate("end_date", r.EndDate)
	if err != nil {
		return usecase.CreateWeekInput{}, err
	}

	pct, err := requirePercentage(r.Percentage)
	if err != nil {
		return usecase.CreateWeekInput{}, err
	}

	return usecase.CreateWeekInput{
		WeekNumber: r.WeekNumber,
		StartDate:  start,
		EndDate:    end,
		Percentage: pct,
	}, nil
}

// UpdateWeekRequest changes a week's percentage.
type UpdateWeekRequest struct {
	Percentage *decimal.Decimal `json:"percentage"`
}

// NewPercentage returns the requested percentage. An absent field is an
// error, not zero.
func (r *UpdateWeekRequest) NewPercentage() (decimal.Decimal, error) {
	return requirePercentage(r.Percentage)
}

// RecordCapitalRequest represents a deposit or a withdrawal.
type RecordCapitalRequest struct {
	Pool        string          `json:"pool"`
	Amount      decimal.Decimal `json:"amount"`
	Note        string          `json:"note,omitempty"`
	EffectiveAt *time.Time      `json:"effective_at,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *RecordCapitalRequest) ToUseCaseInput() (usecase.RecordCapitalInput, error) {
	pool, err := domain.ParsePool(r.Pool)
	if err != nil {
		return usecase.RecordCapitalInput{}, err
	}

	return usecase.RecordCapitalInput{
		EffectiveAt: r.EffectiveAt,
		Pool:        pool,
		Note:        r.Note,
		Amount:      r.Amount,
	}, nil
}

func requirePercentage(pct *decimal.Decimal) (decimal.Decimal, error) {
	if pct == nil {
		return decimal.Zero, domain.NewValidationError("percentage", domain.ErrInvalidPercentage, "percentage is required")
	}
	return *pct, nil
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, domain.NewValidationError(field, domain.ErrInvalidDateRange, "expected YYYY-MM-DD")
	}
	return t, nil
}
