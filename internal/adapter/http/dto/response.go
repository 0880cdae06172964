package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gosettle/internal/domain"
	"github.com/iho/gosettle/internal/usecase"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WeeklyResultResponse represents a settled week.
type WeeklyResultResponse struct {
	CapitalStart  decimal.Decimal `json:"capital_start"`
	OperatorStart decimal.Decimal `json:"operator_start"`
	CapitalPnL    decimal.Decimal `json:"capital_pnl"`
	OperatorPnL   decimal.Decimal `json:"operator_pnl"`
	FeeGenerated  decimal.Decimal `json:"fee_generated"`
	CapitalEnd    decimal.Decimal `json:"capital_end"`
	OperatorEnd   decimal.Decimal `json:"operator_end"`
	HWMBefore     decimal.Decimal `json:"hwm_before"`
	HWMAfter      decimal.Decimal `json:"hwm_after"`
}

// WeeklyResultFromDomain converts a domain result to response.
func WeeklyResultFromDomain(r *domain.WeeklyResult) *WeeklyResultResponse {
	if r == nil {
		return nil
	}

	return &WeeklyResultResponse{
		CapitalStart:  r.CapitalStart,
		OperatorStart: r.OperatorStart,
		CapitalPnL:    r.CapitalPnL,
		OperatorPnL:   r.OperatorPnL,
		FeeGenerated:  r.FeeGenerated,
		CapitalEnd:    r.CapitalEnd,
		OperatorEnd:   r.OperatorEnd,
		HWMBefore:     r.HWMBefore,
		HWMAfter:      r.HWMAfter,
	}
}

// WeekResponse represents a week in API responses.
type WeekResponse struct {
	ID         string                `json:"id"`
	WeekNumber int                   `json:"week_number"`
	StartDate  string                `json:"start_date"`
	EndDate    string                `json:"end_date"`
	Percentage decimal.Decimal       `json:"percentage"`
	CreatedAt  time.Time             `json:"created_at"`
	Result     *WeeklyResultResponse `json:"result,omitempty"`
}

// WeekFromDomain converts a domain week to response.
func WeekFromDomain(w *domain.Week) *WeekResponse {
	return &WeekResponse{
		ID:         w.ID,
		WeekNumber: w.WeekNumber,
		StartDate:  w.StartDate.Format(DateLayout),
		EndDate:    w.EndDate.Format(DateLayout),
		Percentage: w.Percentage,
		CreatedAt:  w.CreatedAt,
	}
}

// WeeksWithResults converts the week listing.
func WeeksWithResults(items []usecase.WeekWithResult) []*WeekResponse {
	out := make([]*WeekResponse, len(items))
	for i := range items {
		resp := WeekFromDomain(&items[i].Week)
		resp.Result = WeeklyResultFromDomain(items[i].Result)
		out[i] = resp
	}
	return out
}

// LedgerEntryResponse represents a ledger entry in API responses.
type LedgerEntryResponse struct {
	ID        string          `json:"id"`
	Pool      string          `json:"pool"`
	Kind      string          `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	Note      string          `json:"note,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// LedgerEntryFromDomain converts a ledger entry to response.
func LedgerEntryFromDomain(e *domain.LedgerEntry) *LedgerEntryResponse {
	return &LedgerEntryResponse{
		ID:        e.ID,
		Pool:      string(e.Pool),
		Kind:      string(e.Kind),
		Amount:    e.Amount,
		Note:      e.Note,
		CreatedAt: e.CreatedAt,
	}
}

// LedgerEntriesFromDomain converts ledger entries to responses.
func LedgerEntriesFromDomain(entries []domain.LedgerEntry) []*LedgerEntryResponse {
	out := make([]*LedgerEntryResponse, len(entries))
	for i := range entries {
		out[i] = LedgerEntryFromDomain(&entries[i])
	}
	return out
}

// StateResponse is the settled financial state.
type StateResponse struct {
	CapitalBalance  decimal.Decimal `json:"capital_balance"`
	OperatorBalance decimal.Decimal `json:"operator_balance"`
	HWM             decimal.Decimal `json:"hwm"`
	Generation      int64           `json:"generation"`
	SettledAt       time.Time       `json:"settled_at"`
}

// StateFromDomain converts the stored state.
func StateFromDomain(s *domain.StoredState) *StateResponse {
	return &StateResponse{
		CapitalBalance:  s.CapitalBalance,
		OperatorBalance: s.OperatorBalance,
		HWM:             s.HWM,
		Generation:      s.Generation,
		SettledAt:       s.SettledAt,
	}
}

// SettlementResponse summarizes a settlement triggered by a request.
type SettlementResponse struct {
	Generation   int64           `json:"generation"`
	WeeksSettled int             `json:"weeks_settled"`
	TotalFees    decimal.Decimal `json:"total_fees"`
	DurationMS   int64           `json:"duration_ms"`
	State        StateResponse   `json:"state"`
}

// SettlementFromReport converts a settlement report. Nil stays nil.
func SettlementFromReport(r *usecase.SettlementReport) *SettlementResponse {
	if r == nil {
		return nil
	}

	return &SettlementResponse{
		Generation:   r.Generation,
		WeeksSettled: len(r.Results),
		TotalFees:    r.TotalFees,
		DurationMS:   r.Duration.Milliseconds(),
		State: StateResponse{
			CapitalBalance:  r.State.CapitalBalance,
			OperatorBalance: r.State.OperatorBalance,
			HWM:             r.State.HWM,
			Generation:      r.Generation,
			SettledAt:       r.SettledAt,
		},
	}
}

// WeekMutationResponse is returned by week writes.
type WeekMutationResponse struct {
	Week       *WeekResponse       `json:"week,omitempty"`
	Settlement *SettlementResponse `json:"settlement"`
}

// LedgerMutationResponse is returned by deposits and withdrawals.
type LedgerMutationResponse struct {
	Entry      *LedgerEntryResponse `json:"entry"`
	Settlement *SettlementResponse  `json:"settlement"`
}

// ListLedgerResponse is a page of ledger entries.
type ListLedgerResponse struct {
	Entries []*LedgerEntryResponse `json:"entries"`
	Limit   int                    `json:"limit"`
	Offset  int                    `json:"offset"`
}

// SummaryResponse aggregates one pool.
type SummaryResponse struct {
	Pool         string          `json:"pool"`
	Deposits     decimal.Decimal `json:"deposits"`
	Withdrawals  decimal.Decimal `json:"withdrawals"`
	Net          decimal.Decimal `json:"net"`
	FeesReceived decimal.Decimal `json:"fees_received"`
}

// SummaryFromUseCase converts a capital summary.
func SummaryFromUseCase(s *usecase.CapitalSummary) *SummaryResponse {
	return &SummaryResponse{
		Pool:         string(s.Pool),
		Deposits:     s.Deposits,
		Withdrawals:  s.Withdrawals,
		Net:          s.Net,
		FeesReceived: s.FeesReceived,
	}
}

// PerformanceResponse compares work profit with deposits.
type PerformanceResponse struct {
	WorkProfit       decimal.Decimal `json:"work_profit"`
	FeesPaid         decimal.Decimal `json:"fees_paid"`
	NetDeposits      decimal.Decimal `json:"net_deposits"`
	CapitalBalance   decimal.Decimal `json:"capital_balance"`
	ReturnOnDeposits decimal.Decimal `json:"return_on_deposits_pct"`
	WeeksSettled     int             `json:"weeks_settled"`
}

// PerformanceFromUseCase converts the performance view.
func PerformanceFromUseCase(p *usecase.Performance) *PerformanceResponse {
	return &PerformanceResponse{
		WorkProfit:       p.WorkProfit,
		FeesPaid:         p.FeesPaid,
		NetDeposits:      p.NetDeposits,
		CapitalBalance:   p.CapitalBalance,
		ReturnOnDeposits: p.ReturnOnDeposits,
		WeeksSettled:     p.WeeksSettled,
	}
}

// DiscrepancyResponse is one drifted value.
type DiscrepancyResponse struct {
	Scope    string `json:"scope"`
	Field    string `json:"field"`
	Stored   string `json:"stored"`
	Replayed string `json:"replayed"`
}

// ReconciliationResponse is the drift report.
type ReconciliationResponse struct {
	CheckedAt     time.Time             `json:"checked_at"`
	Generation    int64                 `json:"generation"`
	WeeksChecked  int                   `json:"weeks_checked"`
	Consistent    bool                  `json:"consistent"`
	Discrepancies []DiscrepancyResponse `json:"discrepancies"`
}

// ReconciliationFromUseCase converts a reconciliation report.
func ReconciliationFromUseCase(r *usecase.ReconciliationReport) *ReconciliationResponse {
	out := &ReconciliationResponse{
		CheckedAt:     r.CheckedAt,
		Generation:    r.Generation,
		WeeksChecked:  r.WeeksChecked,
		Consistent:    r.Consistent,
		Discrepancies: make([]DiscrepancyResponse, len(r.Discrepancies)),
	}
	for i, d := range r.Discrepancies {
		out.Discrepancies[i] = DiscrepancyResponse(d)
	}
	return out
}
