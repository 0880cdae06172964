package dto

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gosettle/internal/domain"
	"github.com/iho/gosettle/internal/usecase"
)

func TestWeeksWithResults(t *testing.T) {
	d := decimal.RequireFromString
	items := []usecase.WeekWithResult{
		{
			Week: domain.Week{
				ID: "w1", WeekNumber: 1,
				StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				EndDate:    time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC),
				Percentage: d("10"),
			},
			Result: &domain.WeeklyResult{WeekID: "w1", CapitalEnd: d("107000"), FeeGenerated: d("3000")},
		},
		{Week: domain.Week{ID: "w2", WeekNumber: 2}},
	}

	resp := WeeksWithResults(items)
	if len(resp) != 2 {
		t.Fatalf("expected 2 weeks, got %d", len(resp))
	}

	if resp[0].StartDate != "2024-01-01" || resp[0].Result == nil || resp[0].Result.FeeGenerated.String() != "3000" {
		t.Fatalf("unexpected first week %+v", resp[0])
	}

	if resp[1].Result != nil {
		t.Fatalf("unsettled week must have no result")
	}

	data, err := json.Marshal(resp[1])
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if strings.Contains(string(data), `"result"`) {
		t.Fatalf("expected result to be omitted, got %s", data)
	}
}

func TestSettlementFromReport(t *testing.T) {
	if SettlementFromReport(nil) != nil {
		t.Fatalf("nil report must map to nil")
	}

	resp := SettlementFromReport(&usecase.SettlementReport{
		Generation: 3,
		Results:    make([]domain.WeeklyResult, 2),
		TotalFees:  decimal.RequireFromString("12.34"),
		Duration:   1500 * time.Millisecond,
		State:      domain.FinancialState{HWM: decimal.RequireFromString("100")},
	})

	if resp.WeeksSettled != 2 || resp.DurationMS != 1500 || resp.State.Generation != 3 {
		t.Fatalf("unexpected response %+v", resp)
	}

	data, _ := json.Marshal(resp)
	if !strings.Contains(string(data), `"total_fees":"12.34"`) {
		t.Fatalf("decimals must be encoded as strings, got %s", data)
	}
}

func TestReconciliationFromUseCase(t *testing.T) {
	resp := ReconciliationFromUseCase(&usecase.ReconciliationReport{
		Discrepancies: []usecase.Discrepancy{{Scope: "state", Field: "hwm", Stored: "1", Replayed: "2"}},
	})

	if resp.Consistent || len(resp.Discrepancies) != 1 || resp.Discrepancies[0].Replayed != "2" {
		t.Fatalf("unexpected response %+v", resp)
	}
}
