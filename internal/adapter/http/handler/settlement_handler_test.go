package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/gosettle/internal/adapter/http/dto"
	"github.com/iho/gosettle/internal/domain"
	"github.com/iho/gosettle/internal/usecase"
)

type settlementServiceStub struct {
	recalcErr error
}

func (s *settlementServiceStub) GetFinancialState(ctx context.Context) (*domain.StoredState, error) {
	return &domain.StoredState{
		FinancialState: domain.FinancialState{
			CapitalBalance: decimal.RequireFromString("107000"),
			HWM:            decimal.RequireFromString("110000"),
		},
		Generation: 2,
	}, nil
}

func (s *settlementServiceStub) Performance(ctx context.Context) (*usecase.Performance, error) {
	return &usecase.Performance{WorkProfit: decimal.RequireFromString("7000"), ReturnOnDeposits: decimal.RequireFromString("7")}, nil
}

func (s *settlementServiceStub) Recalculate(ctx context.Context) (*usecase.SettlementReport, error) {
	if s.recalcErr != nil {
		return nil, s.recalcErr
	}
	return &usecase.SettlementReport{Generation: 3}, nil
}

type reconcilerStub struct{}

func (reconcilerStub) Reconcile(ctx context.Context) (*usecase.ReconciliationReport, error) {
	return &usecase.ReconciliationReport{
		Generation:    3,
		Discrepancies: []usecase.Discrepancy{{Scope: "state", Field: "hwm", Stored: "1", Replayed: "2"}},
	}, nil
}

func TestSettlementHandler_State(t *testing.T) {
	h := NewSettlementHandler(&settlementServiceStub{}, reconcilerStub{})

	rec := httptest.NewRecorder()
	h.State(rec, httptest.NewRequest(http.MethodGet, "/state", nil))

	var resp dto.StateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp.Generation != 2 || resp.CapitalBalance.String() != "107000" || resp.HWM.String() != "110000" {
		t.Fatalf("unexpected state %+v", resp)
	}
}

func TestSettlementHandler_Performance(t *testing.T) {
	h := NewSettlementHandler(&settlementServiceStub{}, reconcilerStub{})

	rec := httptest.NewRecorder()
	h.Performance(rec, httptest.NewRequest(http.MethodGet, "/performance", nil))

	var resp dto.PerformanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp.WorkProfit.String() != "7000" || resp.ReturnOnDeposits.String() != "7" {
		t.Fatalf("unexpected performance %+v", resp)
	}
}

func TestSettlementHandler_Recalculate(t *testing.T) {
	h := NewSettlementHandler(&settlementServiceStub{}, reconcilerStub{})

	rec := httptest.NewRecorder()
	h.Recalculate(rec, httptest.NewRequest(http.MethodPost, "/settlements", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	h = NewSettlementHandler(&settlementServiceStub{recalcErr: &domain.ConsistencyError{Expected: 2, Actual: 3}}, reconcilerStub{})
	rec = httptest.NewRecorder()
	h.Recalculate(rec, httptest.NewRequest(http.MethodPost, "/settlements", nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	h = NewSettlementHandler(&settlementServiceStub{recalcErr: errors.New("db gone")}, reconcilerStub{})
	rec = httptest.NewRecorder()
	h.Recalculate(rec, httptest.NewRequest(http.MethodPost, "/settlements", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestSettlementHandler_Reconcile(t *testing.T) {
	h := NewSettlementHandler(&settlementServiceStub{}, reconcilerStub{})

	rec := httptest.NewRecorder()
	h.Reconcile(rec, httptest.NewRequest(http.MethodGet, "/settlements/reconcile", nil))

	var resp dto.ReconciliationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp.Consistent || len(resp.Discrepancies) != 1 {
		t.Fatalf("unexpected report %+v", resp)
	}
}
