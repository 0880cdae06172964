package handler

import (
	"context"
	"net/http"

	"github.com/iho/gosettle/internal/adapter/http/dto"
	"github.com/iho/gosettle/internal/domain"
	"github.com/iho/gosettle/internal/usecase"
)

// SettlementService defines the behavior needed by SettlementHandler.
type SettlementService interface {
	GetFinancialState(ctx context.Context) (*domain.StoredState, error)
	Performance(ctx context.Context) (*usecase.Performance, error)
	Recalculate(ctx context.Context) (*usecase.SettlementReport, error)
}

// Reconciler produces drift reports.
type Reconciler interface {
	Reconcile(ctx context.Context) (*usecase.ReconciliationReport, error)
}

// SettlementHandler exposes settlement output.
type SettlementHandler struct {
	settlementUC SettlementService
	reconciler   Reconciler
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(settlementUC SettlementService, reconciler Reconciler) *SettlementHandler {
	return &SettlementHandler{settlementUC: settlementUC, reconciler: reconciler}
}

// State returns the current financial state.
func (h *SettlementHandler) State(w http.ResponseWriter, r *http.Request) {
	state, err := h.settlementUC.GetFinancialState(r.Context())
	if err != nil {
		writeDomainError(w, r, "failed to get state", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.StateFromDomain(state))
}

// Performance returns work profit against deposits.
func (h *SettlementHandler) Performance(w http.ResponseWriter, r *http.Request) {
	perf, err := h.settlementUC.Performance(r.Context())
	if err != nil {
		writeDomainError(w, r, "failed to compute performance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PerformanceFromUseCase(perf))
}

// Recalculate forces a full settlement.
func (h *SettlementHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	report, err := h.settlementUC.Recalculate(r.Context())
	if err != nil {
		writeDomainError(w, r, "settlement failed", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SettlementFromReport(report))
}

// Reconcile returns a drift report. Drift is reported with 200 and
// consistent=false.
func (h *SettlementHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciler.Reconcile(r.Context())
	if err != nil {
		writeDomainError(w, r, "reconciliation failed", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromUseCase(report))
}
