package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/gosettle/internal/adapter/http/dto"
	"github.com/iho/gosettle/internal/domain"
	"github.com/iho/gosettle/internal/usecase"
)

// WeekService defines the behavior needed by WeekHandler.
type WeekService interface {
	CreateWeek(ctx context.Context, input usecase.CreateWeekInput) (*domain.Week, *usecase.SettlementReport, error)
	UpdateWeekPercentage(ctx context.Context, id string, percentage decimal.Decimal) (*domain.Week, *usecase.SettlementReport, error)
	DeleteWeek(ctx context.Context, id string) (*usecase.SettlementReport, error)
	GetWeek(ctx context.Context, id string) (*domain.Week, error)
	ListWeeksWithResults(ctx context.Context) ([]usecase.WeekWithResult, error)
}

// WeekHandler handles the week catalog.
type WeekHandler struct {
	weekUC WeekService
}

// NewWeekHandler creates a new WeekHandler.
func NewWeekHandler(weekUC WeekService) *WeekHandler {
	return &WeekHandler{weekUC: weekUC}
}

// Create adds a week and returns the resulting settlement.
func (h *WeekHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateWeekRequest
	if !decodeBody(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, r, "invalid week", err)
		return
	}

	week, report, err := h.weekUC.CreateWeek(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, "failed to create week", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.WeekMutationResponse{
		Week:       dto.WeekFromDomain(week),
		Settlement: dto.SettlementFromReport(report),
	})
}

// Get returns one week.
func (h *WeekHandler) Get(w http.ResponseWriter, r *http.Request) {
	week, err := h.weekUC.GetWeek(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get week", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WeekFromDomain(week))
}

// List returns every week with its settled result.
func (h *WeekHandler) List(w http.ResponseWriter, r *http.Request) {
	weeks, err := h.weekUC.ListWeeksWithResults(r.Context())
	if err != nil {
		writeDomainError(w, r, "failed to list weeks", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"weeks": dto.WeeksWithResults(weeks)})
}

// Update changes a week's percentage.
func (h *WeekHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateWeekRequest
	if !decodeBody(w, r, &req) {
		return
	}

	pct, err := req.NewPercentage()
	if err != nil {
		writeDomainError(w, r, "invalid week", err)
		return
	}

	week, report, err := h.weekUC.UpdateWeekPercentage(r.Context(), chi.URLParam(r, "id"), pct)
	if err != nil {
		writeDomainError(w, r, "failed to update week", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WeekMutationResponse{
		Week:       dto.WeekFromDomain(week),
		Settlement: dto.SettlementFromReport(report),
	})
}

// Delete removes a week.
func (h *WeekHandler) Delete(w http.ResponseWriter, r *http.Request) {
	report, err := h.weekUC.DeleteWeek(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to delete week", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WeekMutationResponse{Settlement: dto.SettlementFromReport(report)})
}
