package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gosettle/internal/adapter/http/dto"
	"github.com/iho/gosettle/internal/domain"
	"github.com/iho/gosettle/internal/usecase"
)

// LedgerService defines the behavior needed by LedgerHandler.
type LedgerService interface {
	RecordDeposit(ctx context.Context, input usecase.RecordCapitalInput) (*domain.LedgerEntry, *usecase.SettlementReport, error)
	RecordWithdrawal(ctx context.Context, input usecase.RecordCapitalInput) (*domain.LedgerEntry, *usecase.SettlementReport, error)
	ListEntries(ctx context.Context, pool *domain.Pool, limit, offset int) ([]domain.LedgerEntry, error)
	Summary(ctx context.Context, pool domain.Pool) (*usecase.CapitalSummary, error)
}

// LedgerHandler handles capital movements.
type LedgerHandler struct {
	capitalUC LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(capitalUC LedgerService) *LedgerHandler {
	return &LedgerHandler{capitalUC: capitalUC}
}

// Deposit records a deposit.
func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, h.capitalUC.RecordDeposit)
}

// Withdraw records a withdrawal.
func (h *LedgerHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, h.capitalUC.RecordWithdrawal)
}

func (h *LedgerHandler) record(
	w http.ResponseWriter,
	r *http.Request,
	op func(context.Context, usecase.RecordCapitalInput) (*domain.LedgerEntry, *usecase.SettlementReport, error),
) {
	var req dto.RecordCapitalRequest
	if !decodeBody(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, r, "invalid ledger entry", err)
		return
	}

	entry, report, err := op(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, "failed to record entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.LedgerMutationResponse{
		Entry:      dto.LedgerEntryFromDomain(entry),
		Settlement: dto.SettlementFromReport(report),
	})
}

// List returns ledger entries, newest first, optionally for one pool.
func (h *LedgerHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	var pool *domain.Pool
	if raw := r.URL.Query().Get("pool"); raw != "" {
		p, err := domain.ParsePool(raw)
		if err != nil {
			writeDomainError(w, r, "invalid pool", err)
			return
		}
		pool = &p
	}

	entries, err := h.capitalUC.ListEntries(r.Context(), pool, limit, offset)
	if err != nil {
		writeDomainError(w, r, "failed to list ledger", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListLedgerResponse{
		Entries: dto.LedgerEntriesFromDomain(entries),
		Limit:   limit,
		Offset:  offset,
	})
}

// Summary aggregates one pool.
func (h *LedgerHandler) Summary(w http.ResponseWriter, r *http.Request) {
	pool, err := domain.ParsePool(chi.URLParam(r, "pool"))
	if err != nil {
		writeDomainError(w, r, "invalid pool", err)
		return
	}

	summary, err := h.capitalUC.Summary(r.Context(), pool)
	if err != nil {
		writeDomainError(w, r, "failed to summarize pool", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SummaryFromUseCase(summary))
}
