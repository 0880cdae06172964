package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gosettle/internal/adapter/http/handler"
	apimiddleware "github.com/iho/gosettle/internal/adapter/http/middleware"
	"github.com/iho/gosettle/internal/domain"
	"github.com/iho/gosettle/internal/usecase"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_RateLimiterGuardsRecalculation(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	send := func(method, path string) int {
		req := httptest.NewRequest(method, path, nil)
		req.RemoteAddr = "1.2.3.4:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send(http.MethodPost, "/api/v1/settlements/"); code != http.StatusOK {
		t.Fatalf("expected first recalculation to succeed, got %d", code)
	}
	if code := send(http.MethodPost, "/api/v1/settlements/"); code != http.StatusTooManyRequests {
		t.Fatalf("expected second recalculation to be throttled, got %d", code)
	}
	if code := send(http.MethodGet, "/api/v1/state"); code != http.StatusOK {
		t.Fatalf("reads must not be throttled, got %d", code)
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	body := `{"pool":"CAPITAL","amount":"100"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ledger/deposits", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !store.checkCalled || !store.updateCalled {
		t.Fatalf("expected idempotency store to be used")
	}
}

func TestNewRouter_MetricsEndpoint(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.MetricsHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("metrics"))
		})
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "metrics" {
		t.Fatalf("unexpected /metrics response %d %q", rec.Code, rec.Body.String())
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"GET /api/v1/weeks/",
		"POST /api/v1/weeks/",
		"PATCH /api/v1/weeks/{id}",
		"DELETE /api/v1/weeks/{id}",
		"GET /api/v1/ledger/",
		"POST /api/v1/ledger/deposits",
		"POST /api/v1/ledger/withdrawals",
		"GET /api/v1/ledger/summary/{pool}",
		"GET /api/v1/state",
		"GET /api/v1/performance",
		"POST /api/v1/settlements/",
		"GET /api/v1/settlements/reconcile",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	cfg := RouterConfig{
		HealthHandler:     handler.NewHealthHandler(nil, nil),
		WeekHandler:       handler.NewWeekHandler(stubWeekService{}),
		LedgerHandler:     handler.NewLedgerHandler(stubLedgerService{}),
		SettlementHandler: handler.NewSettlementHandler(stubSettlementService{}, stubSettlementService{}),
		Logger:            zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubWeekService struct{}

func (stubWeekService) CreateWeek(ctx context.Context, input usecase.CreateWeekInput) (*domain.Week, *usecase.SettlementReport, error) {
	return &domain.Week{ID: "w1"}, &usecase.SettlementReport{}, nil
}

func (stubWeekService) UpdateWeekPercentage(ctx context.Context, id string, pct decimal.Decimal) (*domain.Week, *usecase.SettlementReport, error) {
	return &domain.Week{ID: id}, &usecase.SettlementReport{}, nil
}

func (stubWeekService) DeleteWeek(ctx context.Context, id string) (*usecase.SettlementReport, error) {
	return &usecase.SettlementReport{}, nil
}

func (stubWeekService) GetWeek(ctx context.Context, id string) (*domain.Week, error) {
	return &domain.Week{ID: id}, nil
}

func (stubWeekService) ListWeeksWithResults(ctx context.Context) ([]usecase.WeekWithResult, error) {
	return nil, nil
}

type stubLedgerService struct{}

func (stubLedgerService) RecordDeposit(ctx context.Context, input usecase.RecordCapitalInput) (*domain.LedgerEntry, *usecase.SettlementReport, error) {
	return &domain.LedgerEntry{ID: "e1", Pool: input.Pool, Kind: domain.KindDeposit, Amount: input.Amount}, &usecase.SettlementReport{}, nil
}

func (stubLedgerService) RecordWithdrawal(ctx context.Context, input usecase.RecordCapitalInput) (*domain.LedgerEntry, *usecase.SettlementReport, error) {
	return &domain.LedgerEntry{ID: "e2", Pool: input.Pool, Kind: domain.KindWithdrawal, Amount: input.Amount}, &usecase.SettlementReport{}, nil
}

func (stubLedgerService) ListEntries(ctx context.Context, pool *domain.Pool, limit, offset int) ([]domain.LedgerEntry, error) {
	return nil, nil
}

func (stubLedgerService) Summary(ctx context.Context, pool domain.Pool) (*usecase.CapitalSummary, error) {
	return &usecase.CapitalSummary{Pool: pool}, nil
}

type stubSettlementService struct{}

func (stubSettlementService) GetFinancialState(ctx context.Context) (*domain.StoredState, error) {
	return &domain.StoredState{}, nil
}

func (stubSettlementService) Performance(ctx context.Context) (*usecase.Performance, error) {
	return &usecase.Performance{}, nil
}

func (stubSettlementService) Recalculate(ctx context.Context) (*usecase.SettlementReport, error) {
	return &usecase.SettlementReport{}, nil
}

func (stubSettlementService) Reconcile(ctx context.Context) (*usecase.ReconciliationReport, error) {
	return &usecase.ReconciliationReport{Consistent: true}, nil
}

type stubIdempotencyStore struct {
	checkCalled  bool
	updateCalled bool
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	s.updateCalled = true
	return nil
}

func (s *stubIdempotencyStore) Delete(ctx context.Context, key string) error {
	return nil
}
