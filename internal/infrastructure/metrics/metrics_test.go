package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"github.com/iho/gosettle/internal/domain"
	"github.com/iho/gosettle/internal/usecase"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveSettlementError(usecase.ErrorKindConsistency)

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestObserveSettlement(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveSettlement(20*time.Millisecond, &usecase.SettlementReport{
		Results:    make([]domain.WeeklyResult, 3),
		TotalFees:  decimal.RequireFromString("3000"),
		Generation: 4,
		State: domain.FinancialState{
			CapitalBalance:  decimal.RequireFromString("107000"),
			OperatorBalance: decimal.RequireFromString("3000"),
			HWM:             decimal.RequireFromString("110000"),
		},
	})

	if got := testutil.ToFloat64(m.SettlementsTotal); got != 1 {
		t.Fatalf("expected one settlement, got %v", got)
	}
	if got := testutil.ToFloat64(m.WeeksSettled); got != 3 {
		t.Fatalf("expected 3 weeks, got %v", got)
	}
	if got := testutil.ToFloat64(m.PoolBalance.WithLabelValues("CAPITAL")); got != 107000 {
		t.Fatalf("unexpected capital balance %v", got)
	}
	if got := testutil.ToFloat64(m.HighWater); got != 110000 {
		t.Fatalf("unexpected hwm %v", got)
	}
	if got := testutil.ToFloat64(m.Generation); got != 4 {
		t.Fatalf("unexpected generation %v", got)
	}
}

func TestObserveErrorsAndDiscrepancies(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveSettlementError(usecase.ErrorKindValidation)
	m.ObserveSettlementError(usecase.ErrorKindValidation)
	m.ObserveDiscrepancies(2)

	if got := testutil.ToFloat64(m.SettlementErrors.WithLabelValues(usecase.ErrorKindValidation)); got != 2 {
		t.Fatalf("expected 2 validation errors, got %v", got)
	}
	if got := testutil.ToFloat64(m.Discrepancies); got != 2 {
		t.Fatalf("expected 2 discrepancies, got %v", got)
	}
	if got := testutil.ToFloat64(m.Reconciliations); got != 1 {
		t.Fatalf("expected one reconciliation, got %v", got)
	}
}
