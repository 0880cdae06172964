package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/gosettle/internal/usecase"
)

// Metrics holds the settlement metrics. It implements usecase.SettlementObserver.
type Metrics struct {
	// Settlement metrics
	SettlementsTotal   prometheus.Counter
	SettlementDuration prometheus.Histogram
	SettlementErrors   *prometheus.CounterVec
	WeeksSettled       prometheus.Gauge
	FeesTotal          prometheus.Gauge
	Generation         prometheus.Gauge

	// Pool metrics
	PoolBalance *prometheus.GaugeVec
	HighWater   prometheus.Gauge

	// Reconciliation metrics
	Reconciliations prometheus.Counter
	Discrepancies   prometheus.Gauge
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SettlementsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "gosettle_settlements_total",
			Help: "Total number of committed settlements",
		}),
		SettlementDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gosettle_settlement_duration_seconds",
			Help:    "Duration of settlement runs",
			Buckets: prometheus.DefBuckets,
		}),
		SettlementErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gosettle_settlement_errors_total",
				Help: "Total number of failed settlements by kind",
			},
			[]string{"kind"},
		),
		WeeksSettled: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gosettle_weeks_settled",
			Help: "Number of weeks in the last settlement",
		}),
		FeesTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gosettle_fees_total",
			Help: "Sum of performance fees in the last settlement",
		}),
		Generation: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gosettle_state_generation",
			Help: "Generation of the stored financial state",
		}),

		PoolBalance: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gosettle_pool_balance",
				Help: "Settled balance per pool",
			},
			[]string{"pool"},
		),
		HighWater: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gosettle_high_water_mark",
			Help: "Current high-water mark",
		}),

		Reconciliations: factory.NewCounter(prometheus.CounterOpts{
			Name: "gosettle_reconciliations_total",
			Help: "Total number of reconciliation runs",
		}),
		Discrepancies: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gosettle_reconciliation_discrepancies",
			Help: "Discrepancies found by the last reconciliation",
		}),
	}
}

// ObserveSettlement records a committed settlement.
func (m *Metrics) ObserveSettlement(duration time.Duration, report *usecase.SettlementReport) {
	m.SettlementsTotal.Inc()
	m.SettlementDuration.Observe(duration.Seconds())

	if report == nil {
		return
	}

	m.WeeksSettled.Set(float64(len(report.Results)))
	m.FeesTotal.Set(report.TotalFees.InexactFloat64())
	m.Generation.Set(float64(report.Generation))
	m.PoolBalance.WithLabelValues("CAPITAL").Set(report.State.CapitalBalance.InexactFloat64())
	m.PoolBalance.WithLabelValues("OPERATOR").Set(report.State.OperatorBalance.InexactFloat64())
	m.HighWater.Set(report.State.HWM.InexactFloat64())
}

// ObserveSettlementError counts a failed settlement.
func (m *Metrics) ObserveSettlementError(kind string) {
	m.SettlementErrors.WithLabelValues(kind).Inc()
}

// ObserveDiscrepancies records a reconciliation outcome.
func (m *Metrics) ObserveDiscrepancies(count int) {
	m.Reconciliations.Inc()
	m.Discrepancies.Set(float64(count))
}

var _ usecase.SettlementObserver = (*Metrics)(nil)
