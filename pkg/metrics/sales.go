package metrics

import (
	"time"

	"github.com/angelmondragon/inventory-tracker/pkg/enums"
	"github.com/prometheus/client_golang/prometheus"
)

// SaleMetrics records the outcome of sale attempts and stock alerts.
type SaleMetrics struct {
	duration  *prometheus.HistogramVec
	attempts  *prometheus.CounterVec
	failures  *prometheus.CounterVec
	unitsSold prometheus.Counter
	lowStock  prometheus.Counter
}

// NewSaleMetrics registers the sale metrics on the provided registerer. A nil
// registerer yields a no-op recorder.
func NewSaleMetrics(reg prometheus.Registerer) *SaleMetrics {
	if reg == nil {
		return &SaleMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inventory_sale_duration_seconds",
		Help:    "Duration of sale transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"state"})
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_sale_attempts_total",
		Help: "Sale attempts by terminal state.",
	}, []string{"state"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_sale_failures_total",
		Help: "Rolled back sale attempts by error code.",
	}, []string{"code"})
	unitsSold := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "inventory_units_sold_total",
		Help: "Units deducted by committed sales.",
	})
	lowStock := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "inventory_low_stock_alerts_total",
		Help: "Low stock warnings raised by sales and inventory scans.",
	})
	reg.MustRegister(duration, attempts, failures, unitsSold, lowStock)
	return &SaleMetrics{
		duration:  duration,
		attempts:  attempts,
		failures:  failures,
		unitsSold: unitsSold,
		lowStock:  lowStock,
	}
}

// ObserveSale records a finished attempt in its terminal state.
func (m *SaleMetrics) ObserveSale(state enums.SaleState, duration time.Duration) {
	if m == nil || m.attempts == nil {
		return
	}
	label := normalizeLabel(state.String())
	m.attempts.WithLabelValues(label).Inc()
	m.duration.WithLabelValues(label).Observe(duration.Seconds())
}

// IncFailure counts a rolled back attempt under its error code.
func (m *SaleMetrics) IncFailure(code string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(code)).Inc()
}

func (m *SaleMetrics) AddUnitsSold(qty int) {
	if m == nil || m.unitsSold == nil || qty <= 0 {
		return
	}
	m.unitsSold.Add(float64(qty))
}

func (m *SaleMetrics) AddLowStockAlerts(n int) {
	if m == nil || m.lowStock == nil || n <= 0 {
		return
	}
	m.lowStock.Add(float64(n))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
