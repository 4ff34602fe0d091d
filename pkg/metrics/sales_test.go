package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/angelmondragon/inventory-tracker/pkg/enums"
)

func TestSaleMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewSaleMetrics(reg)

	metrics.ObserveSale(enums.SaleStateCommitted, 250*time.Millisecond)
	metrics.ObserveSale(enums.SaleStateRolledBack, 10*time.Millisecond)
	metrics.IncFailure("INSUFFICIENT_STOCK")
	metrics.AddUnitsSold(5)
	metrics.AddLowStockAlerts(2)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "inventory_sale_attempts_total", "state", "committed"); err != nil {
		t.Fatalf("fetch committed: %v", err)
	} else if got != 1 {
		t.Fatalf("expected committed=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "inventory_sale_attempts_total", "state", "rolled_back"); err != nil {
		t.Fatalf("fetch rolled back: %v", err)
	} else if got != 1 {
		t.Fatalf("expected rolled_back=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "inventory_sale_failures_total", "code", "INSUFFICIENT_STOCK"); err != nil {
		t.Fatalf("fetch failures: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failures=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "inventory_sale_duration_seconds", "state", "committed"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}

	if got, err := fetchPlainCounter(mfs, "inventory_units_sold_total"); err != nil {
		t.Fatalf("fetch units sold: %v", err)
	} else if got != 5 {
		t.Fatalf("expected units sold=5, got %f", got)
	}

	if got, err := fetchPlainCounter(mfs, "inventory_low_stock_alerts_total"); err != nil {
		t.Fatalf("fetch low stock alerts: %v", err)
	} else if got != 2 {
		t.Fatalf("expected low stock alerts=2, got %f", got)
	}
}

func TestSaleMetricsNilSafe(t *testing.T) {
	var nilMetrics *SaleMetrics
	nilMetrics.ObserveSale(enums.SaleStateCommitted, time.Second)
	nilMetrics.IncFailure("X")
	nilMetrics.AddUnitsSold(1)
	nilMetrics.AddLowStockAlerts(1)

	noop := NewSaleMetrics(nil)
	noop.ObserveSale(enums.SaleStateCommitted, time.Second)
	noop.AddLowStockAlerts(1)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchPlainCounter(mfs []*dto.MetricFamily, name string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil || len(mf.GetMetric()) == 0 {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	return mf.GetMetric()[0].GetCounter().GetValue(), nil
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
