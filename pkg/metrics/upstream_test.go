package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestUpstreamMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewUpstreamMetrics(reg)
	metrics.ObserveRequest("count_sheet", 250*time.Millisecond)
	metrics.IncRefreshAttempt()
	metrics.IncRefreshSuccess()
	metrics.IncReplayedCall()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "upstream_refresh_attempts"); err != nil {
		t.Fatalf("fetch attempts: %v", err)
	} else if got != 1 {
		t.Fatalf("expected attempts=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "upstream_replayed_calls"); err != nil {
		t.Fatalf("fetch replayed: %v", err)
	} else if got != 1 {
		t.Fatalf("expected replayed=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "upstream_request_duration_seconds"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestOrderMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewOrderMetrics(reg)
	metrics.IncConfirmed()
	metrics.IncDraftSaved()
	metrics.IncDraftSaved()
	metrics.IncSessionStarted()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "purchase_order_drafts_saved"); err != nil {
		t.Fatalf("fetch drafts: %v", err)
	} else if got != 2 {
		t.Fatalf("expected drafts=2, got %f", got)
	}
}

func TestNilRegistererYieldsNoopMetrics(t *testing.T) {
	upstream := NewUpstreamMetrics(nil)
	upstream.IncRefreshAttempt()
	upstream.ObserveRequest("order_document", time.Second)

	orders := NewOrderMetrics(nil)
	orders.IncConfirmed()
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		return metric.GetCounter().GetValue(), nil
	}
	return 0, fmt.Errorf("metric %q has no samples", name)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		return metric.GetHistogram().GetSampleSum(), nil
	}
	return 0, fmt.Errorf("histogram %q has no samples", name)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}
