package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestBotMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewBotMetrics(reg)

	metrics.ObserveEvent("scan", "ok", 250*time.Millisecond)
	metrics.IncScan("add", "added")
	metrics.IncCatalogLookup("cache")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "bot_events_handled_total", "kind", "scan"); err != nil {
		t.Fatalf("fetch events: %v", err)
	} else if got != 1 {
		t.Fatalf("expected events=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "bot_scans_processed_total", "mode", "add"); err != nil {
		t.Fatalf("fetch scans: %v", err)
	} else if got != 1 {
		t.Fatalf("expected scans=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "bot_catalog_lookups_total", "source", "cache"); err != nil {
		t.Fatalf("fetch lookups: %v", err)
	} else if got != 1 {
		t.Fatalf("expected lookups=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "bot_event_duration_seconds", "kind", "scan"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestBotMetricsNilSafe(t *testing.T) {
	var metrics *BotMetrics
	metrics.ObserveEvent("text", "ok", time.Millisecond)
	metrics.IncScan("remove", "missing")
	metrics.IncCatalogLookup("placeholder")
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
