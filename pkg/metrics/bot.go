package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BotMetrics records counters for event dispatch, scan reconciliation, and
// catalog lookups.
type BotMetrics struct {
	eventsHandled  *prometheus.CounterVec
	eventDuration  *prometheus.HistogramVec
	scansProcessed *prometheus.CounterVec
	catalogLookups *prometheus.CounterVec
}

// NewBotMetrics registers the bot metrics on the provided registerer.
func NewBotMetrics(reg prometheus.Registerer) *BotMetrics {
	if reg == nil {
		return &BotMetrics{}
	}
	eventsHandled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_events_handled_total",
		Help: "Transport events dispatched, labeled by kind and outcome.",
	}, []string{"kind", "outcome"})
	eventDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bot_event_duration_seconds",
		Help:    "Duration of event handling in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	scansProcessed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_scans_processed_total",
		Help: "Scanned barcodes reconciled, labeled by mode and result.",
	}, []string{"mode", "result"})
	catalogLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_catalog_lookups_total",
		Help: "Product resolutions, labeled by source (cache, catalog, placeholder).",
	}, []string{"source"})
	reg.MustRegister(eventsHandled, eventDuration, scansProcessed, catalogLookups)
	return &BotMetrics{
		eventsHandled:  eventsHandled,
		eventDuration:  eventDuration,
		scansProcessed: scansProcessed,
		catalogLookups: catalogLookups,
	}
}

// ObserveEvent records one dispatched event.
func (b *BotMetrics) ObserveEvent(kind, outcome string, duration time.Duration) {
	if b == nil || b.eventsHandled == nil {
		return
	}
	b.eventsHandled.WithLabelValues(normalizeLabel(kind), normalizeLabel(outcome)).Inc()
	b.eventDuration.WithLabelValues(normalizeLabel(kind)).Observe(duration.Seconds())
}

// IncScan counts one reconciled barcode.
func (b *BotMetrics) IncScan(mode, result string) {
	if b == nil || b.scansProcessed == nil {
		return
	}
	b.scansProcessed.WithLabelValues(normalizeLabel(mode), normalizeLabel(result)).Inc()
}

// IncCatalogLookup counts one product resolution by source.
func (b *BotMetrics) IncCatalogLookup(source string) {
	if b == nil || b.catalogLookups == nil {
		return
	}
	b.catalogLookups.WithLabelValues(normalizeLabel(source)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
