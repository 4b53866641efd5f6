package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "station_feed"

// Metrics holds the Prometheus collectors for feed ingestion.
type Metrics struct {
	FilesProcessed  *prometheus.CounterVec // labels: cadence, outcome={ok,network,malformed,unknown_station,canceled}
	FetchDuration   prometheus.Histogram
	FetchesInFlight prometheus.Gauge

	// Raw feed cache.
	FeedCache        *prometheus.CounterVec // labels: result={hit,miss}
	FeedCacheEntries prometheus.Gauge

	// Metrics engine.
	MetricsUnavailable *prometheus.CounterVec // labels: metric={rainfall,saturation}

	// Orchestration.
	PassDuration         *prometheus.HistogramVec // labels: cadence
	RefreshesTotal       prometheus.Counter
	LastRefreshTimestamp prometheus.Gauge
	StationsReporting    prometheus.Gauge

	SnapshotMessagesProduced prometheus.Counter
	SnapshotPublishErrors    prometheus.Counter
}

// NewMetrics creates and registers all feed metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// build as many as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FilesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "Feed files processed by cadence and outcome.",
		}, []string{"cadence", "outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of feed file retrievals, cache hits included.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		FetchesInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fetches_in_flight",
			Help:      "Feed retrievals currently outstanding.",
		}),
		FeedCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Raw feed cache lookups by result.",
		}, []string{"result"}),
		FeedCacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_entries",
			Help:      "Raw feed texts currently cached.",
		}),
		MetricsUnavailable: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metrics_unavailable_total",
			Help:      "Derived metrics that fell back to their sentinel value.",
		}, []string{"metric"}),
		PassDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Duration of one orchestration pass over a file list.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"cadence"}),
		RefreshesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Completed refreshes of every station.",
		}),
		LastRefreshTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_refresh_timestamp_seconds",
			Help:      "Unix time of the last completed refresh.",
		}),
		StationsReporting: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stations_reporting",
			Help:      "Stations with at least one parsed feed.",
		}),
		SnapshotMessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_messages_produced_total",
			Help:      "Station snapshot messages written to Kafka.",
		}),
		SnapshotPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_publish_errors_total",
			Help:      "Snapshot publishes that failed.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.FilesProcessed,
		m.FetchDuration,
		m.FetchesInFlight,
		m.FeedCache,
		m.FeedCacheEntries,
		m.MetricsUnavailable,
		m.PassDuration,
		m.RefreshesTotal,
		m.LastRefreshTimestamp,
		m.StationsReporting,
		m.SnapshotMessagesProduced,
		m.SnapshotPublishErrors,
	}
}
