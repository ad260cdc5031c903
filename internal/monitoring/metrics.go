package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the Prometheus collectors for the enumeration backend.
type Metrics struct {
	Families prometheus.Gauge
	Persons  prometheus.Gauge
	Unsynced prometheus.Gauge

	SyncState    *prometheus.GaugeVec
	Online       prometheus.Gauge
	PushBatches  prometheus.Counter
	PushFailures prometheus.Counter
	RowsPushed   prometheus.Counter

	HTTPDuration *prometheus.HistogramVec
}

// NewMetrics registers all collectors against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Families: factory.NewGauge(prometheus.GaugeOpts{
			Name: "census_families_total",
			Help: "Households currently persisted in the local store.",
		}),
		Persons: factory.NewGauge(prometheus.GaugeOpts{
			Name: "census_persons_total",
			Help: "Members across all persisted households.",
		}),
		Unsynced: factory.NewGauge(prometheus.GaugeOpts{
			Name: "census_unsynced_families",
			Help: "Households not yet delivered to the collection endpoint.",
		}),
		SyncState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "census_sync_state",
			Help: "Current sync engine state (1 for the active state).",
		}, []string{"state"}),
		Online: factory.NewGauge(prometheus.GaugeOpts{
			Name: "census_connectivity_online",
			Help: "1 while the device is considered online.",
		}),
		PushBatches: factory.NewCounter(prometheus.CounterOpts{
			Name: "census_push_batches_total",
			Help: "Drain cycles that issued a remote push.",
		}),
		PushFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "census_push_failures_total",
			Help: "Remote pushes that failed or were not acknowledged.",
		}),
		RowsPushed: factory.NewCounter(prometheus.CounterOpts{
			Name: "census_rows_pushed_total",
			Help: "Member rows acknowledged by the collection endpoint.",
		}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "census_http_request_duration_seconds",
			Help:    "Local API request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

// SetSyncState marks state as the single active sync state.
func (m *Metrics) SetSyncState(state string, all []string) {
	for _, s := range all {
		v := 0.0
		if s == state {
			v = 1.0
		}
		m.SyncState.WithLabelValues(s).Set(v)
	}
}

// ObserveRequest records one API request.
func (m *Metrics) ObserveRequest(method, path, status string, d time.Duration) {
	m.HTTPDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
}
