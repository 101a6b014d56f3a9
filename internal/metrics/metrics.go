// Package metrics holds the Prometheus collectors of the ingestor and the
// publisher. A nil collector set is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tradepulse"

// Ingest instruments the ingestion loop and the snapshot persister.
type Ingest struct {
	cycles        prometheus.Counter
	cycleFailures prometheus.Counter
	fetched       prometheus.Counter
	dropped       prometheus.Counter
	newTrades     prometheus.Counter
	writeFailures *prometheus.CounterVec
	storeSize     prometheus.Gauge
	cycleDuration prometheus.Histogram
}

func NewIngest(reg prometheus.Registerer) *Ingest {
	f := promauto.With(reg)
	return &Ingest{
		cycles: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ingest", Name: "cycles_total",
			Help: "Ingestion cycles started.",
		}),
		cycleFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ingest", Name: "cycle_failures_total",
			Help: "Ingestion cycles that ended without publishing.",
		}),
		fetched: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ingest", Name: "fetched_records_total",
			Help: "Raw trade records received from upstream.",
		}),
		dropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ingest", Name: "dropped_records_total",
			Help: "Raw trade records rejected as malformed.",
		}),
		newTrades: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ingest", Name: "new_trades_total",
			Help: "Trades admitted to the store.",
		}),
		writeFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "snapshot", Name: "write_failures_total",
			Help: "Artifact writes that failed and left the previous file in place.",
		}, []string{"artifact"}),
		storeSize: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "store", Name: "trades",
			Help: "Distinct trades held in memory.",
		}),
		cycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "ingest", Name: "cycle_duration_seconds",
			Help:    "Wall time of one fetch-update-compute-persist cycle.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}
}

func (m *Ingest) CycleStarted() {
	if m == nil {
		return
	}
	m.cycles.Inc()
}

func (m *Ingest) CycleFailed() {
	if m == nil {
		return
	}
	m.cycleFailures.Inc()
}

// Batch records one fetched batch.
func (m *Ingest) Batch(fetched, dropped, added, storeSize int) {
	if m == nil {
		return
	}
	m.fetched.Add(float64(fetched))
	m.dropped.Add(float64(dropped))
	m.newTrades.Add(float64(added))
	m.storeSize.Set(float64(storeSize))
}

func (m *Ingest) WriteFailed(artifact string) {
	if m == nil {
		return
	}
	m.writeFailures.WithLabelValues(artifact).Inc()
}

func (m *Ingest) ObserveCycle(d time.Duration) {
	if m == nil {
		return
	}
	m.cycleDuration.Observe(d.Seconds())
}

// Cache instruments the snapshot cache.
type Cache struct {
	reloads       *prometheus.CounterVec
	parseFailures *prometheus.CounterVec
}

func NewCache(reg prometheus.Registerer) *Cache {
	f := promauto.With(reg)
	return &Cache{
		reloads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "reloads_total",
			Help: "Artifact reloads after a modification was observed.",
		}, []string{"artifact"}),
		parseFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "parse_failures_total",
			Help: "Reloads whose content could not be parsed.",
		}, []string{"artifact"}),
	}
}

func (m *Cache) Reloaded(artifact string) {
	if m == nil {
		return
	}
	m.reloads.WithLabelValues(artifact).Inc()
}

func (m *Cache) ParseFailed(artifact string) {
	if m == nil {
		return
	}
	m.parseFailures.WithLabelValues(artifact).Inc()
}
