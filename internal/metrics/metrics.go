package metrics

import (
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's Prometheus instruments on a private registry so
// tests can build as many instances as they want without collisions.
type Metrics struct {
	Registry *prometheus.Registry

	BatchRuns        prometheus.Counter
	BatchFailures    prometheus.Counter
	CELRowsFetched   prometheus.Counter
	CallLogsCreated  prometheus.Counter
	CallLogsDeleted  prometheus.Counter
	InvalidCallLogs  prometheus.Counter
	BatchDuration    prometheus.Histogram
	GenerationActive prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{
		PidFn:     func() (int, error) { return os.Getpid(), nil },
		Namespace: "callogd",
	}))

	m := &Metrics{
		Registry: reg,
		BatchRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "callogd",
			Name:      "generation_runs_total",
			Help:      "Number of CEL generation batches started.",
		}),
		BatchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "callogd",
			Name:      "generation_failures_total",
			Help:      "Number of CEL generation batches aborted with an error.",
		}),
		CELRowsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "callogd",
			Name:      "cel_rows_fetched_total",
			Help:      "CEL rows pulled from the source for processing.",
		}),
		CallLogsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "callogd",
			Name:      "call_logs_created_total",
			Help:      "Call logs produced by interpretation.",
		}),
		CallLogsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "callogd",
			Name:      "call_logs_deleted_total",
			Help:      "Previously generated call logs superseded by a re-run.",
		}),
		InvalidCallLogs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "callogd",
			Name:      "invalid_call_logs_total",
			Help:      "Interpreted clusters that failed finalization.",
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "callogd",
			Name:      "generation_duration_seconds",
			Help:      "Wall time of one generation batch.",
			Buckets:   prometheus.DefBuckets,
		}),
		GenerationActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "callogd",
			Name:      "generation_active",
			Help:      "1 while a generation batch is running.",
		}),
	}
	reg.MustRegister(
		m.BatchRuns, m.BatchFailures, m.CELRowsFetched,
		m.CallLogsCreated, m.CallLogsDeleted, m.InvalidCallLogs,
		m.BatchDuration, m.GenerationActive,
	)
	return m
}

// Handler serves the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
