package bruteforce

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are recorded once per search, never from inside the hot loop.
type Metrics struct {
	Searches        *prometheus.CounterVec
	Attempts        prometheus.Counter
	Duration        prometheus.Histogram
	ChecksPerSecond prometheus.Gauge
	Active          prometheus.Gauge
}

// NewMetrics registers the search metrics with reg. A nil reg uses the
// default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Searches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "md5brute_searches_total",
			Help: "Completed searches by result (found, exhausted, cancelled)",
		}, []string{"result"}),
		Attempts: f.NewCounter(prometheus.CounterOpts{
			Name: "md5brute_attempts_total",
			Help: "Digest computations across all searches",
		}),
		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "md5brute_search_duration_seconds",
			Help:    "Wall time of a search",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 12), // 1ms to ~70min
		}),
		ChecksPerSecond: f.NewGauge(prometheus.GaugeOpts{
			Name: "md5brute_checks_per_second",
			Help: "Throughput of the most recent search",
		}),
		Active: f.NewGauge(prometheus.GaugeOpts{
			Name: "md5brute_active_searches",
			Help: "Searches currently running",
		}),
	}
}

func (m *Metrics) observe(out Outcome, cause result) {
	m.Searches.WithLabelValues(cause.String()).Inc()
	m.Attempts.Add(float64(out.Attempts))
	m.Duration.Observe(out.Elapsed.Seconds())
	m.ChecksPerSecond.Set(out.ChecksPerSecond)
}
