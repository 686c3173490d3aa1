package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess    = "success"
	outcomeError      = "error"
	outcomeSuperseded = "superseded"
)

// Metrics holds the Prometheus collectors for load outcomes. A nil *Metrics
// records nothing.
type Metrics struct {
	Loads    *prometheus.CounterVec
	Duration prometheus.Histogram
	Records  prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "import_loads_total",
			Help: "Finished loads by outcome.",
		}, []string{"outcome"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "import_load_duration_seconds",
			Help:    "Time from selection to outcome.",
			Buckets: prometheus.DefBuckets,
		}),
		Records: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "import_records_loaded",
			Help: "Records in the last successful load.",
		}),
	}
	reg.MustRegister(m.Loads, m.Duration, m.Records)
	return m
}

func (m *Metrics) observe(outcome string, elapsed time.Duration, records int) {
	if m == nil {
		return
	}
	m.Loads.WithLabelValues(outcome).Inc()
	if outcome == outcomeSuperseded {
		return
	}
	m.Duration.Observe(elapsed.Seconds())
	if outcome == outcomeSuccess {
		m.Records.Set(float64(records))
	}
}
