package report

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hamed0406/pgpinger/internal/domain"
)

type Metrics struct {
	probes      *prometheus.CounterVec
	latency     prometheus.Histogram
	up          prometheus.Gauge
	atypical    prometheus.Gauge
	lastSuccess prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		probes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pgpinger_probes_total",
				Help: "Probes by outcome and failure kind",
			},
			[]string{"outcome", "kind"},
		),
		latency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "pgpinger_probe_latency_seconds",
			Help:    "Latency of successful probes",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		up: f.NewGauge(prometheus.GaugeOpts{
			Name: "pgpinger_target_up",
			Help: "1 if the last probe succeeded",
		}),
		atypical: f.NewGauge(prometheus.GaugeOpts{
			Name: "pgpinger_version_atypical",
			Help: "1 if the last reported server version was atypical",
		}),
		lastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: "pgpinger_last_success_timestamp_seconds",
			Help: "Unix time of the last successful probe",
		}),
	}
}

func (m *Metrics) Report(_ context.Context, r domain.ProbeResult) error {
	m.probes.WithLabelValues(string(r.Outcome), string(r.Kind)).Inc()
	if !r.OK() {
		m.up.Set(0)
		return nil
	}
	m.up.Set(1)
	m.latency.Observe(r.Latency.Seconds())
	m.lastSuccess.Set(float64(r.CheckedAt.Unix()))
	if r.Atypical {
		m.atypical.Set(1)
	} else {
		m.atypical.Set(0)
	}
	return nil
}
