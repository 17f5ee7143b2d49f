package marketplace

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics — счётчики и гистограмма запросов к маркетплейсу.
type Metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewMetrics создаёт метрики и регистрирует их в reg (если reg != nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vatomi",
			Subsystem: "marketplace",
			Name:      "requests_total",
			Help:      "Marketplace API calls by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vatomi",
			Subsystem: "marketplace",
			Name:      "request_duration_seconds",
			Help:      "Marketplace API call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}

	if reg != nil {
		reg.MustRegister(m.requests, m.latency)
	}

	return m
}

func (m *Metrics) observe(endpoint, outcome string, seconds float64) {
	if m == nil {
		return
	}

	m.requests.WithLabelValues(endpoint, outcome).Inc()
	m.latency.WithLabelValues(endpoint).Observe(seconds)
}
