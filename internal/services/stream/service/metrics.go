package service

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the hub's Prometheus collectors
type Metrics struct {
	Connections prometheus.Gauge
	Events      *prometheus.CounterVec
	Drops       prometheus.Counter
}

// NewMetrics builds and registers the hub collectors
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "marketfeed_stream_connections",
			Help: "Number of active stream connections",
		}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketfeed_stream_events_total",
			Help: "Feed events fanned out, by kind",
		}, []string{"kind"}),
		Drops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketfeed_stream_drops_total",
			Help: "Connections dropped for falling behind",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Connections, m.Events, m.Drops)
	}
	return m
}
