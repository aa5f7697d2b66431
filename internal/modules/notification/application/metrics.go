package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the toast store.
type Metrics struct {
	ActionsTotal *prometheus.CounterVec
	Surfaces     prometheus.Gauge
	Subscribers  prometheus.Gauge
}

// NewMetrics registers the store metrics on reg. A nil reg uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		ActionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "portal",
				Subsystem: "toast",
				Name:      "actions_total",
				Help:      "Total number of actions dispatched to toast surfaces",
			},
			[]string{"action"},
		),
		Surfaces: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "portal",
				Subsystem: "toast",
				Name:      "surfaces",
				Help:      "Number of initialized toast surfaces",
			},
		),
		Subscribers: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "portal",
				Subsystem: "toast",
				Name:      "subscribers",
				Help:      "Number of registered surface listeners",
			},
		),
	}
}
