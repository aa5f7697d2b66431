package application

import (
	"errors"

	"github.com/brokeradda/portal/internal/modules/auth/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for OTP verification flows.
type Metrics struct {
	VerifyTotal *prometheus.CounterVec
	ResendTotal *prometheus.CounterVec
	ActiveFlows prometheus.Gauge
}

// NewMetrics registers the OTP metrics on reg. A nil reg uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		VerifyTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "portal",
				Subsystem: "otp",
				Name:      "verifications_total",
				Help:      "Total number of OTP verification attempts by outcome",
			},
			[]string{"outcome"},
		),
		ResendTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "portal",
				Subsystem: "otp",
				Name:      "resends_total",
				Help:      "Total number of OTP resend requests by outcome",
			},
			[]string{"outcome"},
		),
		ActiveFlows: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "portal",
				Subsystem: "otp",
				Name:      "active_flows",
				Help:      "Number of open OTP verification flows",
			},
		),
	}
}

func (m *Metrics) verified(err error) {
	if m == nil {
		return
	}
	m.VerifyTotal.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) resent(result string) {
	if m == nil {
		return
	}
	m.ResendTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) flowOpened() {
	if m != nil {
		m.ActiveFlows.Inc()
	}
}

func (m *Metrics) flowClosed() {
	if m != nil {
		m.ActiveFlows.Dec()
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrServerRejected):
		return "rejected"
	case errors.Is(err, domain.ErrTransport):
		return "transport"
	case errors.Is(err, domain.ErrTokenIntegrity):
		return "token"
	default:
		return "error"
	}
}
