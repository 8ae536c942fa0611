// Package metrics exposes the Lark controller's state as Prometheus
// collectors. Wire it up by attaching the tracer returned from
// ConnectionTracer to a controller.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/larknet/lark/logging"
)

// LarkMetrics holds all controller-related Prometheus metrics
type LarkMetrics struct {
	// Controller state
	Alpha            prometheus.Gauge
	CongestionWindow prometheus.Gauge
	SsThresh         prometheus.Gauge

	// Fusion detector
	Verdicts *prometheus.CounterVec

	// ECN
	EcnCeInWindow prometheus.Gauge
	EcnCeTotal    prometheus.Counter

	// Export channel and contract health
	Observations       prometheus.Counter
	ContractViolations prometheus.Counter
}

// NewLarkMetrics creates and registers all Lark metrics with the given
// registerer.
func NewLarkMetrics(reg prometheus.Registerer) *LarkMetrics {
	factory := promauto.With(reg)
	return &LarkMetrics{
		Alpha: factory.NewGauge(prometheus.GaugeOpts{
			Name: "lark_alpha",
			Help: "Current adaptive multiplicative factor",
		}),
		CongestionWindow: factory.NewGauge(prometheus.GaugeOpts{
			Name: "lark_congestion_window_bytes",
			Help: "Congestion window last written to the host, in bytes",
		}),
		SsThresh: factory.NewGauge(prometheus.GaugeOpts{
			Name: "lark_ssthresh_bytes",
			Help: "Slow-start threshold last returned to the host, in bytes",
		}),
		Verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lark_verdicts_total",
			Help: "Fusion detector verdicts by kind",
		}, []string{"verdict"}),
		EcnCeInWindow: factory.NewGauge(prometheus.GaugeOpts{
			Name: "lark_ecn_ce_in_window",
			Help: "CE marks inside the sliding ECN window",
		}),
		EcnCeTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "lark_ecn_ce_total",
			Help: "CE marks observed over the connection lifetime",
		}),
		Observations: factory.NewCounter(prometheus.CounterOpts{
			Name: "lark_observations_total",
			Help: "Observation vectors emitted on the export channel",
		}),
		ContractViolations: factory.NewCounter(prometheus.CounterOpts{
			Name: "lark_contract_violations_total",
			Help: "Host callbacks dropped for violating the contract",
		}),
	}
}

// ConnectionTracer returns a tracer that folds controller events into the
// metrics. Compose it with a logging tracer by filling the remaining fields.
func (m *LarkMetrics) ConnectionTracer() *logging.ConnectionTracer {
	return &logging.ConnectionTracer{
		UpdatedAlpha: func(alpha, _ float64) {
			m.Alpha.Set(alpha)
		},
		CongestionVerdict: func(verdict string, _ float64) {
			m.Verdicts.WithLabelValues(verdict).Inc()
		},
		UpdatedCongestionWindow: func(_, newCwnd logging.ByteCount) {
			m.CongestionWindow.Set(float64(newCwnd))
		},
		UpdatedSsThresh: func(ssthresh logging.ByteCount) {
			m.SsThresh.Set(float64(ssthresh))
		},
		EcnCeCounted: func(inWindow int) {
			m.EcnCeTotal.Inc()
			m.EcnCeInWindow.Set(float64(inWindow))
		},
		ObservationTaken: func(_ logging.ObservationVector) {
			m.Observations.Inc()
		},
		ContractViolation: func(_ string) {
			m.ContractViolations.Inc()
		},
	}
}
