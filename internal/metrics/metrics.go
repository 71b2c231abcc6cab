// Package metrics provides Prometheus metrics for the devteam agent.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the agent.
type Metrics struct {
	MessagesTotal       *prometheus.CounterVec
	TurnDuration        *prometheus.HistogramVec
	CapabilityCalls     *prometheus.CounterVec
	ActiveConversations prometheus.Gauge
	ErrorsTotal         *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		MessagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_messages_total",
				Help: "Total inbound messages processed by persona and status.",
			},
			[]string{"persona", "status"},
		),
		TurnDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agent_turn_duration_seconds",
				Help:    "Full persona turn duration (model + capability calls) by persona.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"persona"},
		),
		CapabilityCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_capability_calls_total",
				Help: "Capability invocations by name and outcome.",
			},
			[]string{"capability", "outcome"},
		),
		ActiveConversations: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "agent_active_conversations",
				Help: "Number of conversations with tracked workflow state.",
			},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_errors_total",
				Help: "Total errors by module and type.",
			},
			[]string{"module", "type"},
		),
		registry: reg,
	}

	reg.MustRegister(m.MessagesTotal)
	reg.MustRegister(m.TurnDuration)
	reg.MustRegister(m.CapabilityCalls)
	reg.MustRegister(m.ActiveConversations)
	reg.MustRegister(m.ErrorsTotal)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordMessage increments the message counter.
func (m *Metrics) RecordMessage(persona, status string) {
	m.MessagesTotal.WithLabelValues(persona, status).Inc()
}

// RecordCapability increments the capability call counter.
func (m *Metrics) RecordCapability(capability, outcome string) {
	m.CapabilityCalls.WithLabelValues(capability, outcome).Inc()
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(module, errType string) {
	m.ErrorsTotal.WithLabelValues(module, errType).Inc()
}

// ObserveTurn records a persona turn duration.
func (m *Metrics) ObserveTurn(persona string, seconds float64) {
	m.TurnDuration.WithLabelValues(persona).Observe(seconds)
}

// SetActiveConversations sets the tracked conversation count.
func (m *Metrics) SetActiveConversations(count float64) {
	m.ActiveConversations.Set(count)
}
