// Package metrics counts what happens during interviews. Collectors live on a
// private registry so a process can run several sessions without global state.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "talentscout"

type Metrics struct {
	registry *prometheus.Registry

	sessions           *prometheus.CounterVec
	messages           *prometheus.CounterVec
	transitions        *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	enhancements       *prometheus.CounterVec
	enhanceDuration    prometheus.Histogram
	scores             prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_total",
				Help:      "Interview sessions by lifecycle event",
			},
			[]string{"event"},
		),
		messages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_total",
				Help:      "Candidate messages processed, by the state they arrived in",
			},
			[]string{"state"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "state_transitions_total",
				Help:      "Conversation state transitions",
			},
			[]string{"from", "to"},
		),
		validationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_failures_total",
				Help:      "Rejected candidate answers by profile field",
			},
			[]string{"field"},
		),
		enhancements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "enhancements_total",
				Help:      "Response enhancement attempts by outcome",
			},
			[]string{"outcome"},
		),
		enhanceDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "enhancement_duration_seconds",
				Help:      "Time spent waiting for the enhancer",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		),
		scores: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "candidate_score",
				Help:      "Distribution of composite candidate scores ([0,10])",
				Buckets:   []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
			},
		),
	}

	m.registry.MustRegister(
		m.sessions,
		m.messages,
		m.transitions,
		m.validationFailures,
		m.enhancements,
		m.enhanceDuration,
		m.scores,
	)

	return m
}

// Registry exposes the collectors, mostly for tests and exporters.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveSession(event string) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues(event).Inc()
}

func (m *Metrics) ObserveMessage(state string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(state).Inc()
}

func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil || from == to {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) ObserveValidationFailure(field string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(field).Inc()
}

// ObserveEnhancement satisfies ai.Recorder. Calls that never reached the
// enhancer report a zero duration and are not timed.
func (m *Metrics) ObserveEnhancement(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.enhancements.WithLabelValues(outcome).Inc()
	if elapsed > 0 {
		m.enhanceDuration.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) ObserveScore(total float64) {
	if m == nil {
		return
	}
	m.scores.Observe(total)
}

// WriteToTextfile dumps the current values in the node exporter textfile format.
func (m *Metrics) WriteToTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
