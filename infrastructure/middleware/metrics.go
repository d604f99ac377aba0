// Package middleware provides generic evaluator decorators for embedding
// the engine in shared services: Prometheus metrics, OpenTelemetry tracing
// and token-bucket rate limiting. Each decorator wraps any evaluator and
// forwards its capability descriptor unchanged.
package middleware

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ahrav/go-psephos/internal/domain"
	"github.com/ahrav/go-psephos/internal/ports"
)

// Metrics records evaluation counts, outcomes and latencies for a wrapped
// evaluator. Outcomes distinguish clean results, results carrying ties and
// errors, since tie frequency is the signal election operators watch.
type Metrics[V, R any] struct {
	inner       ports.Evaluator[V, R]
	evaluations *prometheus.CounterVec
	duration    prometheus.Histogram
}

// NewMetrics wraps inner with metrics registered under the given evaluator
// name.
func NewMetrics[V, R any](inner ports.Evaluator[V, R], name string, reg prometheus.Registerer) (*Metrics[V, R], error) {
	if reg == nil {
		return nil, fmt.Errorf("%w: metrics middleware requires a registerer", domain.ErrConfiguration)
	}
	m := &Metrics[V, R]{
		inner: inner,
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "psephos_evaluations_total",
			Help:        "Evaluations by outcome.",
			ConstLabels: prometheus.Labels{"evaluator": name},
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "psephos_evaluation_duration_seconds",
			Help:        "Evaluation latency.",
			ConstLabels: prometheus.Labels{"evaluator": name},
			Buckets:     prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}
	if err := reg.Register(m.evaluations); err != nil {
		return nil, fmt.Errorf("registering evaluation counter: %w", err)
	}
	if err := reg.Register(m.duration); err != nil {
		return nil, fmt.Errorf("registering duration histogram: %w", err)
	}
	return m, nil
}

// Evaluate delegates and records the outcome.
func (m *Metrics[V, R]) Evaluate(votes V, nSeats int, cons domain.Constraints) (R, error) {
	start := time.Now()
	result, err := m.inner.Evaluate(votes, nSeats, cons)
	m.duration.Observe(time.Since(start).Seconds())
	m.evaluations.WithLabelValues(outcome(result, err)).Inc()
	return result, err
}

// Capabilities reports the inner evaluator's capabilities unchanged.
func (m *Metrics[V, R]) Capabilities() ports.Capabilities { return m.inner.Capabilities() }

// outcome classifies an evaluation for the metrics label.
func outcome(result any, err error) string {
	if err != nil {
		return "error"
	}
	switch res := result.(type) {
	case domain.Selection:
		if res.HasTie() {
			return "tie"
		}
	case domain.Distribution:
		if res.HasTie() {
			return "tie"
		}
	}
	return "ok"
}
