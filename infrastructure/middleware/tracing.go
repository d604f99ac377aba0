package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-psephos/internal/domain"
	"github.com/ahrav/go-psephos/internal/ports"
)

const tracerName = "github.com/ahrav/go-psephos/infrastructure/middleware"

// Tracing emits an OpenTelemetry span per evaluation, carrying the seat
// count and the tie outcome as attributes. Evaluations are synchronous and
// context-free, so each span is a root in the ambient tracer provider.
type Tracing[V, R any] struct {
	inner  ports.Evaluator[V, R]
	tracer trace.Tracer
	name   string
}

// NewTracing wraps inner with tracing under the given evaluator name.
func NewTracing[V, R any](inner ports.Evaluator[V, R], name string) *Tracing[V, R] {
	return &Tracing[V, R]{inner: inner, tracer: otel.Tracer(tracerName), name: name}
}

// Evaluate delegates inside a span.
func (t *Tracing[V, R]) Evaluate(votes V, nSeats int, cons domain.Constraints) (R, error) {
	_, span := t.tracer.Start(context.Background(), "psephos.evaluate",
		trace.WithAttributes(
			attribute.String("evaluator", t.name),
			attribute.Int("seats", nSeats),
		))
	defer span.End()

	result, err := t.inner.Evaluate(votes, nSeats, cons)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, err
	}
	switch res := any(result).(type) {
	case domain.Selection:
		span.SetAttributes(attribute.Bool("tie", res.HasTie()))
	case domain.Distribution:
		span.SetAttributes(attribute.Bool("tie", res.HasTie()))
	}
	return result, nil
}

// Capabilities reports the inner evaluator's capabilities unchanged.
func (t *Tracing[V, R]) Capabilities() ports.Capabilities { return t.inner.Capabilities() }
