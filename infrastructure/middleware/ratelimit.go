package middleware

import (
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/ahrav/go-psephos/internal/domain"
	"github.com/ahrav/go-psephos/internal/ports"
)

// ErrRateLimited is returned when an evaluation is rejected by the rate
// limiter.
var ErrRateLimited = errors.New("evaluation rate limited")

// RateLimited rejects evaluations beyond a token-bucket budget. Useful when
// the engine serves untrusted callers: exact-rational counting over large
// ballot sets is CPU-bound and unbounded in latency.
type RateLimited[V, R any] struct {
	inner   ports.Evaluator[V, R]
	limiter *rate.Limiter
}

// NewRateLimited wraps inner behind the given limiter.
func NewRateLimited[V, R any](inner ports.Evaluator[V, R], limiter *rate.Limiter) (*RateLimited[V, R], error) {
	if limiter == nil {
		return nil, fmt.Errorf("%w: rate limiting requires a limiter", domain.ErrConfiguration)
	}
	return &RateLimited[V, R]{inner: inner, limiter: limiter}, nil
}

// Evaluate delegates when a token is available and fails fast otherwise.
func (r *RateLimited[V, R]) Evaluate(votes V, nSeats int, cons domain.Constraints) (R, error) {
	if !r.limiter.Allow() {
		var zero R
		return zero, ErrRateLimited
	}
	return r.inner.Evaluate(votes, nSeats, cons)
}

// Capabilities reports the inner evaluator's capabilities unchanged.
func (r *RateLimited[V, R]) Capabilities() ports.Capabilities { return r.inner.Capabilities() }
