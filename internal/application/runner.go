package application

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-psephos/internal/domain"
	"github.com/ahrav/go-psephos/internal/ports"
)

// BatchInput is one independent evaluation in a batch.
type BatchInput[V any] struct {
	Votes       V
	Seats       int
	Constraints domain.Constraints
}

// BatchRunner evaluates many independent tallies concurrently: Monte Carlo
// simulation, what-if analysis over historical elections, and similar bulk
// workloads. Each evaluation is pure and CPU-bound, so the runner simply
// fans out over a bounded worker group.
//
// The wrapped evaluator must be safe for concurrent use. All deterministic
// evaluators are; strategies owning a random source (Hare transfers,
// sortition) are not, and need one evaluator instance per batch or a
// concurrency of one.
type BatchRunner[V, R any] struct {
	eval        ports.Evaluator[V, R]
	concurrency int
}

// NewBatchRunner wraps an evaluator for batch use with the given worker
// bound.
func NewBatchRunner[V, R any](eval ports.Evaluator[V, R], concurrency int) (*BatchRunner[V, R], error) {
	if concurrency < 1 {
		return nil, fmt.Errorf("%w: batch concurrency must be positive, got %d", domain.ErrConfiguration, concurrency)
	}
	return &BatchRunner[V, R]{eval: eval, concurrency: concurrency}, nil
}

// Run evaluates every input and returns the results in input order. The
// first failing evaluation cancels the rest; individual evaluations do not
// observe the context since the engine has no suspension points.
func (r *BatchRunner[V, R]) Run(ctx context.Context, inputs []BatchInput[V]) ([]R, error) {
	results := make([]R, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			in := inputs[i]
			result, err := r.eval.Evaluate(in.Votes, in.Seats, in.Constraints)
			if err != nil {
				return fmt.Errorf("input %d: %w", i, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
