// Package ports defines the contracts between the evaluator composition
// framework and its concrete members: the uniform evaluation interface with
// its declared capability descriptor, the vote-transfer strategy, and the
// pluggable quota/divisor components.
package ports

import (
	"math/big"

	"github.com/ahrav/go-psephos/internal/domain"
)

// Capabilities declares which optional evaluation inputs an evaluator
// honors. Composition wrappers inspect this descriptor at construction
// time and fail fast when they structurally require a capability their
// inner evaluator does not provide; nothing is probed per call.
type Capabilities struct {
	// Seats reports whether the evaluator consumes a seat count. Seatless
	// evaluators (e.g. threshold eliminators) derive their result size
	// from the votes alone and ignore the argument.
	Seats bool

	// Gains reports whether the evaluator honors previous-gains and
	// max-seats constraints. Evaluators without this capability ignore
	// the constraints argument entirely.
	Gains bool
}

// Evaluator is the uniform evaluation contract. V is the vote shape the
// evaluator consumes (simple tally, ranked tally, constituency-nested
// tally...); R is its result shape (selection, distribution, candidate
// list, or a constituency-nested variant).
//
// Evaluate must be a pure function of its inputs (plus any RNG owned by
// the evaluator itself): it never mutates votes or constraints, and it
// either fully succeeds or returns an error; there is no partial result.
type Evaluator[V, R any] interface {
	// Evaluate computes the result for the given votes. nSeats is ignored
	// by evaluators whose Capabilities report Seats == false, as is cons
	// when Gains == false.
	Evaluate(votes V, nSeats int, cons domain.Constraints) (R, error)

	// Capabilities returns the evaluator's declared capability descriptor.
	Capabilities() Capabilities
}

// Selector evaluates to an ordered selection, strongest winner first.
type Selector[V any] interface {
	Evaluator[V, domain.Selection]
}

// Distributor evaluates to a seat distribution.
type Distributor[V any] interface {
	Evaluator[V, domain.Distribution]
}

// Eliminator is a seatless selector producing the candidates that survive
// a precondition (e.g. an electoral threshold). The result order carries
// strength information but no seat semantics.
type Eliminator[V any] interface {
	Evaluator[V, []domain.Candidate]
}

// SeatCalculator computes an adjustment to a total seat count, used by
// overhang-aware multi-member proportional systems.
type SeatCalculator[V any] interface {
	// Calculate returns the number of seats to add to nSeats so that the
	// wrapped distributor's result never awards any candidate fewer seats
	// than its previous gains. Zero means no adjustment.
	Calculate(votes V, nSeats int, cons domain.Constraints) (int, error)
}

// OpenListEvaluator selects the candidates elected from one party's list,
// given the preferential list votes, the party's seat count and the
// party-determined list order.
type OpenListEvaluator interface {
	EvaluateList(votes domain.SimpleTally, nSeats int, list []domain.Candidate) ([]domain.Candidate, error)
}

// Converter transforms one vote or result shape into another. Converters
// are pure functions supplied externally to the PreConverted/PostConverted
// wrappers.
type Converter[In, Out any] func(In) (Out, error)

// Subsetter restricts votes to the given candidates, dropping or trimming
// everything else. Each vote shape has its own subsetting rule.
type Subsetter[V any] func(votes V, keep []domain.Candidate) (V, error)

// Totaler reduces a vote shape to its total vote count, used when seats
// are apportioned to constituencies by turnout.
type Totaler[V any] func(votes V) *big.Rat
