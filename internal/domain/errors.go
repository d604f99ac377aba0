package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy of the engine. Every failure an evaluator can produce
// wraps exactly one of these sentinels, so callers can classify failures
// with errors.Is without parsing messages.
var (
	// ErrConfiguration indicates an evaluator was composed incorrectly:
	// a wrapper requires a capability its inner evaluator does not declare,
	// a required quota/signpost is missing, or a parameter is out of range.
	// It is always detected at construction time, never mid-evaluation.
	ErrConfiguration = errors.New("invalid evaluator configuration")

	// ErrUnresolvableTie indicates an evaluation reached a tie it has no
	// policy to resolve. Picking an arbitrary winner would be a fairness
	// violation, so the tie propagates; callers wanting resolution must
	// compose a TieBreaking wrapper explicitly.
	ErrUnresolvableTie = errors.New("unresolvable tie")

	// ErrNotConverging indicates a counting process performed a step that
	// changed nothing. This is fatal: the process is provably stuck.
	ErrNotConverging = errors.New("evaluation not converging")

	// ErrSolverInvariant indicates the biproportional solver computed a
	// value outside its feasible range, which means the inputs are
	// inconsistent (e.g. a district or party with zero total votes).
	ErrSolverInvariant = errors.New("solver invariant violation")

	// ErrInputShape indicates votes of an unexpected shape, such as a
	// ballot ranking the same candidate twice. Full vote validation is a
	// caller concern; this sentinel only guards against shapes the engine
	// cannot process meaningfully.
	ErrInputShape = errors.New("malformed vote input")
)

// TieError carries the tie that could not be resolved together with the
// evaluation stage that hit it.
type TieError struct {
	// Stage names the point of the evaluation where the tie arose,
	// e.g. "stv quota overcount cutoff" or "stv elimination".
	Stage string

	// Tie holds the tied candidates.
	Tie Tie
}

// Error implements the error interface.
func (e *TieError) Error() string {
	return fmt.Sprintf("%v at %s: %v", ErrUnresolvableTie, e.Stage, e.Tie.Members())
}

// Unwrap links the error to ErrUnresolvableTie for errors.Is.
func (e *TieError) Unwrap() error { return ErrUnresolvableTie }
