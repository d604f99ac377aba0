package evaluate

import (
	"fmt"

	"github.com/ahrav/go-psephos/internal/domain"
	"github.com/ahrav/go-psephos/internal/ports"
)

// FixedSeatCount pins the inner evaluator's seat count to a constant,
// turning a seat-parameterized evaluator into a seatless one. Wrapping an
// evaluator that ignores seat counts is a configuration error.
type FixedSeatCount[V, R any] struct {
	inner ports.Evaluator[V, R]
	n     int
}

// NewFixedSeatCount wraps inner with a fixed seat count.
func NewFixedSeatCount[V, R any](inner ports.Evaluator[V, R], n int) (*FixedSeatCount[V, R], error) {
	if err := requireSeats(inner.Capabilities(), "fixed seat count"); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: fixed seat count must be non-negative, got %d", domain.ErrConfiguration, n)
	}
	return &FixedSeatCount[V, R]{inner: inner, n: n}, nil
}

// Evaluate delegates to the inner evaluator with the fixed seat count,
// ignoring the nSeats argument.
func (f *FixedSeatCount[V, R]) Evaluate(votes V, _ int, cons domain.Constraints) (R, error) {
	return f.inner.Evaluate(votes, f.n, cons)
}

// Capabilities reports the inner constraint handling with seat awareness
// masked off.
func (f *FixedSeatCount[V, R]) Capabilities() ports.Capabilities {
	return ports.Capabilities{Gains: f.inner.Capabilities().Gains}
}

// PreConverted transforms the votes with a pure converter before
// delegating, adapting an evaluator to a vote shape it does not consume
// natively (approval ballots summed into a simple tally, for example).
type PreConverted[In, Mid, R any] struct {
	convert ports.Converter[In, Mid]
	inner   ports.Evaluator[Mid, R]
}

// NewPreConverted wraps inner behind a vote-shape conversion.
func NewPreConverted[In, Mid, R any](convert ports.Converter[In, Mid], inner ports.Evaluator[Mid, R]) (*PreConverted[In, Mid, R], error) {
	if convert == nil {
		return nil, fmt.Errorf("%w: pre-conversion requires a converter", domain.ErrConfiguration)
	}
	return &PreConverted[In, Mid, R]{convert: convert, inner: inner}, nil
}

// Evaluate converts the votes and delegates.
func (p *PreConverted[In, Mid, R]) Evaluate(votes In, nSeats int, cons domain.Constraints) (R, error) {
	var zero R
	mid, err := p.convert(votes)
	if err != nil {
		return zero, fmt.Errorf("pre-conversion: %w", err)
	}
	return p.inner.Evaluate(mid, nSeats, cons)
}

// Capabilities reports the inner evaluator's capabilities unchanged.
func (p *PreConverted[In, Mid, R]) Capabilities() ports.Capabilities {
	return p.inner.Capabilities()
}

// PostConverted transforms the inner evaluator's result with a pure
// converter, adapting a result shape (a selection flattened to a candidate
// list, a distribution re-keyed, ...).
type PostConverted[V, Mid, Out any] struct {
	inner   ports.Evaluator[V, Mid]
	convert ports.Converter[Mid, Out]
}

// NewPostConverted wraps inner with a result conversion.
func NewPostConverted[V, Mid, Out any](inner ports.Evaluator[V, Mid], convert ports.Converter[Mid, Out]) (*PostConverted[V, Mid, Out], error) {
	if convert == nil {
		return nil, fmt.Errorf("%w: post-conversion requires a converter", domain.ErrConfiguration)
	}
	return &PostConverted[V, Mid, Out]{inner: inner, convert: convert}, nil
}

// Evaluate delegates and converts the result.
func (p *PostConverted[V, Mid, Out]) Evaluate(votes V, nSeats int, cons domain.Constraints) (Out, error) {
	var zero Out
	mid, err := p.inner.Evaluate(votes, nSeats, cons)
	if err != nil {
		return zero, err
	}
	out, err := p.convert(mid)
	if err != nil {
		return zero, fmt.Errorf("post-conversion: %w", err)
	}
	return out, nil
}

// Capabilities reports the inner evaluator's capabilities unchanged.
func (p *PostConverted[V, Mid, Out]) Capabilities() ports.Capabilities {
	return p.inner.Capabilities()
}

// Conditioned runs a seatless eliminator over the full votes and restricts
// them to the survivors before delegating, which is how electoral
// thresholds exclude parties from proportional allocation.
type Conditioned[V, R any] struct {
	eliminator ports.Eliminator[V]
	inner      ports.Evaluator[V, R]
	subset     ports.Subsetter[V]
}

// NewConditioned wraps inner behind an eliminator precondition.
func NewConditioned[V, R any](eliminator ports.Eliminator[V], inner ports.Evaluator[V, R], subset ports.Subsetter[V]) (*Conditioned[V, R], error) {
	if eliminator == nil || subset == nil {
		return nil, fmt.Errorf("%w: conditioning requires an eliminator and a subsetter", domain.ErrConfiguration)
	}
	return &Conditioned[V, R]{eliminator: eliminator, inner: inner, subset: subset}, nil
}

// Evaluate eliminates, subsets and delegates.
func (c *Conditioned[V, R]) Evaluate(votes V, nSeats int, cons domain.Constraints) (R, error) {
	var zero R
	survivors, err := c.eliminator.Evaluate(votes, 0, cons)
	if err != nil {
		return zero, fmt.Errorf("condition: %w", err)
	}
	restricted, err := c.subset(votes, survivors)
	if err != nil {
		return zero, fmt.Errorf("condition subset: %w", err)
	}
	return c.inner.Evaluate(restricted, nSeats, cons)
}

// Capabilities reports the inner evaluator's capabilities unchanged.
func (c *Conditioned[V, R]) Capabilities() ports.Capabilities {
	return c.inner.Capabilities()
}

// TieBreaking resolves ties left by a main evaluator: whenever the main
// result contains a tie, the original votes are restricted to exactly the
// tied candidates and re-evaluated with the tiebreaker for exactly the
// contested seat count. Distinct ties are broken independently; a tie the
// tiebreaker itself cannot resolve propagates as an unresolvable-tie error.
//
// R must be either a selection or a distribution; other result shapes have
// no tie representation to break.
type TieBreaking[V, R any] struct {
	main    ports.Evaluator[V, R]
	breaker ports.Selector[V]
	subset  ports.Subsetter[V]
}

// NewTieBreaking wraps main with a tie-breaking selector.
func NewTieBreaking[V, R any](main ports.Evaluator[V, R], breaker ports.Selector[V], subset ports.Subsetter[V]) (*TieBreaking[V, R], error) {
	if breaker == nil || subset == nil {
		return nil, fmt.Errorf("%w: tie breaking requires a tiebreaker and a subsetter", domain.ErrConfiguration)
	}
	var zero R
	switch any(zero).(type) {
	case domain.Selection, domain.Distribution:
	default:
		return nil, fmt.Errorf("%w: tie breaking supports selection and distribution results, got %T", domain.ErrConfiguration, zero)
	}
	return &TieBreaking[V, R]{main: main, breaker: breaker, subset: subset}, nil
}

// Evaluate runs the main evaluator and breaks any ties in its result.
func (t *TieBreaking[V, R]) Evaluate(votes V, nSeats int, cons domain.Constraints) (R, error) {
	var zero R
	result, err := t.main.Evaluate(votes, nSeats, cons)
	if err != nil {
		return zero, err
	}
	switch res := any(result).(type) {
	case domain.Selection:
		broken, err := t.breakSelection(votes, res, cons)
		if err != nil {
			return zero, err
		}
		return any(broken).(R), nil
	case domain.Distribution:
		broken, err := t.breakDistribution(votes, res, cons)
		if err != nil {
			return zero, err
		}
		return any(broken).(R), nil
	default:
		return result, nil
	}
}

func (t *TieBreaking[V, R]) breakSelection(votes V, sel domain.Selection, cons domain.Constraints) (domain.Selection, error) {
	if !sel.HasTie() {
		return sel, nil
	}
	// Count contested seats per distinct tie, then resolve each tie once.
	occurrences := map[string]int{}
	ties := map[string]domain.Tie{}
	for _, choice := range sel {
		if choice.IsTie() {
			key := choice.Tie.Key()
			occurrences[key]++
			ties[key] = choice.Tie
		}
	}
	replacements := map[string][]domain.Candidate{}
	for key, tie := range ties {
		winners, err := t.resolve(votes, tie, occurrences[key], cons)
		if err != nil {
			return nil, err
		}
		replacements[key] = winners
	}
	out := make(domain.Selection, 0, len(sel))
	for _, choice := range sel {
		if !choice.IsTie() {
			out = append(out, choice)
			continue
		}
		key := choice.Tie.Key()
		out = append(out, domain.Elected(replacements[key][0]))
		replacements[key] = replacements[key][1:]
	}
	return out, nil
}

func (t *TieBreaking[V, R]) breakDistribution(votes V, dist domain.Distribution, cons domain.Constraints) (domain.Distribution, error) {
	if !dist.HasTie() {
		return dist, nil
	}
	out := dist.Clone()
	out.Ties = nil
	for _, tied := range dist.Ties {
		winners, err := t.resolve(votes, tied.Tie, tied.Seats, cons)
		if err != nil {
			return domain.Distribution{}, err
		}
		for _, cand := range winners {
			out.AddSeats(cand, 1)
		}
	}
	return out, nil
}

// resolve asks the tiebreaker for exactly nSeats winners among the tied
// candidates.
func (t *TieBreaking[V, R]) resolve(votes V, tie domain.Tie, nSeats int, cons domain.Constraints) ([]domain.Candidate, error) {
	restricted, err := t.subset(votes, tie.Members())
	if err != nil {
		return nil, fmt.Errorf("tie-break subset: %w", err)
	}
	sel, err := t.breaker.Evaluate(restricted, nSeats, cons)
	if err != nil {
		return nil, fmt.Errorf("tie-break: %w", err)
	}
	winners, err := sel.Candidates()
	if err != nil {
		return nil, err
	}
	if len(winners) != nSeats {
		return nil, fmt.Errorf("%w: tiebreaker returned %d winners for %d tied seats", domain.ErrConfiguration, len(winners), nSeats)
	}
	return winners, nil
}

// Capabilities reports the main evaluator's capabilities unchanged.
func (t *TieBreaking[V, R]) Capabilities() ports.Capabilities {
	return t.main.Capabilities()
}

// SubsetSimple restricts a simple tally to the given candidates. It is the
// Subsetter for every evaluator consuming simple tallies.
func SubsetSimple(votes domain.SimpleTally, keep []domain.Candidate) (domain.SimpleTally, error) {
	return votes.Subset(keep), nil
}

// SubsetRanked restricts ranked ballots to the given candidates, dropping
// excluded candidates from every rank and removing ranks left empty.
func SubsetRanked(votes domain.RankedTally, keep []domain.Candidate) (domain.RankedTally, error) {
	allowed := make(map[domain.Candidate]struct{}, len(keep))
	for _, cand := range keep {
		allowed[cand] = struct{}{}
	}
	out := make(domain.RankedTally, 0, len(votes))
	for _, ballot := range votes {
		trimmed := make(domain.Ranking, 0, len(ballot.Ranking))
		for _, rank := range ballot.Ranking {
			var kept domain.Rank
			for _, cand := range rank {
				if _, ok := allowed[cand]; ok {
					kept = append(kept, cand)
				}
			}
			if len(kept) > 0 {
				trimmed = append(trimmed, kept)
			}
		}
		if len(trimmed) > 0 {
			out = append(out, domain.RankedBallot{Ranking: trimmed, Count: ballot.Count})
		}
	}
	return out, nil
}
