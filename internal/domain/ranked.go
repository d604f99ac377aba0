package domain

import (
	"fmt"
	"math/big"
	"sort"
)

// Rank is a single position of a ranked ballot: one candidate, or several
// candidates ranked equally (a tied rank). Members are unordered.
type Rank []Candidate

// Ranking is an ordered ballot, most preferred rank first. No candidate may
// appear twice across the ranks of one ballot.
type Ranking []Rank

// NewRanking builds a ranking with one candidate per rank, the common
// no-ties ballot shape.
func NewRanking(cands ...Candidate) Ranking {
	out := make(Ranking, len(cands))
	for i, cand := range cands {
		out[i] = Rank{cand}
	}
	return out
}

// Candidates returns every candidate appearing anywhere in the ranking.
func (r Ranking) Candidates() []Candidate {
	var out []Candidate
	for _, rank := range r {
		out = append(out, rank...)
	}
	return out
}

// Validate reports a malformed-input error when a candidate appears more
// than once in the ranking.
func (r Ranking) Validate() error {
	seen := map[Candidate]struct{}{}
	for _, rank := range r {
		for _, cand := range rank {
			if _, dup := seen[cand]; dup {
				return fmt.Errorf("%w: candidate %q ranked twice", ErrInputShape, cand)
			}
			seen[cand] = struct{}{}
		}
	}
	return nil
}

// Next returns the candidates ranked immediately after the given candidate,
// skipping any ranks none of whose members are still eligible (continuing
// in the contest). Passing SharedRankPlaceholder starts from the first
// rank. An empty result means the ballot is exhausted from that point.
// Multiple candidates are returned only when the next eligible rank is
// shared.
func (r Ranking) Next(after Candidate, eligible map[Candidate]bool) []Candidate {
	takeNext := after == SharedRankPlaceholder
	for _, rank := range r {
		if takeNext {
			var targets []Candidate
			for _, cand := range rank {
				if eligible[cand] {
					targets = append(targets, cand)
				}
			}
			if len(targets) > 0 {
				return targets
			}
			continue // whole rank ineligible, fall through to the next one
		}
		for _, cand := range rank {
			if cand == after {
				takeNext = true
				break
			}
		}
	}
	return nil
}

// RankedBallot pairs a ranking with the exact number of identical ballots
// cast with it.
type RankedBallot struct {
	Ranking Ranking
	Count   *big.Rat
}

// RankedTally aggregates ranked ballots, the vote shape of transferable
// vote systems.
type RankedTally []RankedBallot

// Total returns the total number of ballots cast.
func (t RankedTally) Total() *big.Rat {
	total := new(big.Rat)
	for _, b := range t {
		total.Add(total, b.Count)
	}
	return total
}

// Candidates returns every candidate ranked on any ballot, ordered by first
// appearance position across ballots so the result is reproducible.
func (t RankedTally) Candidates() []Candidate {
	var out []Candidate
	seen := map[Candidate]struct{}{}
	depth := 0
	for {
		used := false
		for _, ballot := range t {
			if depth >= len(ballot.Ranking) {
				continue
			}
			used = true
			for _, cand := range ballot.Ranking[depth] {
				if _, ok := seen[cand]; !ok {
					seen[cand] = struct{}{}
					out = append(out, cand)
				}
			}
		}
		if !used {
			return out
		}
		depth++
	}
}

// Validate checks every ballot for shape errors.
func (t RankedTally) Validate() error {
	for _, ballot := range t {
		if err := ballot.Ranking.Validate(); err != nil {
			return err
		}
		if ballot.Count == nil || ballot.Count.Sign() < 0 {
			return fmt.Errorf("%w: negative or missing ballot count", ErrInputShape)
		}
	}
	return nil
}

// Allocation is the transferable-vote bookkeeping state: which candidate
// currently holds how much of each ballot. Ballot identity is the index
// into the shared Ballots slice; weights are exact rationals. Ballots with
// no further eligible preference accumulate in the Exhausted bucket and are
// never considered again.
//
// Invariant: until votes are discarded (Hare) or proportionally reduced
// (Gregory) on election, the weights held for a ballot across all holders
// and the exhausted bucket sum to the ballot's original count.
type Allocation struct {
	// Ballots is the underlying tally, shared and never modified.
	Ballots []RankedBallot

	// Held maps each continuing candidate to the ballots they hold and the
	// fraction of each ballot's count currently credited to them.
	Held map[Candidate]map[int]*big.Rat

	// Exhausted holds ballot weights that ran out of eligible preferences.
	Exhausted map[int]*big.Rat
}

// NewAllocation wraps a tally with empty holdings.
func NewAllocation(ballots []RankedBallot) Allocation {
	return Allocation{
		Ballots:   ballots,
		Held:      map[Candidate]map[int]*big.Rat{},
		Exhausted: map[int]*big.Rat{},
	}
}

// Clone deep-copies the holdings; the ballot slice is shared.
func (a Allocation) Clone() Allocation {
	out := Allocation{
		Ballots:   a.Ballots,
		Held:      make(map[Candidate]map[int]*big.Rat, len(a.Held)),
		Exhausted: make(map[int]*big.Rat, len(a.Exhausted)),
	}
	for cand, holdings := range a.Held {
		copied := make(map[int]*big.Rat, len(holdings))
		for idx, w := range holdings {
			copied[idx] = new(big.Rat).Set(w)
		}
		out.Held[cand] = copied
	}
	for idx, w := range a.Exhausted {
		out.Exhausted[idx] = new(big.Rat).Set(w)
	}
	return out
}

// Credit adds weight from ballot idx to cand's holdings.
func (a Allocation) Credit(cand Candidate, idx int, weight *big.Rat) {
	holdings, ok := a.Held[cand]
	if !ok {
		holdings = map[int]*big.Rat{}
		a.Held[cand] = holdings
	}
	cur, ok := holdings[idx]
	if !ok {
		holdings[idx] = new(big.Rat).Set(weight)
		return
	}
	cur.Add(cur, weight)
}

// Exhaust moves weight from ballot idx into the exhausted bucket.
func (a Allocation) Exhaust(idx int, weight *big.Rat) {
	cur, ok := a.Exhausted[idx]
	if !ok {
		a.Exhausted[idx] = new(big.Rat).Set(weight)
		return
	}
	cur.Add(cur, weight)
}

// Totals returns the current vote total held by each continuing candidate.
func (a Allocation) Totals() SimpleTally {
	out := make(SimpleTally, len(a.Held))
	for cand, holdings := range a.Held {
		total := new(big.Rat)
		for _, w := range holdings {
			total.Add(total, w)
		}
		out[cand] = total
	}
	return out
}

// TotalWeight sums every held and exhausted weight. With the Gregory
// strategy this equals the original ballot total until quota subtraction
// discards weight deliberately.
func (a Allocation) TotalWeight() *big.Rat {
	total := new(big.Rat)
	for _, holdings := range a.Held {
		for _, w := range holdings {
			total.Add(total, w)
		}
	}
	for _, w := range a.Exhausted {
		total.Add(total, w)
	}
	return total
}

// Holders returns the continuing candidates in canonical order.
func (a Allocation) Holders() []Candidate {
	out := make([]Candidate, 0, len(a.Held))
	for cand := range a.Held {
		out = append(out, cand)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Equal reports whether two allocations hold identical weights. Used for
// stall detection: a count that changes nothing cannot converge.
func (a Allocation) Equal(other Allocation) bool {
	if len(a.Held) != len(other.Held) || len(a.Exhausted) != len(other.Exhausted) {
		return false
	}
	for cand, holdings := range a.Held {
		otherHoldings, ok := other.Held[cand]
		if !ok || len(holdings) != len(otherHoldings) {
			return false
		}
		for idx, w := range holdings {
			ow, ok := otherHoldings[idx]
			if !ok || w.Cmp(ow) != 0 {
				return false
			}
		}
	}
	for idx, w := range a.Exhausted {
		ow, ok := other.Exhausted[idx]
		if !ok || w.Cmp(ow) != 0 {
			return false
		}
	}
	return true
}
