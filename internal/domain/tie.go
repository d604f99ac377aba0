package domain

import (
	"fmt"
	"math/big"
	"sort"
	"strings"
)

// Tie is an immutable, unordered group of candidates tied for one or more
// seats. It is produced by evaluators that cannot resolve all ties, for
// example plurality selection when several candidates share the cutoff vote
// count. A tie appears in a result exactly as many times as there are seats
// contested among its members and is never empty.
//
// Members are kept in a canonical sorted order so that two ties over the
// same candidates compare equal and key identically, but the order carries
// no meaning.
type Tie struct {
	members []Candidate
}

// NewTie builds a tie over the given candidates, deduplicating and
// canonicalizing the member order.
func NewTie(members ...Candidate) Tie {
	seen := make(map[Candidate]struct{}, len(members))
	out := make([]Candidate, 0, len(members))
	for _, m := range members {
		if _, ok := seen[m]; !ok {
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return Tie{members: out}
}

// Members returns the tied candidates in canonical order. The returned
// slice is a copy.
func (t Tie) Members() []Candidate {
	out := make([]Candidate, len(t.members))
	copy(out, t.members)
	return out
}

// Size returns the number of tied candidates.
func (t Tie) Size() int { return len(t.members) }

// IsZero reports whether the tie has no members (the zero value).
func (t Tie) IsZero() bool { return len(t.members) == 0 }

// Contains reports whether cand is among the tied candidates.
func (t Tie) Contains(cand Candidate) bool {
	for _, m := range t.members {
		if m == cand {
			return true
		}
	}
	return false
}

// Equal reports whether two ties cover the same candidates.
func (t Tie) Equal(other Tie) bool { return t.Key() == other.Key() }

// Key returns a canonical string identity for the tie, usable as a map key.
func (t Tie) Key() string {
	parts := make([]string, len(t.members))
	for i, m := range t.members {
		parts[i] = string(m)
	}
	return strings.Join(parts, "\x1f")
}

// String implements fmt.Stringer.
func (t Tie) String() string {
	parts := make([]string, len(t.members))
	for i, m := range t.members {
		parts[i] = string(m)
	}
	return "Tie{" + strings.Join(parts, ", ") + "}"
}

// ReconcileTies detects whether fractional occurrences of tie members
// across a selection sum to a whole seat for any member, which would make
// the tie resolvable by merging. Resolution itself has no agreed-upon fair
// policy, so when the condition is detected an unresolvable-tie error is
// returned; otherwise the selection is returned unchanged.
func ReconcileTies(elected Selection) (Selection, error) {
	places := map[Candidate]*big.Rat{}
	for _, choice := range elected {
		if !choice.IsTie() {
			continue
		}
		share := RatFrac(1, int64(choice.Tie.Size()))
		for _, cand := range choice.Tie.Members() {
			cur, ok := places[cand]
			if !ok {
				cur = new(big.Rat)
				places[cand] = cur
			}
			cur.Add(cur, share)
		}
	}
	one := Rat(1)
	for cand, share := range places {
		if share.Cmp(one) >= 0 {
			return nil, fmt.Errorf("tie reconciliation for %q: %w", cand, ErrUnresolvableTie)
		}
	}
	return elected, nil
}

// BreakTiesByList resolves every tie in a selection using an external
// priority ordering: each tie occurrence is replaced by the next unused
// member of that tie in priority order, so repeated occurrences of the
// same tie never reuse an already-placed member.
// Returns a configuration error if a tie member is missing from the
// priority list.
func BreakTiesByList(elected Selection, priority []Candidate) ([]Candidate, error) {
	rank := make(map[Candidate]int, len(priority))
	for i, cand := range priority {
		rank[cand] = i
	}
	pending := map[string][]Candidate{}
	broken := make([]Candidate, 0, len(elected))
	for _, choice := range elected {
		if !choice.IsTie() {
			broken = append(broken, choice.Candidate)
			continue
		}
		key := choice.Tie.Key()
		queue, ok := pending[key]
		if !ok {
			queue = choice.Tie.Members()
			for _, cand := range queue {
				if _, known := rank[cand]; !known {
					return nil, fmt.Errorf("%w: tie member %q absent from priority list", ErrConfiguration, cand)
				}
			}
			sort.Slice(queue, func(i, j int) bool { return rank[queue[i]] < rank[queue[j]] })
		}
		broken = append(broken, queue[0])
		pending[key] = queue[1:]
	}
	return broken, nil
}
