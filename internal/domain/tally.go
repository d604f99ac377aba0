package domain

import (
	"math/big"
	"sort"
)

// SimpleTally maps candidates to their exact vote counts. It is the vote
// shape consumed by plurality, threshold and proportional evaluators.
type SimpleTally map[Candidate]*big.Rat

// NewSimpleTally builds a tally from integer counts. Convenience for tests
// and callers with whole-number vote data.
func NewSimpleTally(counts map[Candidate]int64) SimpleTally {
	out := make(SimpleTally, len(counts))
	for cand, n := range counts {
		out[cand] = Rat(n)
	}
	return out
}

// Total returns the sum of all vote counts in the tally.
func (t SimpleTally) Total() *big.Rat {
	total := new(big.Rat)
	for _, n := range t {
		total.Add(total, n)
	}
	return total
}

// Subset returns a copy of the tally restricted to the given candidates.
func (t SimpleTally) Subset(keep []Candidate) SimpleTally {
	allowed := make(map[Candidate]struct{}, len(keep))
	for _, cand := range keep {
		allowed[cand] = struct{}{}
	}
	out := make(SimpleTally, len(keep))
	for cand, n := range t {
		if _, ok := allowed[cand]; ok {
			out[cand] = n
		}
	}
	return out
}

// Clone returns a deep copy of the tally.
func (t SimpleTally) Clone() SimpleTally {
	out := make(SimpleTally, len(t))
	for cand, n := range t {
		out[cand] = new(big.Rat).Set(n)
	}
	return out
}

// SortedCandidates returns the tally's candidates ordered by descending
// vote count; candidates with equal counts are ordered canonically so the
// result never depends on map iteration order.
func (t SimpleTally) SortedCandidates() []Candidate {
	cands := make([]Candidate, 0, len(t))
	for cand := range t {
		cands = append(cands, cand)
	}
	sort.Slice(cands, func(i, j int) bool {
		cmp := t[cands[i]].Cmp(t[cands[j]])
		if cmp != 0 {
			return cmp > 0
		}
		return cands[i] < cands[j]
	})
	return cands
}

// ConstituencyTally nests simple tallies by constituency, the vote shape of
// constituency-level and biproportional evaluators.
type ConstituencyTally map[Constituency]SimpleTally

// Totals aggregates the per-constituency tallies into a single nationwide
// tally keyed by candidate.
func (t ConstituencyTally) Totals() SimpleTally {
	out := SimpleTally{}
	for _, district := range t {
		for cand, n := range district {
			cur, ok := out[cand]
			if !ok {
				cur = new(big.Rat)
				out[cand] = cur
			}
			cur.Add(cur, n)
		}
	}
	return out
}

// DistrictTotals returns the total votes cast in each constituency, keyed
// by the constituency itself (constituencies act as candidates for seat
// apportionment).
func (t ConstituencyTally) DistrictTotals() SimpleTally {
	out := make(SimpleTally, len(t))
	for district, votes := range t {
		out[district] = votes.Total()
	}
	return out
}

// SortedDistricts returns the constituencies in canonical order.
func (t ConstituencyTally) SortedDistricts() []Constituency {
	out := make([]Constituency, 0, len(t))
	for d := range t {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TopN selects the n candidates with the highest vote counts, the plurality
// selection primitive nearly every evaluator builds on. When the candidates
// at the seat boundary share a vote count, the untied leaders are emitted
// singly followed by one tie over all boundary-sharing candidates, repeated
// once per tied seat. If n is at least the number of candidates, all of
// them are returned without padding.
//
// The result depends only on vote counts: members of a tie are treated as
// an unordered set, never ordered by map iteration.
func TopN(votes SimpleTally, n int) Selection {
	if n <= 0 || len(votes) == 0 {
		return Selection{}
	}
	sorted := votes.SortedCandidates()
	if len(sorted) <= n {
		out := make(Selection, len(sorted))
		for i, cand := range sorted {
			out[i] = Elected(cand)
		}
		return out
	}
	boundary := votes[sorted[n-1]]
	if votes[sorted[n]].Cmp(boundary) != 0 {
		out := make(Selection, n)
		for i, cand := range sorted[:n] {
			out[i] = Elected(cand)
		}
		return out
	}
	// Tie across the boundary: everyone sharing the boundary count contests
	// the remaining seats.
	var tied []Candidate
	nUntied := 0
	for i, cand := range sorted {
		if votes[cand].Cmp(boundary) == 0 {
			if len(tied) == 0 {
				nUntied = i
			}
			tied = append(tied, cand)
		}
	}
	out := make(Selection, 0, n)
	for _, cand := range sorted[:nUntied] {
		out = append(out, Elected(cand))
	}
	tie := NewTie(tied...)
	for i := nUntied; i < n; i++ {
		out = append(out, TiedChoice(tie))
	}
	return out
}
