// Package transfer implements the vote-transfer strategies of transferable
// vote systems: how ballot weight leaves an elected or eliminated candidate
// and reaches the next eligible preference.
//
// Two strategies are provided. Gregory (weighted inclusive fractional)
// reduces every ballot proportionally and splits shared ranks into exact
// fractions; it is fully deterministic. Hare discards and splits whole
// ballots by weighted random sampling; it is reproducible only when seeded.
package transfer

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/ahrav/go-psephos/internal/domain"
	"github.com/ahrav/go-psephos/internal/ports"
)

// splitFunc distributes a ballot's weight among the candidates of a shared
// rank. Implementations return the weight credited per target; the parts
// must sum to the input weight.
type splitFunc func(targets []domain.Candidate, weight *big.Rat) (map[domain.Candidate]*big.Rat, error)

// reassign moves every ballot held by the leaving candidates to its next
// eligible preference among the continuing candidates, using split to
// resolve shared ranks. Ballots without a further eligible preference move
// to the exhausted bucket. Iteration follows canonical candidate and ballot
// order so the only nondeterminism is whatever split itself introduces.
func reassign(a domain.Allocation, leaving []domain.Candidate, split splitFunc) (domain.Allocation, error) {
	out := a.Clone()

	leavingSet := make(map[domain.Candidate]bool, len(leaving))
	for _, cand := range leaving {
		leavingSet[cand] = true
	}
	continuing := map[domain.Candidate]bool{}
	for cand := range out.Held {
		if !leavingSet[cand] {
			continuing[cand] = true
		}
	}

	ordered := append([]domain.Candidate(nil), leaving...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	for _, cand := range ordered {
		holdings, ok := out.Held[cand]
		if !ok {
			continue
		}
		indices := make([]int, 0, len(holdings))
		for idx := range holdings {
			indices = append(indices, idx)
		}
		sort.Ints(indices)
		for _, idx := range indices {
			weight := holdings[idx]
			if weight.Sign() == 0 {
				continue
			}
			targets := out.Ballots[idx].Ranking.Next(cand, continuing)
			switch len(targets) {
			case 0:
				out.Exhaust(idx, weight)
			case 1:
				out.Credit(targets[0], idx, weight)
			default:
				parts, err := split(targets, weight)
				if err != nil {
					return domain.Allocation{}, err
				}
				for target, part := range parts {
					if part.Sign() > 0 {
						out.Credit(target, idx, part)
					}
				}
			}
		}
		delete(out.Held, cand)
	}
	return out, nil
}

// sortedElected returns the elected candidates in canonical order.
func sortedElected(elected map[domain.Candidate]*big.Rat) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(elected))
	for cand := range elected {
		out = append(out, cand)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// holdingsTotal sums the weight a candidate currently holds.
func holdingsTotal(holdings map[int]*big.Rat) *big.Rat {
	total := new(big.Rat)
	for _, w := range holdings {
		total.Add(total, w)
	}
	return total
}

// missingCandidateErr reports a subtraction target that holds no votes.
func missingCandidateErr(cand domain.Candidate) error {
	return fmt.Errorf("%w: cannot subtract from candidate %q holding no votes", domain.ErrInputShape, cand)
}

var (
	_ ports.VoteTransferer = (*Gregory)(nil)
	_ ports.VoteTransferer = (*Hare)(nil)
)
