package evaluate

import (
	"fmt"
	"math/big"
	"math/rand"
	"time"

	"github.com/ahrav/go-psephos/internal/domain"
	"github.com/ahrav/go-psephos/internal/ports"
)

// PrioritySelector selects candidates by a fixed external ordering,
// ignoring vote counts entirely. It is the deterministic tie-breaker of
// choice: composed under a TieBreaking wrapper it resolves ties by, for
// example, candidate age or ballot-paper order.
type PrioritySelector struct {
	priority []domain.Candidate
	rank     map[domain.Candidate]int
}

var _ ports.Selector[domain.SimpleTally] = (*PrioritySelector)(nil)

// NewPrioritySelector returns a selector picking candidates in the given
// priority order.
func NewPrioritySelector(priority []domain.Candidate) (*PrioritySelector, error) {
	if len(priority) == 0 {
		return nil, fmt.Errorf("%w: priority selector requires a non-empty ordering", domain.ErrConfiguration)
	}
	rank := make(map[domain.Candidate]int, len(priority))
	for i, cand := range priority {
		if _, dup := rank[cand]; dup {
			return nil, fmt.Errorf("%w: candidate %q listed twice in priority ordering", domain.ErrConfiguration, cand)
		}
		rank[cand] = i
	}
	return &PrioritySelector{priority: append([]domain.Candidate(nil), priority...), rank: rank}, nil
}

// Evaluate returns the first nSeats candidates of the priority ordering
// that appear in the votes. Candidates missing from the ordering are a
// configuration error surfaced at evaluation time, since the candidate set
// is not known at construction.
func (s *PrioritySelector) Evaluate(votes domain.SimpleTally, nSeats int, _ domain.Constraints) (domain.Selection, error) {
	for cand := range votes {
		if _, ok := s.rank[cand]; !ok {
			return nil, fmt.Errorf("%w: candidate %q absent from priority ordering", domain.ErrConfiguration, cand)
		}
	}
	out := make(domain.Selection, 0, nSeats)
	for _, cand := range s.priority {
		if len(out) == nSeats {
			break
		}
		if _, ok := votes[cand]; ok {
			out = append(out, domain.Elected(cand))
		}
	}
	return out, nil
}

// Capabilities reports seat awareness and no constraint handling.
func (s *PrioritySelector) Capabilities() ports.Capabilities {
	return ports.Capabilities{Seats: true}
}

// Sortitor selects candidates by weighted lot: each draw picks a candidate
// with probability proportional to their remaining vote count, without
// replacement. Each instance owns its random source; only seeded instances
// are reproducible.
type Sortitor struct {
	rng    *rand.Rand
	seeded bool
}

var _ ports.Selector[domain.SimpleTally] = (*Sortitor)(nil)

// NewSortitor returns a sortition selector drawing from the given seed.
func NewSortitor(seed int64) *Sortitor {
	return &Sortitor{rng: rand.New(rand.NewSource(seed)), seeded: true}
}

// NewUnseededSortitor returns a sortition selector drawing from the current
// time. Results vary between runs.
func NewUnseededSortitor() *Sortitor {
	return &Sortitor{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Evaluate draws nSeats distinct candidates by weighted lot.
func (s *Sortitor) Evaluate(votes domain.SimpleTally, nSeats int, _ domain.Constraints) (domain.Selection, error) {
	remaining := votes.Clone()
	out := make(domain.Selection, 0, nSeats)
	for len(out) < nSeats && len(remaining) > 0 {
		cand, err := s.draw(remaining)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Elected(cand))
		delete(remaining, cand)
	}
	return out, nil
}

// draw picks one candidate with probability proportional to vote weight.
// Weights are scaled to a common integer unit so the draw is exact.
func (s *Sortitor) draw(votes domain.SimpleTally) (domain.Candidate, error) {
	cands := votes.SortedCandidates()
	scale := big.NewInt(1)
	for _, cand := range cands {
		den := votes[cand].Denom()
		gcd := new(big.Int).GCD(nil, nil, scale, den)
		scale.Mul(scale, new(big.Int).Div(den, gcd))
	}
	total := new(big.Int)
	units := make([]*big.Int, len(cands))
	for i, cand := range cands {
		scaled := new(big.Rat).Mul(votes[cand], new(big.Rat).SetInt(scale))
		units[i] = scaled.Num()
		total.Add(total, scaled.Num())
	}
	if total.Sign() <= 0 {
		return "", fmt.Errorf("%w: sortition over zero total votes", domain.ErrInputShape)
	}
	pick := new(big.Int).Rand(s.rng, total)
	for i, u := range units {
		if pick.Cmp(u) < 0 {
			return cands[i], nil
		}
		pick.Sub(pick, u)
	}
	return cands[len(cands)-1], nil
}

// Capabilities reports seat awareness and no constraint handling.
func (s *Sortitor) Capabilities() ports.Capabilities {
	return ports.Capabilities{Seats: true}
}
