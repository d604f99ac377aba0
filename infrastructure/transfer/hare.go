package transfer

import (
	"fmt"
	"math/big"
	"math/rand"
	"sort"
	"time"

	"github.com/ahrav/go-psephos/internal/domain"
)

// Hare implements the historical whole-ballot transfer: when a candidate is
// elected, the quota's worth of ballots is drawn at random from their pile
// and discarded, and the rest move on whole. Ballots reaching a shared rank
// are divided into equal whole parts with the remainder assigned to random
// targets.
//
// Each instance owns its random source. A seeded instance reproduces its
// draws exactly and reports itself stable; an unseeded one does not.
type Hare struct {
	rng    *rand.Rand
	seeded bool
}

// NewHare returns a Hare transferer drawing from the given seed. Counts run
// with equal inputs and an equal seed produce equal results.
func NewHare(seed int64) *Hare {
	return &Hare{rng: rand.New(rand.NewSource(seed)), seeded: true}
}

// NewUnseededHare returns a Hare transferer drawing from the current time.
// Its results vary between runs; use NewHare where reproducibility matters.
func NewUnseededHare() *Hare {
	return &Hare{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Stable reports whether the instance was seeded.
func (h *Hare) Stable() bool { return h.seeded }

// Subtract removes the given amounts by discarding randomly drawn ballot
// units from each elected candidate's pile. Amounts must be whole numbers;
// the Hare strategy has no way to consume a fraction of a vote, so it
// rejects fractional quotas.
func (h *Hare) Subtract(a domain.Allocation, elected map[domain.Candidate]*big.Rat) (domain.Allocation, error) {
	out := a.Clone()
	for _, cand := range sortedElected(elected) {
		holdings, ok := out.Held[cand]
		if !ok {
			return domain.Allocation{}, missingCandidateErr(cand)
		}
		amount := elected[cand]
		if !domain.RatIsInt(amount) {
			return domain.Allocation{}, fmt.Errorf(
				"%w: whole-ballot transfer cannot consume fractional amount %s; use a rounded quota",
				domain.ErrConfiguration, amount.RatString())
		}
		sum := holdingsTotal(holdings)
		if sum.Cmp(amount) <= 0 {
			out.Held[cand] = map[int]*big.Rat{}
			continue
		}
		if err := h.discard(holdings, amount); err != nil {
			return domain.Allocation{}, err
		}
	}
	return out, nil
}

// discard removes amount worth of weight from holdings by weighted random
// draws. Fractional weights (from shared-rank splits) are scaled to a
// common integer unit first so every draw removes an equal-sized piece.
func (h *Hare) discard(holdings map[int]*big.Rat, amount *big.Rat) error {
	indices := make([]int, 0, len(holdings))
	for idx := range holdings {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	scale := big.NewInt(1)
	for _, idx := range indices {
		scale.Mul(scale, new(big.Int).Div(holdings[idx].Denom(), new(big.Int).GCD(nil, nil, scale, holdings[idx].Denom())))
	}

	units := make(map[int]*big.Int, len(holdings))
	total := new(big.Int)
	for _, idx := range indices {
		scaled := new(big.Rat).Mul(holdings[idx], new(big.Rat).SetInt(scale))
		units[idx] = scaled.Num()
		total.Add(total, scaled.Num())
	}
	remove := new(big.Int).Mul(amount.Num(), scale)

	one := big.NewInt(1)
	for remove.Sign() > 0 {
		pick := new(big.Int).Rand(h.rng, total)
		for _, idx := range indices {
			u := units[idx]
			if pick.Cmp(u) < 0 {
				u.Sub(u, one)
				break
			}
			pick.Sub(pick, u)
		}
		total.Sub(total, one)
		remove.Sub(remove, one)
	}

	for _, idx := range indices {
		w := new(big.Rat).SetFrac(units[idx], scale)
		if w.Sign() == 0 {
			delete(holdings, idx)
			continue
		}
		holdings[idx] = w
	}
	return nil
}

// Transfer moves every ballot held by the leaving candidates to its next
// eligible preference, splitting shared ranks into equal whole parts with
// randomly assigned remainders.
func (h *Hare) Transfer(a domain.Allocation, leaving []domain.Candidate) (domain.Allocation, error) {
	return reassign(a, leaving, h.split)
}

// split divides weight into equal whole units per target, assigning the
// indivisible remainder one unit each to randomly chosen distinct targets.
func (h *Hare) split(targets []domain.Candidate, weight *big.Rat) (map[domain.Candidate]*big.Rat, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: split with no targets", domain.ErrInputShape)
	}
	n := big.NewInt(int64(len(targets)))
	base, rem := new(big.Int).QuoRem(weight.Num(), n, new(big.Int))

	order := h.rng.Perm(len(targets))
	out := make(map[domain.Candidate]*big.Rat, len(targets))
	extra := rem.Int64()
	for pos, i := range order {
		num := new(big.Int).Set(base)
		if int64(pos) < extra {
			num.Add(num, big.NewInt(1))
		}
		out[targets[i]] = new(big.Rat).SetFrac(num, weight.Denom())
	}
	return out, nil
}
