package transfer

import (
	"fmt"
	"math/big"

	"github.com/ahrav/go-psephos/internal/domain"
)

// Gregory implements the weighted inclusive Gregory transfer: when a
// candidate is elected, every ballot they hold is reduced by the same exact
// fraction, and ballots reaching a shared rank are split into equal exact
// fractions. The strategy never samples, so results are fully deterministic
// and the allocation's total weight is conserved except for the quota
// amounts deliberately consumed on election.
type Gregory struct{}

// NewGregory returns the weighted inclusive Gregory transferer.
func NewGregory() *Gregory { return &Gregory{} }

// Subtract reduces each elected candidate's holdings proportionally so that
// exactly the given amount of weight is consumed. When the amount meets or
// exceeds the candidate's current total, the candidate retains nothing and
// a later Transfer call moves no surplus for them.
func (g *Gregory) Subtract(a domain.Allocation, elected map[domain.Candidate]*big.Rat) (domain.Allocation, error) {
	out := a.Clone()
	for _, cand := range sortedElected(elected) {
		holdings, ok := out.Held[cand]
		if !ok {
			return domain.Allocation{}, missingCandidateErr(cand)
		}
		amount := elected[cand]
		sum := holdingsTotal(holdings)
		if sum.Cmp(amount) <= 0 {
			// Every held vote is consumed by the seat award.
			out.Held[cand] = map[int]*big.Rat{}
			continue
		}
		factor := new(big.Rat).Sub(sum, amount)
		factor.Quo(factor, sum)
		for _, w := range holdings {
			w.Mul(w, factor)
		}
	}
	return out, nil
}

// Transfer moves every ballot held by the leaving candidates to its next
// eligible preference, splitting shared ranks into equal exact fractions.
func (g *Gregory) Transfer(a domain.Allocation, leaving []domain.Candidate) (domain.Allocation, error) {
	return reassign(a, leaving, gregorySplit)
}

// Stable always reports true: the Gregory strategy has no random element.
func (g *Gregory) Stable() bool { return true }

func gregorySplit(targets []domain.Candidate, weight *big.Rat) (map[domain.Candidate]*big.Rat, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: split with no targets", domain.ErrInputShape)
	}
	share := new(big.Rat).Quo(weight, domain.Rat(int64(len(targets))))
	out := make(map[domain.Candidate]*big.Rat, len(targets))
	for _, cand := range targets {
		out[cand] = new(big.Rat).Set(share)
	}
	return out, nil
}
