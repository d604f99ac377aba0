package evaluate

import (
	"fmt"
	"math/big"

	"github.com/ahrav/go-psephos/internal/domain"
	"github.com/ahrav/go-psephos/internal/ports"
)

// AbsoluteThreshold is a seatless eliminator keeping only candidates whose
// vote count reaches a fixed minimum. Typically composed into a Conditioned
// wrapper in front of a proportional distributor.
type AbsoluteThreshold struct {
	min         *big.Rat
	acceptEqual bool
}

var _ ports.Eliminator[domain.SimpleTally] = (*AbsoluteThreshold)(nil)

// NewAbsoluteThreshold returns an eliminator keeping candidates with more
// than min votes, or at least min votes when acceptEqual is set.
func NewAbsoluteThreshold(min *big.Rat, acceptEqual bool) (*AbsoluteThreshold, error) {
	if min == nil || min.Sign() < 0 {
		return nil, fmt.Errorf("%w: absolute threshold requires a non-negative minimum", domain.ErrConfiguration)
	}
	return &AbsoluteThreshold{min: new(big.Rat).Set(min), acceptEqual: acceptEqual}, nil
}

// Evaluate returns the surviving candidates ordered by descending count.
func (t *AbsoluteThreshold) Evaluate(votes domain.SimpleTally, _ int, _ domain.Constraints) ([]domain.Candidate, error) {
	return keepAbove(votes, t.min, t.acceptEqual), nil
}

// Capabilities reports a seatless, constraint-free eliminator.
func (t *AbsoluteThreshold) Capabilities() ports.Capabilities { return ports.Capabilities{} }

// RelativeThreshold is a seatless eliminator keeping only candidates whose
// vote share reaches a fixed fraction of the total votes cast, the common
// "5% hurdle" of proportional systems.
type RelativeThreshold struct {
	ratio       *big.Rat
	acceptEqual bool
}

var _ ports.Eliminator[domain.SimpleTally] = (*RelativeThreshold)(nil)

// NewRelativeThreshold returns an eliminator keeping candidates whose share
// of the total exceeds ratio, or meets it when acceptEqual is set. The
// ratio must lie in [0, 1].
func NewRelativeThreshold(ratio *big.Rat, acceptEqual bool) (*RelativeThreshold, error) {
	if ratio == nil || ratio.Sign() < 0 || ratio.Cmp(domain.Rat(1)) > 0 {
		return nil, fmt.Errorf("%w: relative threshold ratio must lie in [0, 1]", domain.ErrConfiguration)
	}
	return &RelativeThreshold{ratio: new(big.Rat).Set(ratio), acceptEqual: acceptEqual}, nil
}

// Evaluate returns the surviving candidates ordered by descending count.
func (t *RelativeThreshold) Evaluate(votes domain.SimpleTally, _ int, _ domain.Constraints) ([]domain.Candidate, error) {
	limit := domain.RatMul(votes.Total(), t.ratio)
	return keepAbove(votes, limit, t.acceptEqual), nil
}

// Capabilities reports a seatless, constraint-free eliminator.
func (t *RelativeThreshold) Capabilities() ports.Capabilities { return ports.Capabilities{} }

func keepAbove(votes domain.SimpleTally, limit *big.Rat, acceptEqual bool) []domain.Candidate {
	var out []domain.Candidate
	for _, cand := range votes.SortedCandidates() {
		cmp := votes[cand].Cmp(limit)
		if cmp > 0 || (acceptEqual && cmp == 0) {
			out = append(out, cand)
		}
	}
	return out
}
