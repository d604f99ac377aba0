package evaluate

import (
	"fmt"

	"github.com/ahrav/go-psephos/internal/domain"
	"github.com/ahrav/go-psephos/internal/ports"
)

// Multistage runs a sequence of distribution rounds over the same votes,
// threading the seats awarded by earlier rounds into later rounds as
// previous gains and accumulating the results additively. The canonical
// use is a constituency round followed by a compensatory national round.
type Multistage[V any] struct {
	rounds []ports.Distributor[V]
}

// NewMultistage assembles a multi-round distributor. Every round after the
// first must honor previous gains, otherwise the rounds cannot compensate
// and the composition is rejected.
func NewMultistage[V any](rounds ...ports.Distributor[V]) (*Multistage[V], error) {
	if len(rounds) == 0 {
		return nil, fmt.Errorf("%w: multistage distribution requires at least one round", domain.ErrConfiguration)
	}
	for i, round := range rounds[1:] {
		if !round.Capabilities().Gains {
			return nil, fmt.Errorf("%w: multistage round %d ignores previous gains", domain.ErrConfiguration, i+2)
		}
	}
	return &Multistage[V]{rounds: rounds}, nil
}

// Evaluate runs every round in order. A round leaving ties unresolved
// cannot feed the next round's gains, so ties propagate as errors.
func (m *Multistage[V]) Evaluate(votes V, nSeats int, cons domain.Constraints) (domain.Distribution, error) {
	gains := mergeSeatMaps(cons.PrevGains, nil)
	total := domain.NewDistribution()
	for i, round := range m.rounds {
		result, err := round.Evaluate(votes, nSeats, cons.WithGains(gains))
		if err != nil {
			return domain.Distribution{}, fmt.Errorf("round %d: %w", i+1, err)
		}
		if result.HasTie() {
			return domain.Distribution{}, &domain.TieError{Stage: fmt.Sprintf("multistage round %d", i+1), Tie: result.Ties[0].Tie}
		}
		total.Add(result)
		gains = mergeSeatMaps(gains, result.Seats)
	}
	return total, nil
}

// Capabilities reports full seat and constraint awareness.
func (m *Multistage[V]) Capabilities() ports.Capabilities {
	return ports.Capabilities{Seats: true, Gains: true}
}

// MultistageByConstituency is the constituency-nested variant of Multistage:
// each round produces per-constituency distributions, and both the flat
// per-party gains and the per-constituency gains thread into later rounds.
type MultistageByConstituency[V any] struct {
	rounds []ports.Evaluator[V, map[domain.Constituency]domain.Distribution]
}

// NewMultistageByConstituency assembles a constituency-nested multi-round
// distributor.
func NewMultistageByConstituency[V any](rounds ...ports.Evaluator[V, map[domain.Constituency]domain.Distribution]) (*MultistageByConstituency[V], error) {
	if len(rounds) == 0 {
		return nil, fmt.Errorf("%w: multistage distribution requires at least one round", domain.ErrConfiguration)
	}
	return &MultistageByConstituency[V]{rounds: rounds}, nil
}

// Evaluate runs every round in order, accumulating nested results.
func (m *MultistageByConstituency[V]) Evaluate(votes V, nSeats int, cons domain.Constraints) (map[domain.Constituency]domain.Distribution, error) {
	flat := mergeSeatMaps(cons.PrevGains, nil)
	perDistrict := map[domain.Constituency]map[domain.Candidate]int{}
	for d, district := range cons.Districts {
		perDistrict[d] = mergeSeatMaps(district.PrevGains, nil)
	}

	out := map[domain.Constituency]domain.Distribution{}
	for i, round := range m.rounds {
		districts := make(map[domain.Constituency]domain.Constraints, len(perDistrict))
		for d, gains := range perDistrict {
			districts[d] = cons.District(d).WithGains(gains)
		}
		roundCons := domain.Constraints{PrevGains: flat, MaxSeats: cons.MaxSeats, Districts: districts}

		result, err := round.Evaluate(votes, nSeats, roundCons)
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", i+1, err)
		}
		for d, dist := range result {
			if dist.HasTie() {
				return nil, &domain.TieError{Stage: fmt.Sprintf("multistage round %d, constituency %q", i+1, d), Tie: dist.Ties[0].Tie}
			}
			accumulated, ok := out[d]
			if !ok {
				accumulated = domain.NewDistribution()
			}
			accumulated.Add(dist)
			out[d] = accumulated
			flat = mergeSeatMaps(flat, dist.Seats)
			perDistrict[d] = mergeSeatMaps(perDistrict[d], dist.Seats)
		}
	}
	return out, nil
}

// Capabilities reports full seat and constraint awareness.
func (m *MultistageByConstituency[V]) Capabilities() ports.Capabilities {
	return ports.Capabilities{Seats: true, Gains: true}
}

// AdjustedSeatCount enlarges the seat count before delegating: the
// calculator decides how many extra seats the house needs (typically to
// absorb overhang from a prior round) and the inner distributor runs at the
// enlarged size.
type AdjustedSeatCount[V any] struct {
	calc  ports.SeatCalculator[V]
	inner ports.Distributor[V]
}

// NewAdjustedSeatCount wraps a distributor behind a seat-count calculator.
func NewAdjustedSeatCount[V any](calc ports.SeatCalculator[V], inner ports.Distributor[V]) (*AdjustedSeatCount[V], error) {
	if calc == nil {
		return nil, fmt.Errorf("%w: adjusted seat count requires a calculator", domain.ErrConfiguration)
	}
	if err := requireSeats(inner.Capabilities(), "adjusted seat count"); err != nil {
		return nil, err
	}
	return &AdjustedSeatCount[V]{calc: calc, inner: inner}, nil
}

// Evaluate computes the adjustment and delegates at the enlarged size.
func (a *AdjustedSeatCount[V]) Evaluate(votes V, nSeats int, cons domain.Constraints) (domain.Distribution, error) {
	adj, err := a.calc.Calculate(votes, nSeats, cons)
	if err != nil {
		return domain.Distribution{}, fmt.Errorf("seat adjustment: %w", err)
	}
	return a.inner.Evaluate(votes, nSeats+adj, cons)
}

// Capabilities reports full seat and constraint awareness.
func (a *AdjustedSeatCount[V]) Capabilities() ports.Capabilities {
	return ports.Capabilities{Seats: true, Gains: true}
}

// AllowOverhang computes the minimal house enlargement that preserves every
// overhang seat: parties keep all seats gained in the prior round even
// where those exceed their proportional entitlement, and the house grows by
// exactly the sum of the excesses.
type AllowOverhang struct {
	eval ports.Distributor[domain.SimpleTally]
}

var _ ports.SeatCalculator[domain.SimpleTally] = (*AllowOverhang)(nil)

// NewAllowOverhang wraps the proportional distributor whose entitlements
// define the overhang.
func NewAllowOverhang(eval ports.Distributor[domain.SimpleTally]) (*AllowOverhang, error) {
	if eval == nil {
		return nil, fmt.Errorf("%w: overhang calculation requires a proportional distributor", domain.ErrConfiguration)
	}
	return &AllowOverhang{eval: eval}, nil
}

// Calculate returns the total excess of previous gains over proportional
// entitlements at the unadjusted house size.
func (a *AllowOverhang) Calculate(votes domain.SimpleTally, nSeats int, cons domain.Constraints) (int, error) {
	entitled, err := a.eval.Evaluate(votes, nSeats, domain.Constraints{})
	if err != nil {
		return 0, err
	}
	if entitled.HasTie() {
		return 0, &domain.TieError{Stage: "overhang entitlement", Tie: entitled.Ties[0].Tie}
	}
	adj := 0
	for cand, gained := range cons.PrevGains {
		if excess := gained - entitled.Seats[cand]; excess > 0 {
			adj += excess
		}
	}
	return adj, nil
}

// DefaultMaxLevelAdjust bounds the overhang-leveling search. Real systems
// level within a handful of seats; hitting the bound means the inputs are
// pathological.
const DefaultMaxLevelAdjust = 10000

// LevelOverhang grows the house until the proportional distribution at the
// enlarged size gives every party at least its previous gains, so overhang
// seats are fully compensated and overall proportionality is restored.
type LevelOverhang struct {
	eval      ports.Distributor[domain.SimpleTally]
	maxAdjust int
}

var _ ports.SeatCalculator[domain.SimpleTally] = (*LevelOverhang)(nil)

// NewLevelOverhang wraps the proportional distributor defining the target
// shares.
func NewLevelOverhang(eval ports.Distributor[domain.SimpleTally]) (*LevelOverhang, error) {
	if eval == nil {
		return nil, fmt.Errorf("%w: overhang leveling requires a proportional distributor", domain.ErrConfiguration)
	}
	return &LevelOverhang{eval: eval, maxAdjust: DefaultMaxLevelAdjust}, nil
}

// Calculate returns the smallest adjustment such that evaluating at
// nSeats+adjustment awards every party at least its previous gains. The
// adjustment sequence is monotonically increasing, so the first size that
// satisfies every party is the fixed point.
func (l *LevelOverhang) Calculate(votes domain.SimpleTally, nSeats int, cons domain.Constraints) (int, error) {
	for adj := 0; adj <= l.maxAdjust; adj++ {
		entitled, err := l.eval.Evaluate(votes, nSeats+adj, domain.Constraints{})
		if err != nil {
			return 0, err
		}
		if entitled.HasTie() {
			// A boundary tie at this size cannot certify the condition;
			// the next size breaks it.
			continue
		}
		if coversGains(entitled.Seats, cons.PrevGains) {
			return adj, nil
		}
	}
	return 0, fmt.Errorf("%w: overhang leveling exceeded %d extra seats", domain.ErrNotConverging, l.maxAdjust)
}

// LevelOverhangByConstituency levels overhang independently per
// constituency against preset district sizes, then reports the summed
// national adjustment.
type LevelOverhangByConstituency struct {
	eval          ports.Distributor[domain.SimpleTally]
	districtSeats map[domain.Constituency]int
	maxAdjust     int
}

var _ ports.SeatCalculator[domain.ConstituencyTally] = (*LevelOverhangByConstituency)(nil)

// NewLevelOverhangByConstituency wraps the proportional distributor and the
// per-constituency house sizes.
func NewLevelOverhangByConstituency(eval ports.Distributor[domain.SimpleTally], districtSeats map[domain.Constituency]int) (*LevelOverhangByConstituency, error) {
	if eval == nil {
		return nil, fmt.Errorf("%w: overhang leveling requires a proportional distributor", domain.ErrConfiguration)
	}
	if len(districtSeats) == 0 {
		return nil, fmt.Errorf("%w: per-constituency leveling requires district seat counts", domain.ErrConfiguration)
	}
	return &LevelOverhangByConstituency{eval: eval, districtSeats: districtSeats, maxAdjust: DefaultMaxLevelAdjust}, nil
}

// Calculate levels each constituency and sums the adjustments.
func (l *LevelOverhangByConstituency) Calculate(votes domain.ConstituencyTally, _ int, cons domain.Constraints) (int, error) {
	level := &LevelOverhang{eval: l.eval, maxAdjust: l.maxAdjust}
	total := 0
	for _, d := range votes.SortedDistricts() {
		adj, err := level.Calculate(votes[d], l.districtSeats[d], cons.District(d))
		if err != nil {
			return 0, fmt.Errorf("constituency %q: %w", d, err)
		}
		total += adj
	}
	return total, nil
}

// coversGains reports whether every previously gained seat count is covered
// by the entitlement map.
func coversGains(entitled, gains map[domain.Candidate]int) bool {
	for cand, gained := range gains {
		if entitled[cand] < gained {
			return false
		}
	}
	return true
}

// mergeSeatMaps returns the entry-wise sum of two seat maps as a fresh map.
func mergeSeatMaps(a, b map[domain.Candidate]int) map[domain.Candidate]int {
	out := make(map[domain.Candidate]int, len(a)+len(b))
	for cand, n := range a {
		out[cand] = n
	}
	for cand, n := range b {
		out[cand] += n
	}
	return out
}
