package evaluate

import (
	"fmt"
	"math/big"

	"github.com/ahrav/go-psephos/internal/domain"
	"github.com/ahrav/go-psephos/internal/ports"
)

// Biproportional allocates seats in a district × party grid so that every
// district's seats match its target and every party's national total
// matches a single highest-averages allocation over aggregated party votes.
// Both dimensions are reconciled by the tie-and-transfer algorithm: seats
// move along alternating paths of exactly-tied cells, and when no path
// exists the district/party divisor coefficients are scaled minimally to
// create a new tie.
//
// The signpost constant defines the rounding rule of the divisor method:
// a cell's quotient q is rounded to seats(q) = floor(q + signpost), so 0
// gives D'Hondt rounding and 1/2 gives Sainte-Laguë rounding. Signposts are
// only established for those two divisors; any other divisor requires the
// caller to supply one explicitly.
//
// All arithmetic is exact rational. Correctness depends on exact tie
// detection, so no floating point appears anywhere in the solver.
type Biproportional struct {
	divisor       ports.DivisorFunc
	signpost      *big.Rat
	presetSeats   map[domain.Constituency]int
	maxIterations int
}

var _ ports.Evaluator[domain.ConstituencyTally, map[domain.Constituency]domain.Distribution] = (*Biproportional)(nil)

// DefaultMaxTransferIterations bounds the tie-and-transfer loop. The
// algorithm's potential argument guarantees termination well below this.
const DefaultMaxTransferIterations = 100000

// BiproportionalOption configures the solver.
type BiproportionalOption func(*Biproportional)

// WithDistrictSeats fixes the per-district seat targets externally instead
// of apportioning them from district vote totals. The targets must sum to
// the evaluation's seat count.
func WithDistrictSeats(seats map[domain.Constituency]int) BiproportionalOption {
	return func(b *Biproportional) { b.presetSeats = seats }
}

// WithMaxTransferIterations overrides the iteration bound.
func WithMaxTransferIterations(n int) BiproportionalOption {
	return func(b *Biproportional) { b.maxIterations = n }
}

// NewBiproportional builds the solver for a divisor function and its
// signpost constant. The signpost must lie in [0, 1).
func NewBiproportional(divisor ports.DivisorFunc, signpost *big.Rat, opts ...BiproportionalOption) (*Biproportional, error) {
	if divisor == nil {
		return nil, fmt.Errorf("%w: biproportional apportionment requires a divisor function", domain.ErrConfiguration)
	}
	if signpost == nil {
		return nil, fmt.Errorf("%w: biproportional apportionment requires a signpost constant; only d_hondt and sainte_lague have established ones", domain.ErrConfiguration)
	}
	if signpost.Sign() < 0 || signpost.Cmp(domain.Rat(1)) >= 0 {
		return nil, fmt.Errorf("%w: signpost constant must lie in [0, 1), got %s", domain.ErrConfiguration, signpost.RatString())
	}
	b := &Biproportional{
		divisor:       divisor,
		signpost:      new(big.Rat).Set(signpost),
		maxIterations: DefaultMaxTransferIterations,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// sp returns the signpost boundary between seats-1 and seats: a quotient
// exactly at sp(s) is tied between s-1 and s seats.
func (b *Biproportional) sp(seats int) *big.Rat {
	return domain.RatSub(domain.Rat(int64(seats)), b.signpost)
}

// Evaluate solves the grid. The result maps each district to its party
// seat distribution; parties without seats in a district are absent.
func (b *Biproportional) Evaluate(votes domain.ConstituencyTally, nSeats int, _ domain.Constraints) (map[domain.Constituency]domain.Distribution, error) {
	districts := votes.SortedDistricts()
	if len(districts) == 0 {
		return map[domain.Constituency]domain.Distribution{}, nil
	}
	ha, err := NewHighestAverages(b.divisor)
	if err != nil {
		return nil, err
	}

	targets, err := b.districtTargets(votes, districts, nSeats, ha)
	if err != nil {
		return nil, err
	}

	national := votes.Totals()
	partyDist, err := ha.Evaluate(national, nSeats, domain.Constraints{})
	if err != nil {
		return nil, err
	}
	if partyDist.HasTie() {
		return nil, &domain.TieError{Stage: "biproportional national distribution", Tie: partyDist.Ties[0].Tie}
	}
	parties := make([]domain.Candidate, 0, len(partyDist.Seats))
	for p := range partyDist.Seats {
		parties = append(parties, p)
	}
	sortCandidates(parties)

	grid, err := b.initialGrid(votes, districts, parties, partyDist.Seats, ha)
	if err != nil {
		return nil, err
	}
	districtCoef, partyCoef, err := b.initialCoefficients(votes, districts, parties, grid)
	if err != nil {
		return nil, err
	}

	if err := b.transferLoop(votes, districts, parties, targets, grid, districtCoef, partyCoef); err != nil {
		return nil, err
	}

	out := make(map[domain.Constituency]domain.Distribution, len(districts))
	for _, d := range districts {
		dist := domain.NewDistribution()
		for _, p := range parties {
			if n := grid[d][p]; n > 0 {
				dist.Seats[p] = n
			}
		}
		if len(dist.Seats) > 0 {
			out[d] = dist
		}
	}
	return out, nil
}

// districtTargets returns the per-district seat targets, preset or
// apportioned from district vote totals.
func (b *Biproportional) districtTargets(votes domain.ConstituencyTally, districts []domain.Constituency, nSeats int, ha *HighestAverages) (map[domain.Constituency]int, error) {
	if b.presetSeats != nil {
		sum := 0
		for _, d := range districts {
			sum += b.presetSeats[d]
		}
		if sum != nSeats {
			return nil, fmt.Errorf("%w: preset district seats sum to %d, want %d", domain.ErrConfiguration, sum, nSeats)
		}
		return b.presetSeats, nil
	}
	dist, err := ha.Evaluate(votes.DistrictTotals(), nSeats, domain.Constraints{})
	if err != nil {
		return nil, err
	}
	if dist.HasTie() {
		return nil, &domain.TieError{Stage: "biproportional district apportionment", Tie: dist.Ties[0].Tie}
	}
	return dist.Seats, nil
}

// initialGrid allocates each party's national seats to districts by the
// same highest-averages method. District ties are resolved toward the
// ordering-smallest district; the transfer loop corrects any imbalance.
func (b *Biproportional) initialGrid(votes domain.ConstituencyTally, districts []domain.Constituency, parties []domain.Candidate, partySeats map[domain.Candidate]int, ha *HighestAverages) (map[domain.Constituency]map[domain.Candidate]int, error) {
	grid := make(map[domain.Constituency]map[domain.Candidate]int, len(districts))
	for _, d := range districts {
		grid[d] = make(map[domain.Candidate]int, len(parties))
	}
	for _, p := range parties {
		perDistrict := domain.SimpleTally{}
		for _, d := range districts {
			if count, ok := votes[d][p]; ok && count.Sign() > 0 {
				perDistrict[d] = count
			}
		}
		alloc, err := ha.Evaluate(perDistrict, partySeats[p], domain.Constraints{})
		if err != nil {
			return nil, fmt.Errorf("initial allocation for %q: %w", p, err)
		}
		for d, n := range alloc.Seats {
			grid[d][p] = n
		}
		for _, tied := range alloc.Ties {
			members := tied.Tie.Members()
			if tied.Seats > len(members) {
				return nil, fmt.Errorf("%w: initial allocation tie for %q spans %d seats over %d districts", domain.ErrSolverInvariant, p, tied.Seats, len(members))
			}
			for i := 0; i < tied.Seats; i++ {
				grid[members[i]][p]++
			}
		}
	}
	return grid, nil
}

// initialCoefficients derives a consistent coefficient pair: district
// coefficients start at 1 and each party coefficient is placed inside the
// rounding interval every one of its cells implies.
func (b *Biproportional) initialCoefficients(votes domain.ConstituencyTally, districts []domain.Constituency, parties []domain.Candidate, grid map[domain.Constituency]map[domain.Candidate]int) (map[domain.Constituency]*big.Rat, map[domain.Candidate]*big.Rat, error) {
	districtCoef := make(map[domain.Constituency]*big.Rat, len(districts))
	for _, d := range districts {
		districtCoef[d] = domain.Rat(1)
	}
	partyCoef := make(map[domain.Candidate]*big.Rat, len(parties))
	for _, p := range parties {
		lower := new(big.Rat)
		var upper *big.Rat
		for _, d := range districts {
			v := votes[d][p]
			s := grid[d][p]
			if v == nil || v.Sign() == 0 {
				if s != 0 {
					return nil, nil, fmt.Errorf("%w: party %q holds %d seats in district %q with zero votes", domain.ErrSolverInvariant, p, s, d)
				}
				continue
			}
			if lo := domain.RatDiv(b.sp(s), v); lo.Cmp(lower) > 0 {
				lower = lo
			}
			hi := domain.RatDiv(b.sp(s+1), v)
			if upper == nil || hi.Cmp(upper) < 0 {
				upper = hi
			}
		}
		if upper == nil {
			return nil, nil, fmt.Errorf("%w: party %q has no votes in any district", domain.ErrSolverInvariant, p)
		}
		if lower.Cmp(upper) > 0 {
			return nil, nil, fmt.Errorf("%w: empty rounding interval for party %q", domain.ErrSolverInvariant, p)
		}
		mid := domain.RatDiv(domain.RatAdd(lower, upper), domain.Rat(2))
		partyCoef[p] = mid
	}
	return districtCoef, partyCoef, nil
}

// transferLoop moves seats from over-supplied to under-supplied districts
// along alternating paths of tied cells, scaling coefficients when stuck,
// until every district matches its target.
func (b *Biproportional) transferLoop(
	votes domain.ConstituencyTally,
	districts []domain.Constituency,
	parties []domain.Candidate,
	targets map[domain.Constituency]int,
	grid map[domain.Constituency]map[domain.Candidate]int,
	districtCoef map[domain.Constituency]*big.Rat,
	partyCoef map[domain.Candidate]*big.Rat,
) error {
	quotient := func(d domain.Constituency, p domain.Candidate) *big.Rat {
		v := votes[d][p]
		if v == nil || v.Sign() == 0 {
			return nil
		}
		return domain.RatMul(v, domain.RatMul(districtCoef[d], partyCoef[p]))
	}

	for iter := 0; iter < b.maxIterations; iter++ {
		over := map[domain.Constituency]bool{}
		underFound := false
		for _, d := range districts {
			row := 0
			for _, p := range parties {
				row += grid[d][p]
			}
			if row > targets[d] {
				over[d] = true
			} else if row < targets[d] {
				underFound = true
			}
		}
		if len(over) == 0 && !underFound {
			return nil
		}

		// Alternating breadth-first labeling from the over-supplied
		// districts: parties are reached through downgradable cells, further
		// districts through upgradable ones.
		parentParty := map[domain.Constituency]domain.Candidate{}
		parentDistrict := map[domain.Candidate]domain.Constituency{}
		labeledD := map[domain.Constituency]bool{}
		labeledP := map[domain.Candidate]bool{}
		var frontierD []domain.Constituency
		for _, d := range districts {
			if over[d] {
				labeledD[d] = true
				frontierD = append(frontierD, d)
			}
		}

		var augmentFrom domain.Constituency
		found := false
		for len(frontierD) > 0 && !found {
			var frontierP []domain.Candidate
			for _, d := range frontierD {
				for _, p := range parties {
					if labeledP[p] {
						continue
					}
					q := quotient(d, p)
					s := grid[d][p]
					if q == nil || s < 1 || q.Cmp(b.sp(s)) != 0 {
						continue
					}
					labeledP[p] = true
					parentDistrict[p] = d
					frontierP = append(frontierP, p)
				}
			}
			frontierD = nil
			for _, p := range frontierP {
				for _, d := range districts {
					if labeledD[d] {
						continue
					}
					q := quotient(d, p)
					s := grid[d][p]
					if q == nil || q.Cmp(b.sp(s+1)) != 0 {
						continue
					}
					labeledD[d] = true
					parentParty[d] = p
					frontierD = append(frontierD, d)
					row := 0
					for _, pp := range parties {
						row += grid[d][pp]
					}
					if row < targets[d] {
						augmentFrom = d
						found = true
						break
					}
				}
				if found {
					break
				}
			}
		}

		if found {
			// Walk the path back to an over-supplied district: each hop adds
			// a seat where the path enters a district and removes the seat
			// it came from, keeping every party total fixed.
			cur := augmentFrom
			for {
				p, ok := parentParty[cur]
				if !ok {
					break
				}
				grid[cur][p]++
				prev := parentDistrict[p]
				grid[prev][p]--
				cur = prev
			}
			continue
		}

		if err := b.adjustCoefficients(districts, parties, grid, labeledD, labeledP, quotient, districtCoef, partyCoef); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: tie-and-transfer exceeded %d iterations", domain.ErrNotConverging, b.maxIterations)
}

// adjustCoefficients applies the minimal scaling that creates a new tied
// cell between the labeled and unlabeled halves of the grid without pushing
// any cell out of its rounding interval.
func (b *Biproportional) adjustCoefficients(
	districts []domain.Constituency,
	parties []domain.Candidate,
	grid map[domain.Constituency]map[domain.Candidate]int,
	labeledD map[domain.Constituency]bool,
	labeledP map[domain.Candidate]bool,
	quotient func(domain.Constituency, domain.Candidate) *big.Rat,
	districtCoef map[domain.Constituency]*big.Rat,
	partyCoef map[domain.Candidate]*big.Rat,
) error {
	var factor *big.Rat
	consider := func(candidate *big.Rat) {
		if factor == nil || candidate.Cmp(factor) > 0 {
			factor = candidate
		}
	}
	for _, d := range districts {
		for _, p := range parties {
			q := quotient(d, p)
			if q == nil {
				continue
			}
			s := grid[d][p]
			switch {
			case labeledD[d] && !labeledP[p] && s >= 1:
				// Shrinking the labeled district coefficients pulls this
				// quotient down toward its lower signpost.
				consider(domain.RatDiv(b.sp(s), q))
			case !labeledD[d] && labeledP[p]:
				// Growing the labeled party coefficients pushes this
				// quotient up toward its upper signpost.
				consider(domain.RatDiv(q, b.sp(s+1)))
			}
		}
	}
	if factor == nil {
		return fmt.Errorf("%w: no adjustable cell between labeled and unlabeled grid halves; apportionment infeasible", domain.ErrSolverInvariant)
	}
	if factor.Sign() <= 0 || factor.Cmp(domain.Rat(1)) >= 0 {
		return fmt.Errorf("%w: adjustment coefficient %s outside (0, 1)", domain.ErrSolverInvariant, factor.RatString())
	}
	for d, labeled := range labeledD {
		if labeled {
			districtCoef[d] = domain.RatMul(districtCoef[d], factor)
		}
	}
	for p, labeled := range labeledP {
		if labeled {
			partyCoef[p] = domain.RatDiv(partyCoef[p], factor)
		}
	}
	return nil
}

// Capabilities reports seat awareness; the solver has no use for previous
// gains.
func (b *Biproportional) Capabilities() ports.Capabilities {
	return ports.Capabilities{Seats: true}
}
