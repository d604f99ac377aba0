package evaluate

import (
	"fmt"

	"github.com/ahrav/go-psephos/internal/domain"
	"github.com/ahrav/go-psephos/internal/ports"
)

// ByConstituency evaluates constituency-nested votes independently per
// constituency. Seats per constituency come from a preset mapping, from an
// apportioner distributor run over constituency vote totals, or default to
// the evaluation's seat count applied uniformly. An optional national
// preselector removes nationally failing candidates from every constituency
// before the inner evaluator runs.
type ByConstituency[V, R any] struct {
	inner       ports.Evaluator[V, R]
	presetSeats map[domain.Constituency]int
	apportioner ports.Distributor[domain.SimpleTally]
	totaler     ports.Totaler[V]
	preselect   ports.Eliminator[V]
	aggregate   ports.Converter[map[domain.Constituency]V, V]
	subset      ports.Subsetter[V]
}

// ByConstituencyOption configures a ByConstituency wrapper.
type ByConstituencyOption[V, R any] func(*ByConstituency[V, R])

// WithPresetSeats fixes the seats per constituency externally. Districts
// absent from the mapping get zero seats.
func WithPresetSeats[V, R any](seats map[domain.Constituency]int) ByConstituencyOption[V, R] {
	return func(b *ByConstituency[V, R]) { b.presetSeats = seats }
}

// WithApportionment computes seats per constituency by running the given
// distributor over constituency vote totals, so turnout determines district
// magnitude.
func WithApportionment[V, R any](apportioner ports.Distributor[domain.SimpleTally], totaler ports.Totaler[V]) ByConstituencyOption[V, R] {
	return func(b *ByConstituency[V, R]) {
		b.apportioner = apportioner
		b.totaler = totaler
	}
}

// WithNationalPreselection removes candidates failing the eliminator over
// nationally aggregated votes from every constituency's ballot.
func WithNationalPreselection[V, R any](preselect ports.Eliminator[V], aggregate ports.Converter[map[domain.Constituency]V, V], subset ports.Subsetter[V]) ByConstituencyOption[V, R] {
	return func(b *ByConstituency[V, R]) {
		b.preselect = preselect
		b.aggregate = aggregate
		b.subset = subset
	}
}

// NewByConstituency wraps inner for per-constituency evaluation.
func NewByConstituency[V, R any](inner ports.Evaluator[V, R], opts ...ByConstituencyOption[V, R]) (*ByConstituency[V, R], error) {
	if err := requireSeats(inner.Capabilities(), "by-constituency delegation"); err != nil {
		return nil, err
	}
	b := &ByConstituency[V, R]{inner: inner}
	for _, opt := range opts {
		opt(b)
	}
	if b.presetSeats != nil && b.apportioner != nil {
		return nil, fmt.Errorf("%w: preset constituency seats and apportionment are mutually exclusive", domain.ErrConfiguration)
	}
	if b.apportioner != nil && b.totaler == nil {
		return nil, fmt.Errorf("%w: constituency apportionment requires a vote totaler", domain.ErrConfiguration)
	}
	if b.preselect != nil && (b.aggregate == nil || b.subset == nil) {
		return nil, fmt.Errorf("%w: national preselection requires an aggregator and a subsetter", domain.ErrConfiguration)
	}
	return b, nil
}

// Evaluate runs the inner evaluator once per constituency. Constituencies
// apportioned zero seats are absent from the result and the inner evaluator
// is never invoked for them.
func (b *ByConstituency[V, R]) Evaluate(votes map[domain.Constituency]V, nSeats int, cons domain.Constraints) (map[domain.Constituency]R, error) {
	districts := make([]domain.Constituency, 0, len(votes))
	for d := range votes {
		districts = append(districts, d)
	}
	sortCandidates(districts)

	seats, err := b.districtSeats(votes, districts, nSeats)
	if err != nil {
		return nil, err
	}

	if b.preselect != nil {
		national, err := b.aggregate(votes)
		if err != nil {
			return nil, fmt.Errorf("national aggregation: %w", err)
		}
		survivors, err := b.preselect.Evaluate(national, 0, cons)
		if err != nil {
			return nil, fmt.Errorf("national preselection: %w", err)
		}
		restricted := make(map[domain.Constituency]V, len(votes))
		for _, d := range districts {
			sub, err := b.subset(votes[d], survivors)
			if err != nil {
				return nil, fmt.Errorf("preselection subset for %q: %w", d, err)
			}
			restricted[d] = sub
		}
		votes = restricted
	}

	out := make(map[domain.Constituency]R, len(votes))
	for _, d := range districts {
		if seats[d] == 0 {
			continue
		}
		result, err := b.inner.Evaluate(votes[d], seats[d], cons.District(d))
		if err != nil {
			return nil, fmt.Errorf("constituency %q: %w", d, err)
		}
		out[d] = result
	}
	return out, nil
}

func (b *ByConstituency[V, R]) districtSeats(votes map[domain.Constituency]V, districts []domain.Constituency, nSeats int) (map[domain.Constituency]int, error) {
	seats := make(map[domain.Constituency]int, len(districts))
	switch {
	case b.presetSeats != nil:
		for _, d := range districts {
			seats[d] = b.presetSeats[d]
		}
	case b.apportioner != nil:
		totals := make(domain.SimpleTally, len(districts))
		for _, d := range districts {
			totals[d] = b.totaler(votes[d])
		}
		dist, err := b.apportioner.Evaluate(totals, nSeats, domain.Constraints{})
		if err != nil {
			return nil, fmt.Errorf("constituency apportionment: %w", err)
		}
		if dist.HasTie() {
			return nil, &domain.TieError{Stage: "constituency apportionment", Tie: dist.Ties[0].Tie}
		}
		for d, n := range dist.Seats {
			seats[d] = n
		}
	default:
		for _, d := range districts {
			seats[d] = nSeats
		}
	}
	return seats, nil
}

// Capabilities reports full seat and constraint awareness; per-district
// constraints are taken from the constraints' district nesting.
func (b *ByConstituency[V, R]) Capabilities() ports.Capabilities {
	return ports.Capabilities{Seats: true, Gains: true}
}

// ByParty is the transpose of ByConstituency: party seat totals are decided
// nationally first, then each party's national seats are disaggregated to
// constituencies by an allocator run over that party's per-constituency
// vote totals. Mixed-member systems use this for the national list tier.
type ByParty struct {
	overall   ports.Distributor[domain.SimpleTally]
	allocator ports.Distributor[domain.SimpleTally]
}

var _ ports.Evaluator[domain.ConstituencyTally, map[domain.Constituency]domain.Distribution] = (*ByParty)(nil)

// NewByParty wraps a national distributor and a per-party district
// allocator.
func NewByParty(overall, allocator ports.Distributor[domain.SimpleTally]) (*ByParty, error) {
	if overall == nil || allocator == nil {
		return nil, fmt.Errorf("%w: by-party delegation requires a national distributor and a district allocator", domain.ErrConfiguration)
	}
	if err := requireSeats(overall.Capabilities(), "by-party national distribution"); err != nil {
		return nil, err
	}
	if err := requireSeats(allocator.Capabilities(), "by-party district allocation"); err != nil {
		return nil, err
	}
	return &ByParty{overall: overall, allocator: allocator}, nil
}

// Evaluate distributes nSeats to parties nationally, then to constituencies
// per party. Ties at either level propagate as unresolvable-tie errors.
func (b *ByParty) Evaluate(votes domain.ConstituencyTally, nSeats int, cons domain.Constraints) (map[domain.Constituency]domain.Distribution, error) {
	national, err := b.overall.Evaluate(votes.Totals(), nSeats, cons)
	if err != nil {
		return nil, fmt.Errorf("national distribution: %w", err)
	}
	if national.HasTie() {
		return nil, &domain.TieError{Stage: "by-party national distribution", Tie: national.Ties[0].Tie}
	}

	parties := make([]domain.Candidate, 0, len(national.Seats))
	for p := range national.Seats {
		parties = append(parties, p)
	}
	sortCandidates(parties)

	out := map[domain.Constituency]domain.Distribution{}
	for _, party := range parties {
		perDistrict := domain.SimpleTally{}
		for d, district := range votes {
			if count, ok := district[party]; ok {
				perDistrict[d] = count
			}
		}
		alloc, err := b.allocator.Evaluate(perDistrict, national.Seats[party], domain.Constraints{})
		if err != nil {
			return nil, fmt.Errorf("district allocation for %q: %w", party, err)
		}
		if alloc.HasTie() {
			return nil, &domain.TieError{Stage: "by-party district allocation", Tie: alloc.Ties[0].Tie}
		}
		for d, n := range alloc.Seats {
			district, ok := out[d]
			if !ok {
				district = domain.NewDistribution()
			}
			district.AddSeats(party, n)
			out[d] = district
		}
	}
	return out, nil
}

// Capabilities reports full seat and constraint awareness.
func (b *ByParty) Capabilities() ports.Capabilities {
	return ports.Capabilities{Seats: true, Gains: true}
}
