package domain

// Choice is one slot of a selection result: either a single elected
// candidate or a tie contesting that slot. Exactly one of the two fields
// is meaningful, discriminated by IsTie.
type Choice struct {
	Candidate Candidate
	Tie       Tie
}

// Elected wraps a single candidate as a selection slot.
func Elected(cand Candidate) Choice { return Choice{Candidate: cand} }

// TiedChoice wraps a tie as a selection slot.
func TiedChoice(tie Tie) Choice { return Choice{Tie: tie} }

// IsTie reports whether the slot holds a tie rather than a candidate.
func (c Choice) IsTie() bool { return !c.Tie.IsZero() }

// Selection is an ordered election result, strongest winner first. Its
// length equals the number of seats awarded; a tie slot may repeat
// consecutively to represent multiple seats contested by the same tie.
type Selection []Choice

// HasTie reports whether any slot of the selection is a tie.
func (s Selection) HasTie() bool {
	for _, choice := range s {
		if choice.IsTie() {
			return true
		}
	}
	return false
}

// Candidates returns the elected candidates, failing the conversion when
// the selection still contains ties.
func (s Selection) Candidates() ([]Candidate, error) {
	out := make([]Candidate, 0, len(s))
	for _, choice := range s {
		if choice.IsTie() {
			return nil, &TieError{Stage: "selection result", Tie: choice.Tie}
		}
		out = append(out, choice.Candidate)
	}
	return out, nil
}

// TiedSeats pairs a tie with the number of seats contested among its
// members inside a distribution result.
type TiedSeats struct {
	Tie   Tie
	Seats int
}

// Distribution maps candidates to non-negative seat counts. Candidates with
// zero seats are absent; ordering carries no meaning. Ties that could not
// be resolved down to single candidates are carried separately with their
// contested seat counts.
type Distribution struct {
	Seats map[Candidate]int
	Ties  []TiedSeats
}

// NewDistribution returns an empty distribution ready for accumulation.
func NewDistribution() Distribution {
	return Distribution{Seats: map[Candidate]int{}}
}

// HasTie reports whether the distribution carries any unresolved tie.
func (d Distribution) HasTie() bool { return len(d.Ties) > 0 }

// TotalSeats returns the number of seats awarded, tied seats included.
func (d Distribution) TotalSeats() int {
	total := 0
	for _, n := range d.Seats {
		total += n
	}
	for _, t := range d.Ties {
		total += t.Seats
	}
	return total
}

// Clone returns a deep copy of the distribution.
func (d Distribution) Clone() Distribution {
	out := Distribution{Seats: make(map[Candidate]int, len(d.Seats))}
	for cand, n := range d.Seats {
		out.Seats[cand] = n
	}
	out.Ties = append(out.Ties, d.Ties...)
	return out
}

// Add accumulates another distribution into this one in place.
func (d *Distribution) Add(other Distribution) {
	if d.Seats == nil {
		d.Seats = map[Candidate]int{}
	}
	for cand, n := range other.Seats {
		d.Seats[cand] += n
	}
	d.Ties = append(d.Ties, other.Ties...)
}

// AddSeats awards n additional seats to cand in place.
func (d *Distribution) AddSeats(cand Candidate, n int) {
	if d.Seats == nil {
		d.Seats = map[Candidate]int{}
	}
	d.Seats[cand] += n
	if d.Seats[cand] == 0 {
		delete(d.Seats, cand)
	}
}

// Constraints carries the seat bookkeeping threaded through multi-round
// systems: seats already gained in earlier rounds and per-candidate caps on
// lifetime totals. The zero value means no previous gains and no caps.
//
// Constraints are immutable inputs: evaluators never modify the maps, and
// components needing adjusted values copy first.
type Constraints struct {
	// PrevGains records seats awarded in earlier rounds or stages; any
	// computed entitlement is reduced by these before new seats are given.
	PrevGains map[Candidate]int

	// MaxSeats caps a candidate's total lifetime seats, previous gains
	// included. Candidates absent from the map are unbounded.
	MaxSeats map[Candidate]int

	// Districts nests constraints per constituency for evaluators that
	// operate on constituency-shaped votes. Flat fields and Districts are
	// never meaningful at the same time.
	Districts map[Constituency]Constraints
}

// Gained returns the seats cand already holds from previous rounds.
func (c Constraints) Gained(cand Candidate) int { return c.PrevGains[cand] }

// Max returns cand's lifetime seat cap and whether one is set.
func (c Constraints) Max(cand Candidate) (int, bool) {
	n, ok := c.MaxSeats[cand]
	return n, ok
}

// District returns the constraints nested under the given constituency.
func (c Constraints) District(d Constituency) Constraints { return c.Districts[d] }

// TotalGained sums all previously gained seats.
func (c Constraints) TotalGained() int {
	total := 0
	for _, n := range c.PrevGains {
		total += n
	}
	return total
}

// WithGains returns a copy of the constraints with PrevGains replaced.
// The other fields are shared, never mutated.
func (c Constraints) WithGains(gains map[Candidate]int) Constraints {
	out := c
	out.PrevGains = gains
	return out
}

// MergeGains returns the union of the constraint's previous gains and an
// additional distribution, as a fresh map.
func (c Constraints) MergeGains(extra map[Candidate]int) map[Candidate]int {
	out := make(map[Candidate]int, len(c.PrevGains)+len(extra))
	for cand, n := range c.PrevGains {
		out[cand] = n
	}
	for cand, n := range extra {
		out[cand] += n
	}
	return out
}
