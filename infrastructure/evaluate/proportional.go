package evaluate

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/ahrav/go-psephos/internal/domain"
	"github.com/ahrav/go-psephos/internal/ports"
)

// HighestAverages distributes seats by repeatedly awarding the highest
// quotient votes/divisor(order), the D'Hondt/Sainte-Laguë family. Previous
// gains raise a candidate's starting divisor order, which is how
// compensatory (top-up) rounds stay proportional overall; max-seats caps
// stop a candidate's quotient sequence early. Quotients tied at the seat
// boundary are emitted as a tie.
type HighestAverages struct {
	divisor ports.DivisorFunc
}

var _ ports.Distributor[domain.SimpleTally] = (*HighestAverages)(nil)

// NewHighestAverages returns a highest-averages distributor over the given
// divisor function.
func NewHighestAverages(divisor ports.DivisorFunc) (*HighestAverages, error) {
	if divisor == nil {
		return nil, fmt.Errorf("%w: highest averages requires a divisor function", domain.ErrConfiguration)
	}
	return &HighestAverages{divisor: divisor}, nil
}

// quotientEntry is one candidate/order quotient in the award ranking. A
// zero divisor (Huntington-Hill at order zero) yields an infinite quotient,
// ranked above every finite one.
type quotientEntry struct {
	cand domain.Candidate
	q    *big.Rat
	inf  bool
}

func (e quotientEntry) cmp(other quotientEntry) int {
	switch {
	case e.inf && other.inf:
		return 0
	case e.inf:
		return 1
	case other.inf:
		return -1
	default:
		return e.q.Cmp(other.q)
	}
}

// Evaluate awards nSeats seats by descending quotient.
func (h *HighestAverages) Evaluate(votes domain.SimpleTally, nSeats int, cons domain.Constraints) (domain.Distribution, error) {
	var entries []quotientEntry
	for _, cand := range votes.SortedCandidates() {
		prev := cons.Gained(cand)
		limit := nSeats
		if max, ok := cons.Max(cand); ok && max-prev < limit {
			limit = max - prev
		}
		for k := 0; k < limit; k++ {
			div := h.divisor(prev + k)
			if div.Sign() == 0 {
				entries = append(entries, quotientEntry{cand: cand, inf: true})
				continue
			}
			entries = append(entries, quotientEntry{cand: cand, q: domain.RatDiv(votes[cand], div)})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if c := entries[i].cmp(entries[j]); c != 0 {
			return c > 0
		}
		return entries[i].cand < entries[j].cand
	})

	out := domain.NewDistribution()
	if len(entries) <= nSeats {
		for _, e := range entries {
			out.AddSeats(e.cand, 1)
		}
		return out, nil
	}
	boundary := entries[nSeats-1]
	if boundary.cmp(entries[nSeats]) != 0 {
		for _, e := range entries[:nSeats] {
			out.AddSeats(e.cand, 1)
		}
		return out, nil
	}

	// Boundary tie: all quotients above the boundary award seats directly;
	// the candidates owning a boundary quotient contest the rest.
	var members []domain.Candidate
	untied := 0
	for _, e := range entries {
		if e.cmp(boundary) > 0 {
			out.AddSeats(e.cand, 1)
			untied++
			continue
		}
		if e.cmp(boundary) == 0 {
			members = append(members, e.cand)
		}
	}
	out.Ties = append(out.Ties, domain.TiedSeats{Tie: domain.NewTie(members...), Seats: nSeats - untied})
	return out, nil
}

// Capabilities reports full seat and constraint awareness.
func (h *HighestAverages) Capabilities() ports.Capabilities {
	return ports.Capabilities{Seats: true, Gains: true}
}

// QuotaDistributor awards each candidate as many seats as their vote count
// contains whole quotas. It under-fills whenever remainders exist and is
// therefore normally the first round of a multi-stage system whose later
// round distributes the leftover seats.
type QuotaDistributor struct {
	quota ports.QuotaFunc
}

var _ ports.Distributor[domain.SimpleTally] = (*QuotaDistributor)(nil)

// NewQuotaDistributor returns a quota-only distributor.
func NewQuotaDistributor(quota ports.QuotaFunc) (*QuotaDistributor, error) {
	if quota == nil {
		return nil, fmt.Errorf("%w: quota distributor requires a quota function", domain.ErrConfiguration)
	}
	return &QuotaDistributor{quota: quota}, nil
}

// Evaluate awards floor(votes/quota) seats per candidate, reduced by
// previous gains and capped by max seats.
func (d *QuotaDistributor) Evaluate(votes domain.SimpleTally, nSeats int, cons domain.Constraints) (domain.Distribution, error) {
	q := d.quota(votes.Total(), nSeats)
	if q.Sign() <= 0 {
		return domain.Distribution{}, fmt.Errorf("%w: quota function yielded non-positive quota %s", domain.ErrConfiguration, q.RatString())
	}
	out := domain.NewDistribution()
	for _, cand := range votes.SortedCandidates() {
		award := int(domain.RatFloor(domain.RatDiv(votes[cand], q))) - cons.Gained(cand)
		if max, ok := cons.Max(cand); ok && cons.Gained(cand)+award > max {
			award = max - cons.Gained(cand)
		}
		if award > 0 {
			out.AddSeats(cand, award)
		}
	}
	return out, nil
}

// Capabilities reports full seat and constraint awareness.
func (d *QuotaDistributor) Capabilities() ports.Capabilities {
	return ports.Capabilities{Seats: true, Gains: true}
}

// LargestRemainder distributes whole-quota seats first and the leftover
// seats by descending vote remainder, the Hare/Droop largest-remainder
// family. Remainders tied at the last seat are emitted as a tie.
type LargestRemainder struct {
	quota ports.QuotaFunc
}

var _ ports.Distributor[domain.SimpleTally] = (*LargestRemainder)(nil)

// NewLargestRemainder returns a largest-remainder distributor over the
// given quota function.
func NewLargestRemainder(quota ports.QuotaFunc) (*LargestRemainder, error) {
	if quota == nil {
		return nil, fmt.Errorf("%w: largest remainder requires a quota function", domain.ErrConfiguration)
	}
	return &LargestRemainder{quota: quota}, nil
}

// Evaluate awards exactly nSeats seats.
func (d *LargestRemainder) Evaluate(votes domain.SimpleTally, nSeats int, _ domain.Constraints) (domain.Distribution, error) {
	q := d.quota(votes.Total(), nSeats)
	if q.Sign() <= 0 {
		return domain.Distribution{}, fmt.Errorf("%w: quota function yielded non-positive quota %s", domain.ErrConfiguration, q.RatString())
	}
	out := domain.NewDistribution()
	remainders := make(domain.SimpleTally, len(votes))
	awarded := 0
	for cand, count := range votes {
		base := domain.RatFloor(domain.RatDiv(count, q))
		if base > 0 {
			out.AddSeats(cand, int(base))
			awarded += int(base)
		}
		remainders[cand] = domain.RatSub(count, domain.RatMul(domain.Rat(base), q))
	}
	if awarded > nSeats {
		// Possible with the Imperiali quota; such systems recount with
		// another quota, which is the caller's decision.
		return domain.Distribution{}, fmt.Errorf(
			"%w: quota awarded %d whole-quota seats for %d available; recount with a larger quota",
			domain.ErrConfiguration, awarded, nSeats)
	}
	for _, choice := range domain.TopN(remainders, nSeats-awarded) {
		if !choice.IsTie() {
			out.AddSeats(choice.Candidate, 1)
			continue
		}
		addTiedSeat(&out, choice.Tie)
	}
	return out, nil
}

// Capabilities reports seat awareness without constraint handling.
func (d *LargestRemainder) Capabilities() ports.Capabilities {
	return ports.Capabilities{Seats: true}
}

// addTiedSeat accumulates one contested seat onto the distribution's entry
// for the given tie, merging repeated occurrences.
func addTiedSeat(d *domain.Distribution, tie domain.Tie) {
	for i := range d.Ties {
		if d.Ties[i].Tie.Equal(tie) {
			d.Ties[i].Seats++
			return
		}
	}
	d.Ties = append(d.Ties, domain.TiedSeats{Tie: tie, Seats: 1})
}
