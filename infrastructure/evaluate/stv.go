package evaluate

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/ahrav/go-psephos/internal/domain"
	"github.com/ahrav/go-psephos/internal/ports"
)

// TransferableVote is the STV/IRV counting engine: ballots rank candidates,
// candidates reaching the quota are elected and their surplus transfers to
// later preferences, and when nobody reaches the quota the weakest
// candidate is eliminated and their ballots transfer whole. Counting
// repeats until every seat is filled.
//
// Without a quota function the engine runs pure elimination (alternative
// vote): candidates are eliminated until the survivors exactly cover the
// remaining seats. The vote-transfer strategy decides whether surpluses
// move fractionally (Gregory) or as whole sampled ballots (Hare).
//
// A candidate's seat capacity defaults to one; max-seats constraint entries
// raise it for party-based multi-seat variants, and previous gains consume
// capacity before counting starts.
type TransferableVote struct {
	transferer       ports.VoteTransferer
	quota            ports.QuotaFunc
	acceptQuotaEqual bool
	mandatoryQuota   bool
	eliminateStep    int
	retainer         ports.Selector[domain.SimpleTally]
	maxCounts        int
}

var _ ports.Selector[domain.RankedTally] = (*TransferableVote)(nil)

// DefaultMaxCounts bounds the counting loop. Any real count finishes within
// a few dozen rounds; the bound only trips on pathological configurations.
const DefaultMaxCounts = 10000

// TransferableVoteOption configures the engine.
type TransferableVoteOption func(*TransferableVote)

// WithQuota sets the quota function deciding election. Without one the
// engine runs pure elimination.
func WithQuota(quota ports.QuotaFunc) TransferableVoteOption {
	return func(t *TransferableVote) { t.quota = quota }
}

// WithMandatoryQuota disables the early-exhaustion shortcut: candidates are
// elected only by reaching the quota, even when the survivors exactly cover
// the remaining seats.
func WithMandatoryQuota() TransferableVoteOption {
	return func(t *TransferableVote) { t.mandatoryQuota = true }
}

// WithQuotaStrictlyGreater requires totals to exceed the quota for
// election; by default reaching it exactly suffices.
func WithQuotaStrictlyGreater() TransferableVoteOption {
	return func(t *TransferableVote) { t.acceptQuotaEqual = false }
}

// WithRetainer replaces the default lowest-total elimination: each
// elimination round the retainer selects the candidates to keep, and
// step candidates leave.
func WithRetainer(retainer ports.Selector[domain.SimpleTally], step int) TransferableVoteOption {
	return func(t *TransferableVote) {
		t.retainer = retainer
		t.eliminateStep = step
	}
}

// WithMaxCounts overrides the counting-round bound.
func WithMaxCounts(n int) TransferableVoteOption {
	return func(t *TransferableVote) { t.maxCounts = n }
}

// NewTransferableVote builds the engine around a vote-transfer strategy.
func NewTransferableVote(transferer ports.VoteTransferer, opts ...TransferableVoteOption) (*TransferableVote, error) {
	if transferer == nil {
		return nil, fmt.Errorf("%w: transferable vote requires a transfer strategy", domain.ErrConfiguration)
	}
	t := &TransferableVote{
		transferer:       transferer,
		acceptQuotaEqual: true,
		eliminateStep:    1,
		maxCounts:        DefaultMaxCounts,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.mandatoryQuota && t.quota == nil {
		return nil, fmt.Errorf("%w: mandatory quota requires a quota function", domain.ErrConfiguration)
	}
	if t.eliminateStep < 1 {
		return nil, fmt.Errorf("%w: elimination step must be at least 1, got %d", domain.ErrConfiguration, t.eliminateStep)
	}
	if t.retainer == nil && t.eliminateStep != 1 {
		return nil, fmt.Errorf("%w: elimination steps above 1 require a retainer", domain.ErrConfiguration)
	}
	if t.maxCounts < 1 {
		return nil, fmt.Errorf("%w: maximum count bound must be positive", domain.ErrConfiguration)
	}
	return t, nil
}

// quotaAward is one candidate's pending election in a quota pass.
type quotaAward struct {
	cand      domain.Candidate
	seats     int
	overcount *big.Rat
}

// Evaluate counts the ballots and returns the elected candidates in
// election order. When the candidates cannot cover all requested seats the
// selection is shorter than nSeats, mirroring plurality behavior.
func (t *TransferableVote) Evaluate(votes domain.RankedTally, nSeats int, cons domain.Constraints) (domain.Selection, error) {
	if err := votes.Validate(); err != nil {
		return nil, err
	}
	total := votes.Total()
	gains := mergeSeatMaps(cons.PrevGains, nil)
	avail := func(cand domain.Candidate) int {
		capacity := 1
		if max, ok := cons.Max(cand); ok {
			capacity = max
		}
		if a := capacity - gains[cand]; a > 0 {
			return a
		}
		return 0
	}

	alloc, err := t.initialAllocation(votes)
	if err != nil {
		return nil, err
	}

	elected := domain.Selection{}
	filled := 0
	for count := 1; filled < nSeats; count++ {
		if count > t.maxCounts {
			return nil, fmt.Errorf("%w: seat count incomplete after %d counting rounds", domain.ErrNotConverging, t.maxCounts)
		}
		holders := alloc.Holders()
		if len(holders) == 0 {
			break
		}
		totals := alloc.Totals()
		remaining := nSeats - filled

		availSum := 0
		for _, cand := range holders {
			availSum += avail(cand)
		}
		if !t.mandatoryQuota && availSum <= remaining {
			// Remaining candidates exactly cover (or undercover) the open
			// seats: the quota requirement is dropped, as real-world rules do.
			for _, cand := range byTotalsDesc(holders, totals) {
				for i := 0; i < avail(cand); i++ {
					elected = append(elected, domain.Elected(cand))
					filled++
				}
				gains[cand] += avail(cand)
			}
			break
		}

		awards, quotaVal, err := t.quotaPass(holders, totals, total, nSeats, remaining, avail)
		if err != nil {
			return nil, err
		}
		if len(awards) > 0 {
			alloc, err = t.applyAwards(alloc, awards, quotaVal, totals, avail, gains, &elected, &filled)
			if err != nil {
				return nil, err
			}
			continue
		}

		before := alloc
		leaving, err := t.pickLeaving(holders, totals, cons)
		if err != nil {
			return nil, err
		}
		alloc, err = t.transferer.Transfer(alloc, leaving)
		if err != nil {
			return nil, err
		}
		if alloc.Equal(before) {
			return nil, fmt.Errorf("%w: elimination of %v changed no allocation", domain.ErrNotConverging, leaving)
		}
	}
	return elected, nil
}

// initialAllocation buckets every ballot with its first-ranked candidate.
// Ballots whose first rank is shared go to a synthetic placeholder that is
// immediately transferred away, so shared top ranks split exactly like any
// other multi-target transfer under the configured strategy.
func (t *TransferableVote) initialAllocation(votes domain.RankedTally) (domain.Allocation, error) {
	alloc := domain.NewAllocation(votes)
	for _, cand := range votes.Candidates() {
		alloc.Held[cand] = map[int]*big.Rat{}
	}
	sharedFirst := false
	for idx, ballot := range votes {
		if ballot.Count.Sign() == 0 {
			continue
		}
		if len(ballot.Ranking) == 0 {
			alloc.Exhaust(idx, ballot.Count)
			continue
		}
		first := ballot.Ranking[0]
		if len(first) == 1 {
			alloc.Credit(first[0], idx, ballot.Count)
			continue
		}
		alloc.Credit(domain.SharedRankPlaceholder, idx, ballot.Count)
		sharedFirst = true
	}
	if sharedFirst {
		return t.transferer.Transfer(alloc, []domain.Candidate{domain.SharedRankPlaceholder})
	}
	delete(alloc.Held, domain.SharedRankPlaceholder)
	return alloc, nil
}

// quotaPass finds the candidates elected by quota this round, applying the
// overcount cutoff when more seat multiples are reached than seats remain.
func (t *TransferableVote) quotaPass(
	holders []domain.Candidate,
	totals domain.SimpleTally,
	totalVotes *big.Rat,
	nSeats, remaining int,
	avail func(domain.Candidate) int,
) ([]quotaAward, *big.Rat, error) {
	if t.quota == nil {
		return nil, nil, nil
	}
	q := t.quota(totalVotes, nSeats)
	if q.Sign() <= 0 {
		return nil, nil, fmt.Errorf("%w: quota function yielded non-positive quota %s", domain.ErrConfiguration, q.RatString())
	}

	var awards []quotaAward
	sum := 0
	for _, cand := range holders {
		cmp := totals[cand].Cmp(q)
		if cmp < 0 || (cmp == 0 && !t.acceptQuotaEqual) {
			continue
		}
		mult := int(domain.RatFloor(domain.RatDiv(totals[cand], q)))
		seats := mult
		if a := avail(cand); seats > a {
			seats = a
		}
		if seats <= 0 {
			continue
		}
		over := domain.RatSub(totals[cand], domain.RatMul(domain.Rat(int64(mult)), q))
		awards = append(awards, quotaAward{cand: cand, seats: seats, overcount: over})
		sum += seats
	}
	if sum <= remaining {
		return awards, q, nil
	}

	// Overcount cutoff: the lowest-leftover candidates each give up one of
	// this round's seats until the awards fit the remaining seats.
	excess := sum - remaining
	if excess > len(awards) {
		return nil, nil, fmt.Errorf(
			"%w: quota reached for %d seat multiples with only %d seats remaining; recount with a larger quota",
			domain.ErrConfiguration, sum, remaining)
	}
	sort.Slice(awards, func(i, j int) bool {
		if cmp := awards[i].overcount.Cmp(awards[j].overcount); cmp != 0 {
			return cmp < 0
		}
		return awards[i].cand < awards[j].cand
	})
	if excess < len(awards) && awards[excess-1].overcount.Cmp(awards[excess].overcount) == 0 {
		boundary := awards[excess-1].overcount
		var members []domain.Candidate
		for _, aw := range awards {
			if aw.overcount.Cmp(boundary) == 0 {
				members = append(members, aw.cand)
			}
		}
		return nil, nil, &domain.TieError{Stage: "stv quota overcount cutoff", Tie: domain.NewTie(members...)}
	}
	kept := awards[:0]
	for i, aw := range awards {
		if i < excess {
			aw.seats--
		}
		if aw.seats > 0 {
			kept = append(kept, aw)
		}
	}
	return kept, q, nil
}

// applyAwards records the elections, subtracts the consumed quota votes and
// transfers the residual ballots of candidates whose capacity is spent.
func (t *TransferableVote) applyAwards(
	alloc domain.Allocation,
	awards []quotaAward,
	quotaVal *big.Rat,
	totals domain.SimpleTally,
	avail func(domain.Candidate) int,
	gains map[domain.Candidate]int,
	elected *domain.Selection,
	filled *int,
) (domain.Allocation, error) {
	sort.Slice(awards, func(i, j int) bool {
		if cmp := totals[awards[i].cand].Cmp(totals[awards[j].cand]); cmp != 0 {
			return cmp > 0
		}
		return awards[i].cand < awards[j].cand
	})
	amounts := make(map[domain.Candidate]*big.Rat, len(awards))
	for _, aw := range awards {
		for i := 0; i < aw.seats; i++ {
			*elected = append(*elected, domain.Elected(aw.cand))
			*filled++
		}
		gains[aw.cand] += aw.seats
		amounts[aw.cand] = domain.RatMul(domain.Rat(int64(aw.seats)), quotaVal)
	}
	out, err := t.transferer.Subtract(alloc, amounts)
	if err != nil {
		return domain.Allocation{}, err
	}
	var leaving []domain.Candidate
	for _, aw := range awards {
		if avail(aw.cand) == 0 {
			leaving = append(leaving, aw.cand)
		}
	}
	if len(leaving) > 0 {
		return t.transferer.Transfer(out, leaving)
	}
	return out, nil
}

// pickLeaving chooses the candidates to eliminate when nobody reached the
// quota: either via the configured retainer or, by default, the single
// lowest-total candidate. Ties at the elimination boundary are
// unresolvable here; compose a tie-breaking retainer to resolve them.
func (t *TransferableVote) pickLeaving(holders []domain.Candidate, totals domain.SimpleTally, cons domain.Constraints) ([]domain.Candidate, error) {
	if t.retainer != nil {
		retain := len(holders) - t.eliminateStep
		if retain < 1 {
			return nil, fmt.Errorf("%w: elimination step %d leaves no candidates among %d", domain.ErrConfiguration, t.eliminateStep, len(holders))
		}
		sel, err := t.retainer.Evaluate(totals, retain, cons)
		if err != nil {
			return nil, fmt.Errorf("retainer: %w", err)
		}
		retained, err := sel.Candidates()
		if err != nil {
			return nil, err
		}
		if len(retained) > retain {
			return nil, fmt.Errorf("%w: retainer kept %d candidates, at most %d allowed", domain.ErrConfiguration, len(retained), retain)
		}
		keep := make(map[domain.Candidate]struct{}, len(retained))
		for _, cand := range retained {
			keep[cand] = struct{}{}
		}
		var leaving []domain.Candidate
		for _, cand := range holders {
			if _, ok := keep[cand]; !ok {
				leaving = append(leaving, cand)
			}
		}
		return leaving, nil
	}

	var lowest []domain.Candidate
	var min *big.Rat
	for _, cand := range holders {
		switch {
		case min == nil || totals[cand].Cmp(min) < 0:
			min = totals[cand]
			lowest = []domain.Candidate{cand}
		case totals[cand].Cmp(min) == 0:
			lowest = append(lowest, cand)
		}
	}
	if len(lowest) > 1 {
		return nil, &domain.TieError{Stage: "stv elimination", Tie: domain.NewTie(lowest...)}
	}
	return lowest, nil
}

// Capabilities reports full seat and constraint awareness.
func (t *TransferableVote) Capabilities() ports.Capabilities {
	return ports.Capabilities{Seats: true, Gains: true}
}

// byTotalsDesc orders candidates by descending vote total, equal totals
// canonically.
func byTotalsDesc(cands []domain.Candidate, totals domain.SimpleTally) []domain.Candidate {
	out := append([]domain.Candidate(nil), cands...)
	sort.Slice(out, func(i, j int) bool {
		if cmp := totals[out[i]].Cmp(totals[out[j]]); cmp != 0 {
			return cmp > 0
		}
		return out[i] < out[j]
	})
	return out
}
