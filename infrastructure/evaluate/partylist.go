package evaluate

import (
	"fmt"
	"sort"

	"github.com/ahrav/go-psephos/internal/domain"
	"github.com/ahrav/go-psephos/internal/ports"
)

// PartyListVotes bundles everything a party-list election consumes: party
// vote totals, each party's ordered candidate list, and (for open lists)
// the preferential votes cast for individual list candidates.
type PartyListVotes struct {
	// Party maps each party to its vote total.
	Party domain.SimpleTally

	// Lists maps each party to its ordered candidate list.
	Lists map[domain.Candidate][]domain.Candidate

	// ListVotes maps each party to the preferential votes for its list
	// candidates. Ignored for closed lists.
	ListVotes map[domain.Candidate]domain.SimpleTally
}

// PartyList distributes seats to parties and fills them from the parties'
// candidate lists: closed lists are truncated to the seat count, open lists
// delegate to an open-list evaluator consuming the preferential list votes.
type PartyList struct {
	dist     ports.Distributor[domain.SimpleTally]
	openList ports.OpenListEvaluator
}

var _ ports.Evaluator[PartyListVotes, map[domain.Candidate][]domain.Candidate] = (*PartyList)(nil)

// NewPartyList builds a closed-list evaluator over the given party-seat
// distributor.
func NewPartyList(dist ports.Distributor[domain.SimpleTally]) (*PartyList, error) {
	if dist == nil {
		return nil, fmt.Errorf("%w: party-list evaluation requires a seat distributor", domain.ErrConfiguration)
	}
	if err := requireSeats(dist.Capabilities(), "party-list distribution"); err != nil {
		return nil, err
	}
	return &PartyList{dist: dist}, nil
}

// NewOpenPartyList builds an open-list evaluator: seats within each party
// go to the candidates the open-list evaluator picks from the preferential
// list votes.
func NewOpenPartyList(dist ports.Distributor[domain.SimpleTally], openList ports.OpenListEvaluator) (*PartyList, error) {
	p, err := NewPartyList(dist)
	if err != nil {
		return nil, err
	}
	if openList == nil {
		return nil, fmt.Errorf("%w: open party lists require an open-list evaluator", domain.ErrConfiguration)
	}
	p.openList = openList
	return p, nil
}

// Evaluate distributes nSeats to parties and returns the elected candidates
// per party. Ties in the party distribution propagate as errors.
func (p *PartyList) Evaluate(votes PartyListVotes, nSeats int, cons domain.Constraints) (map[domain.Candidate][]domain.Candidate, error) {
	dist, err := p.dist.Evaluate(votes.Party, nSeats, cons)
	if err != nil {
		return nil, fmt.Errorf("party distribution: %w", err)
	}
	if dist.HasTie() {
		return nil, &domain.TieError{Stage: "party-list distribution", Tie: dist.Ties[0].Tie}
	}

	parties := make([]domain.Candidate, 0, len(dist.Seats))
	for party := range dist.Seats {
		parties = append(parties, party)
	}
	sortCandidates(parties)

	out := make(map[domain.Candidate][]domain.Candidate, len(parties))
	for _, party := range parties {
		list, ok := votes.Lists[party]
		if !ok {
			return nil, fmt.Errorf("%w: party %q won seats but has no candidate list", domain.ErrInputShape, party)
		}
		seats := dist.Seats[party]
		if seats > len(list) {
			seats = len(list)
		}
		if p.openList == nil {
			out[party] = append([]domain.Candidate(nil), list[:seats]...)
			continue
		}
		elected, err := p.openList.EvaluateList(votes.ListVotes[party], seats, list)
		if err != nil {
			return nil, fmt.Errorf("open list for %q: %w", party, err)
		}
		out[party] = elected
	}
	return out, nil
}

// Capabilities reports full seat and constraint awareness.
func (p *PartyList) Capabilities() ports.Capabilities {
	return ports.Capabilities{Seats: true, Gains: true}
}

// OpenByVotes is the common open-list rule: list candidates are elected in
// order of their preferential votes, with equal vote counts resolved by the
// party's list order.
type OpenByVotes struct{}

var _ ports.OpenListEvaluator = (*OpenByVotes)(nil)

// NewOpenByVotes returns the votes-ordered open-list evaluator.
func NewOpenByVotes() *OpenByVotes { return &OpenByVotes{} }

// EvaluateList returns the nSeats list candidates with the most
// preferential votes. Candidates without preferential votes count as zero.
func (o *OpenByVotes) EvaluateList(votes domain.SimpleTally, nSeats int, list []domain.Candidate) ([]domain.Candidate, error) {
	listRank := make(map[domain.Candidate]int, len(list))
	for i, cand := range list {
		listRank[cand] = i
	}
	for cand := range votes {
		if _, ok := listRank[cand]; !ok {
			return nil, fmt.Errorf("%w: preferential vote for %q who is not on the list", domain.ErrInputShape, cand)
		}
	}
	ordered := append([]domain.Candidate(nil), list...)
	zero := domain.Rat(0)
	sort.SliceStable(ordered, func(i, j int) bool {
		vi, vj := zero, zero
		if v, ok := votes[ordered[i]]; ok {
			vi = v
		}
		if v, ok := votes[ordered[j]]; ok {
			vj = v
		}
		if cmp := vi.Cmp(vj); cmp != 0 {
			return cmp > 0
		}
		return listRank[ordered[i]] < listRank[ordered[j]]
	})
	if nSeats > len(ordered) {
		nSeats = len(ordered)
	}
	return ordered[:nSeats], nil
}
