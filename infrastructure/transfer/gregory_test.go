package transfer

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-psephos/internal/domain"
)

func seedAllocation(tally domain.RankedTally) domain.Allocation {
	alloc := domain.NewAllocation(tally)
	for _, cand := range tally.Candidates() {
		alloc.Held[cand] = map[int]*big.Rat{}
	}
	for idx, ballot := range tally {
		alloc.Credit(ballot.Ranking[0][0], idx, ballot.Count)
	}
	return alloc
}

func TestGregorySubtractReducesProportionally(t *testing.T) {
	tally := domain.RankedTally{
		{Ranking: domain.NewRanking("A", "B"), Count: domain.Rat(8)},
		{Ranking: domain.NewRanking("A", "C"), Count: domain.Rat(4)},
	}
	alloc := seedAllocation(tally)
	g := NewGregory()

	// Consuming 6 of 12 held votes halves every ballot.
	out, err := g.Subtract(alloc, map[domain.Candidate]*big.Rat{"A": domain.Rat(6)})
	require.NoError(t, err)
	assert.Zero(t, out.Held["A"][0].Cmp(domain.Rat(4)))
	assert.Zero(t, out.Held["A"][1].Cmp(domain.Rat(2)))

	// The input allocation is untouched.
	assert.Zero(t, alloc.Held["A"][0].Cmp(domain.Rat(8)))
}

func TestGregorySubtractConsumesEverythingAtOrOverTotal(t *testing.T) {
	tally := domain.RankedTally{
		{Ranking: domain.NewRanking("A", "B"), Count: domain.Rat(5)},
	}
	alloc := seedAllocation(tally)

	out, err := NewGregory().Subtract(alloc, map[domain.Candidate]*big.Rat{"A": domain.Rat(5)})
	require.NoError(t, err)
	assert.Empty(t, out.Held["A"])
}

func TestGregorySubtractUnknownCandidate(t *testing.T) {
	alloc := seedAllocation(domain.RankedTally{
		{Ranking: domain.NewRanking("A"), Count: domain.Rat(1)},
	})
	_, err := NewGregory().Subtract(alloc, map[domain.Candidate]*big.Rat{"Z": domain.Rat(1)})
	require.ErrorIs(t, err, domain.ErrInputShape)
}

func TestGregoryTransferSplitsSharedRanksExactly(t *testing.T) {
	tally := domain.RankedTally{
		{Ranking: domain.Ranking{domain.Rank{"A"}, domain.Rank{"B", "C"}}, Count: domain.Rat(3)},
		{Ranking: domain.NewRanking("B"), Count: domain.Rat(1)},
		{Ranking: domain.NewRanking("C"), Count: domain.Rat(1)},
	}
	alloc := seedAllocation(tally)

	out, err := NewGregory().Transfer(alloc, []domain.Candidate{"A"})
	require.NoError(t, err)

	totals := out.Totals()
	assert.Zero(t, totals["B"].Cmp(domain.RatFrac(5, 2)))
	assert.Zero(t, totals["C"].Cmp(domain.RatFrac(5, 2)))
	_, held := out.Held["A"]
	assert.False(t, held, "transferred candidate no longer holds votes")
}

func TestGregoryTransferExhaustsBallotsWithoutPreferences(t *testing.T) {
	tally := domain.RankedTally{
		{Ranking: domain.NewRanking("A"), Count: domain.Rat(2)},
		{Ranking: domain.NewRanking("B"), Count: domain.Rat(1)},
	}
	alloc := seedAllocation(tally)

	out, err := NewGregory().Transfer(alloc, []domain.Candidate{"A"})
	require.NoError(t, err)
	assert.Zero(t, out.Exhausted[0].Cmp(domain.Rat(2)))
	assert.Zero(t, out.TotalWeight().Cmp(domain.Rat(3)), "no weight leaks")
}

func TestGregoryTransferSkipsEliminatedTargets(t *testing.T) {
	// B is already out of the race; A's ballots skip it to C.
	tally := domain.RankedTally{
		{Ranking: domain.NewRanking("A", "B", "C"), Count: domain.Rat(2)},
		{Ranking: domain.NewRanking("C"), Count: domain.Rat(1)},
	}
	alloc := seedAllocation(tally)
	delete(alloc.Held, "B")

	out, err := NewGregory().Transfer(alloc, []domain.Candidate{"A"})
	require.NoError(t, err)
	assert.Zero(t, out.Totals()["C"].Cmp(domain.Rat(3)))
}

func TestGregoryIsStable(t *testing.T) {
	assert.True(t, NewGregory().Stable())
}
