package transfer

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-psephos/internal/domain"
)

func TestHareSubtractDiscardsWholeBallots(t *testing.T) {
	tally := domain.RankedTally{
		{Ranking: domain.NewRanking("A", "B"), Count: domain.Rat(6)},
		{Ranking: domain.NewRanking("A", "C"), Count: domain.Rat(4)},
	}
	alloc := seedAllocation(tally)

	out, err := NewHare(7).Subtract(alloc, map[domain.Candidate]*big.Rat{"A": domain.Rat(3)})
	require.NoError(t, err)

	remaining := new(big.Rat)
	for _, w := range out.Held["A"] {
		assert.True(t, domain.RatIsInt(w), "whole ballots only, got %s", w.RatString())
		remaining.Add(remaining, w)
	}
	assert.Zero(t, remaining.Cmp(domain.Rat(7)), "10 held minus 3 consumed")
}

func TestHareSubtractRejectsFractionalAmount(t *testing.T) {
	alloc := seedAllocation(domain.RankedTally{
		{Ranking: domain.NewRanking("A"), Count: domain.Rat(5)},
	})
	_, err := NewHare(1).Subtract(alloc, map[domain.Candidate]*big.Rat{"A": domain.RatFrac(5, 2)})
	require.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestHareSeededRunsAreReproducible(t *testing.T) {
	tally := domain.RankedTally{
		{Ranking: domain.NewRanking("A", "B"), Count: domain.Rat(9)},
		{Ranking: domain.NewRanking("A", "C"), Count: domain.Rat(7)},
	}
	amounts := map[domain.Candidate]*big.Rat{"A": domain.Rat(5)}

	first, err := NewHare(42).Subtract(seedAllocation(tally), amounts)
	require.NoError(t, err)
	second, err := NewHare(42).Subtract(seedAllocation(tally), amounts)
	require.NoError(t, err)
	assert.True(t, first.Equal(second))
}

func TestHareTransferSplitsSharedRankInWholeParts(t *testing.T) {
	tally := domain.RankedTally{
		{Ranking: domain.Ranking{domain.Rank{"A"}, domain.Rank{"B", "C"}}, Count: domain.Rat(5)},
		{Ranking: domain.NewRanking("B"), Count: domain.Rat(1)},
		{Ranking: domain.NewRanking("C"), Count: domain.Rat(1)},
	}
	alloc := seedAllocation(tally)

	out, err := NewHare(3).Transfer(alloc, []domain.Candidate{"A"})
	require.NoError(t, err)

	totals := out.Totals()
	sum := domain.RatAdd(totals["B"], totals["C"])
	assert.Zero(t, sum.Cmp(domain.Rat(7)), "no weight leaks")
	assert.True(t, domain.RatIsInt(totals["B"]), "whole parts, got %s", totals["B"].RatString())
	assert.True(t, domain.RatIsInt(totals["C"]), "whole parts, got %s", totals["C"].RatString())

	// 5 splits as 2+3 with the odd ballot randomly assigned.
	diff := domain.RatSub(totals["B"], totals["C"])
	assert.Zero(t, new(big.Rat).Abs(diff).Cmp(domain.Rat(1)))
}

func TestHareStability(t *testing.T) {
	assert.True(t, NewHare(1).Stable())
	assert.False(t, NewUnseededHare().Stable())
}
