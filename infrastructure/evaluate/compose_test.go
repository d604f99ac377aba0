package evaluate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-psephos/infrastructure/divisor"
	"github.com/ahrav/go-psephos/infrastructure/quota"
	"github.com/ahrav/go-psephos/internal/domain"
)

func TestFixedSeatCountIsTransparent(t *testing.T) {
	votes := domain.NewSimpleTally(map[domain.Candidate]int64{"A": 5, "B": 3, "C": 1})
	plurality := NewPlurality()

	fixed, err := NewFixedSeatCount[domain.SimpleTally, domain.Selection](plurality, 2)
	require.NoError(t, err)

	want, err := plurality.Evaluate(votes, 2, domain.Constraints{})
	require.NoError(t, err)
	got, err := fixed.Evaluate(votes, 99, domain.Constraints{})
	require.NoError(t, err)
	assert.Equal(t, want, got)

	assert.False(t, fixed.Capabilities().Seats, "seat awareness is masked off")
}

func TestFixedSeatCountRejectsSeatlessInner(t *testing.T) {
	threshold, err := NewAbsoluteThreshold(domain.Rat(1), true)
	require.NoError(t, err)

	_, err = NewFixedSeatCount[domain.SimpleTally, []domain.Candidate](threshold, 3)
	require.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestPreConverted(t *testing.T) {
	conv := func(counts map[domain.Candidate]int64) (domain.SimpleTally, error) {
		return domain.NewSimpleTally(counts), nil
	}
	wrapped, err := NewPreConverted[map[domain.Candidate]int64, domain.SimpleTally, domain.Selection](conv, NewPlurality())
	require.NoError(t, err)

	got, err := wrapped.Evaluate(map[domain.Candidate]int64{"A": 3, "B": 1}, 1, domain.Constraints{})
	require.NoError(t, err)
	assert.Equal(t, domain.Selection{domain.Elected("A")}, got)
}

func TestPostConverted(t *testing.T) {
	wrapped, err := NewPostConverted[domain.SimpleTally, domain.Selection, []domain.Candidate](
		NewPlurality(),
		func(sel domain.Selection) ([]domain.Candidate, error) { return sel.Candidates() },
	)
	require.NoError(t, err)

	votes := domain.NewSimpleTally(map[domain.Candidate]int64{"A": 3, "B": 1})
	got, err := wrapped.Evaluate(votes, 2, domain.Constraints{})
	require.NoError(t, err)
	assert.Equal(t, []domain.Candidate{"A", "B"}, got)
}

func TestConditionedThresholdBeforeDistribution(t *testing.T) {
	hare, _ := quota.Get("hare")
	lr, err := NewLargestRemainder(hare)
	require.NoError(t, err)
	hurdle, err := NewRelativeThreshold(domain.RatFrac(1, 20), false)
	require.NoError(t, err)

	conditioned, err := NewConditioned[domain.SimpleTally, domain.Distribution](hurdle, lr, SubsetSimple)
	require.NoError(t, err)

	// D sits exactly on the 5% hurdle and is excluded; the quota is then
	// computed over the surviving 950 votes.
	votes := domain.NewSimpleTally(map[domain.Candidate]int64{"A": 450, "B": 350, "C": 150, "D": 50})
	got, err := conditioned.Evaluate(votes, 10, domain.Constraints{})
	require.NoError(t, err)
	assert.Equal(t, map[domain.Candidate]int{"A": 5, "B": 4, "C": 1}, got.Seats)
}

func TestTieBreakingSelection(t *testing.T) {
	prio, err := NewPrioritySelector([]domain.Candidate{"C", "B", "A"})
	require.NoError(t, err)
	tb, err := NewTieBreaking[domain.SimpleTally, domain.Selection](NewPlurality(), prio, SubsetSimple)
	require.NoError(t, err)

	votes := domain.NewSimpleTally(map[domain.Candidate]int64{"A": 3, "B": 2, "C": 2})
	got, err := tb.Evaluate(votes, 2, domain.Constraints{})
	require.NoError(t, err)
	assert.Equal(t, domain.Selection{domain.Elected("A"), domain.Elected("C")}, got)
}

func TestTieBreakingSelectionMultipleContestedSeats(t *testing.T) {
	prio, err := NewPrioritySelector([]domain.Candidate{"A", "B", "C"})
	require.NoError(t, err)
	tb, err := NewTieBreaking[domain.SimpleTally, domain.Selection](NewPlurality(), prio, SubsetSimple)
	require.NoError(t, err)

	// A three-way tie contests both seats; the breaker ranks A before B.
	votes := domain.NewSimpleTally(map[domain.Candidate]int64{"A": 2, "B": 2, "C": 2})
	got, err := tb.Evaluate(votes, 2, domain.Constraints{})
	require.NoError(t, err)
	assert.Equal(t, domain.Selection{domain.Elected("A"), domain.Elected("B")}, got)
}

func TestTieBreakingDistribution(t *testing.T) {
	fn, _ := divisor.Get("d_hondt")
	ha, err := NewHighestAverages(fn)
	require.NoError(t, err)
	prio, err := NewPrioritySelector([]domain.Candidate{"B", "A"})
	require.NoError(t, err)
	tb, err := NewTieBreaking[domain.SimpleTally, domain.Distribution](ha, prio, SubsetSimple)
	require.NoError(t, err)

	votes := domain.NewSimpleTally(map[domain.Candidate]int64{"A": 2, "B": 2})
	got, err := tb.Evaluate(votes, 1, domain.Constraints{})
	require.NoError(t, err)
	assert.False(t, got.HasTie())
	assert.Equal(t, map[domain.Candidate]int{"B": 1}, got.Seats)
}

func TestTieBreakingRejectsUnbreakableResultShape(t *testing.T) {
	threshold, err := NewAbsoluteThreshold(domain.Rat(1), true)
	require.NoError(t, err)
	prio, err := NewPrioritySelector([]domain.Candidate{"A"})
	require.NoError(t, err)

	_, err = NewTieBreaking[domain.SimpleTally, []domain.Candidate](threshold, prio, SubsetSimple)
	require.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestSubsetRanked(t *testing.T) {
	votes := domain.RankedTally{
		{Ranking: domain.NewRanking("A", "B", "C"), Count: domain.Rat(2)},
		{Ranking: domain.Ranking{domain.Rank{"B", "C"}, domain.Rank{"A"}}, Count: domain.Rat(1)},
		{Ranking: domain.NewRanking("B"), Count: domain.Rat(3)},
	}

	got, err := SubsetRanked(votes, []domain.Candidate{"A", "C"})
	require.NoError(t, err)
	require.Len(t, got, 2, "the B-only ballot disappears")
	assert.Equal(t, domain.NewRanking("A", "C"), got[0].Ranking)
	assert.Equal(t, domain.Ranking{domain.Rank{"C"}, domain.Rank{"A"}}, got[1].Ranking)
}
