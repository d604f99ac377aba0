package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-psephos/internal/domain"
)

func TestBuildPlurality(t *testing.T) {
	sys, err := Build(SystemConfig{Kind: "plurality", Seats: 1})
	require.NoError(t, err)
	require.NotNil(t, sys.Selector)

	votes := domain.NewSimpleTally(map[domain.Candidate]int64{"A": 3, "B": 1})
	got, err := sys.Selector.Evaluate(votes, sys.Config.Seats, domain.Constraints{})
	require.NoError(t, err)
	assert.Equal(t, domain.Selection{domain.Elected("A")}, got)
}

func TestBuildPluralityWithThresholdAndTiebreak(t *testing.T) {
	sys, err := Build(SystemConfig{
		Kind:             "plurality",
		Seats:            2,
		Threshold:        &ThresholdConfig{Ratio: "1/10"},
		TiebreakPriority: []string{"C", "B"},
	})
	require.NoError(t, err)

	// A leads, B and C tie for the second seat, D falls under the 10%
	// hurdle; the priority list hands the contested seat to C.
	votes := domain.NewSimpleTally(map[domain.Candidate]int64{"A": 5, "B": 2, "C": 2, "D": 1})
	got, err := sys.Selector.Evaluate(votes, 2, domain.Constraints{})
	require.NoError(t, err)
	assert.Equal(t, domain.Selection{domain.Elected("A"), domain.Elected("C")}, got)
}

func TestBuildLargestRemainder(t *testing.T) {
	sys, err := Build(SystemConfig{Kind: "largest_remainder", Seats: 10, Quota: "hare"})
	require.NoError(t, err)
	require.NotNil(t, sys.Distributor)

	votes := domain.NewSimpleTally(map[domain.Candidate]int64{
		"A": 47000, "B": 16000, "C": 15800, "D": 12000, "E": 6100, "F": 3100,
	})
	got, err := sys.Distributor.Evaluate(votes, 10, domain.Constraints{})
	require.NoError(t, err)
	assert.Equal(t, map[domain.Candidate]int{"A": 5, "B": 2, "C": 1, "D": 1, "E": 1}, got.Seats)
}

func TestBuildLargestRemainderRequiresQuota(t *testing.T) {
	_, err := Build(SystemConfig{Kind: "largest_remainder", Seats: 10})
	require.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestBuildHighestAverages(t *testing.T) {
	sys, err := Build(SystemConfig{Kind: "highest_averages", Seats: 8, Divisor: "D-Hondt"})
	require.NoError(t, err)

	votes := domain.NewSimpleTally(map[domain.Candidate]int64{"A": 100, "B": 80, "C": 30, "D": 20})
	got, err := sys.Distributor.Evaluate(votes, 8, domain.Constraints{})
	require.NoError(t, err)
	assert.Equal(t, map[domain.Candidate]int{"A": 4, "B": 3, "C": 1}, got.Seats)
}

func TestBuildTransferableVote(t *testing.T) {
	sys, err := Build(SystemConfig{Kind: "transferable_vote", Seats: 3, Quota: "droop", Transfer: "gregory"})
	require.NoError(t, err)
	require.NotNil(t, sys.RankedSelector)

	tally := domain.RankedTally{
		{Ranking: domain.NewRanking("Orange"), Count: domain.Rat(4)},
		{Ranking: domain.NewRanking("Pear", "Orange"), Count: domain.Rat(2)},
		{Ranking: domain.NewRanking("Chocolate", "Strawberry"), Count: domain.Rat(8)},
		{Ranking: domain.NewRanking("Chocolate", "Burger"), Count: domain.Rat(4)},
		{Ranking: domain.NewRanking("Strawberry"), Count: domain.Rat(1)},
		{Ranking: domain.NewRanking("Burger"), Count: domain.Rat(1)},
	}
	got, err := sys.RankedSelector.Evaluate(tally, 3, domain.Constraints{})
	require.NoError(t, err)
	cands, err := got.Candidates()
	require.NoError(t, err)
	assert.Equal(t, []domain.Candidate{"Chocolate", "Orange", "Strawberry"}, cands)
}

func TestBuildTransferableVoteTiebreakRetainer(t *testing.T) {
	sys, err := Build(SystemConfig{
		Kind:             "transferable_vote",
		Seats:            1,
		Quota:            "droop",
		Transfer:         "gregory",
		TiebreakPriority: []string{"A", "B", "C"},
	})
	require.NoError(t, err)

	// Without the priority list the A/B elimination tie would be fatal.
	tally := domain.RankedTally{
		{Ranking: domain.NewRanking("A", "C"), Count: domain.Rat(2)},
		{Ranking: domain.NewRanking("B", "C"), Count: domain.Rat(2)},
		{Ranking: domain.NewRanking("C"), Count: domain.Rat(3)},
	}
	got, err := sys.RankedSelector.Evaluate(tally, 1, domain.Constraints{})
	require.NoError(t, err)
	cands, err := got.Candidates()
	require.NoError(t, err)
	assert.Equal(t, []domain.Candidate{"C"}, cands)
}

func TestBuildTransferableVoteRequiresTransfer(t *testing.T) {
	_, err := Build(SystemConfig{Kind: "transferable_vote", Seats: 1, Quota: "droop"})
	require.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestBuildBiproportional(t *testing.T) {
	sys, err := Build(SystemConfig{Kind: "biproportional", Seats: 20, Divisor: "sainte_lague"})
	require.NoError(t, err)
	require.NotNil(t, sys.Grid)

	votes := domain.ConstituencyTally{
		"I":   domain.NewSimpleTally(map[domain.Candidate]int64{"A": 123, "B": 912, "C": 312}),
		"II":  domain.NewSimpleTally(map[domain.Candidate]int64{"A": 45, "B": 714, "C": 255}),
		"III": domain.NewSimpleTally(map[domain.Candidate]int64{"A": 815, "B": 414, "C": 15}),
	}
	got, err := sys.Grid.Evaluate(votes, 20, domain.Constraints{})
	require.NoError(t, err)
	assert.Equal(t, map[domain.Candidate]int{"A": 1, "B": 5, "C": 1}, got["I"].Seats)
}

func TestBuildBiproportionalDistrictSeats(t *testing.T) {
	sys, err := Build(SystemConfig{
		Kind:          "biproportional",
		Seats:         5,
		Divisor:       "sainte_lague",
		DistrictSeats: map[string]int{"X": 3, "Y": 2},
	})
	require.NoError(t, err)

	votes := domain.ConstituencyTally{
		"X": domain.NewSimpleTally(map[domain.Candidate]int64{"P": 100, "Q": 50}),
		"Y": domain.NewSimpleTally(map[domain.Candidate]int64{"P": 10, "Q": 80}),
	}
	got, err := sys.Grid.Evaluate(votes, 5, domain.Constraints{})
	require.NoError(t, err)
	assert.Equal(t, map[domain.Candidate]int{"P": 2, "Q": 1}, got["X"].Seats)
}

func TestBuildBiproportionalRequiresSignpost(t *testing.T) {
	// Huntington-Hill has no established signpost and none is supplied.
	_, err := Build(SystemConfig{Kind: "biproportional", Seats: 10, Divisor: "huntington_hill"})
	require.ErrorIs(t, err, domain.ErrConfiguration)

	// An explicit one fixes it.
	_, err = Build(SystemConfig{Kind: "biproportional", Seats: 10, Divisor: "huntington_hill", Signpost: "1/2"})
	require.NoError(t, err)
}

func TestBuildSuggestsCloseNames(t *testing.T) {
	_, err := Build(SystemConfig{Kind: "largest_remainder", Seats: 10, Quota: "drop"})
	require.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Contains(t, err.Error(), "did you mean")
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	_, err := Build(SystemConfig{Kind: "approval", Seats: 1})
	require.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = Build(SystemConfig{Kind: "plurality", Seats: 0})
	require.ErrorIs(t, err, domain.ErrConfiguration)
}
