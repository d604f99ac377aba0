package evaluate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-psephos/internal/domain"
)

func TestClosedPartyList(t *testing.T) {
	pl, err := NewPartyList(dHondtHA(t))
	require.NoError(t, err)

	votes := PartyListVotes{
		Party: domain.NewSimpleTally(map[domain.Candidate]int64{"P": 100, "Q": 40}),
		Lists: map[domain.Candidate][]domain.Candidate{
			"P": {"p1", "p2", "p3"},
			"Q": {"q1", "q2"},
		},
	}
	got, err := pl.Evaluate(votes, 3, domain.Constraints{})
	require.NoError(t, err)
	assert.Equal(t, map[domain.Candidate][]domain.Candidate{
		"P": {"p1", "p2"},
		"Q": {"q1"},
	}, got)
}

func TestClosedPartyListTruncatesToListLength(t *testing.T) {
	pl, err := NewPartyList(dHondtHA(t))
	require.NoError(t, err)

	votes := PartyListVotes{
		Party: domain.NewSimpleTally(map[domain.Candidate]int64{"P": 100, "Q": 40}),
		Lists: map[domain.Candidate][]domain.Candidate{
			"P": {"p1"},
			"Q": {"q1", "q2"},
		},
	}
	got, err := pl.Evaluate(votes, 3, domain.Constraints{})
	require.NoError(t, err)
	assert.Equal(t, []domain.Candidate{"p1"}, got["P"], "a short list forfeits its extra seat")
}

func TestPartyListMissingList(t *testing.T) {
	pl, err := NewPartyList(dHondtHA(t))
	require.NoError(t, err)

	votes := PartyListVotes{
		Party: domain.NewSimpleTally(map[domain.Candidate]int64{"P": 100}),
		Lists: map[domain.Candidate][]domain.Candidate{},
	}
	_, err = pl.Evaluate(votes, 1, domain.Constraints{})
	require.ErrorIs(t, err, domain.ErrInputShape)
}

func TestPartyListDistributionTie(t *testing.T) {
	pl, err := NewPartyList(dHondtHA(t))
	require.NoError(t, err)

	votes := PartyListVotes{
		Party: domain.NewSimpleTally(map[domain.Candidate]int64{"P": 50, "Q": 50}),
		Lists: map[domain.Candidate][]domain.Candidate{"P": {"p1"}, "Q": {"q1"}},
	}
	_, err = pl.Evaluate(votes, 1, domain.Constraints{})
	require.ErrorIs(t, err, domain.ErrUnresolvableTie)
}

func TestOpenPartyList(t *testing.T) {
	pl, err := NewOpenPartyList(dHondtHA(t), NewOpenByVotes())
	require.NoError(t, err)

	votes := PartyListVotes{
		Party: domain.NewSimpleTally(map[domain.Candidate]int64{"P": 100}),
		Lists: map[domain.Candidate][]domain.Candidate{"P": {"p1", "p2", "p3"}},
		ListVotes: map[domain.Candidate]domain.SimpleTally{
			"P": domain.NewSimpleTally(map[domain.Candidate]int64{"p1": 5, "p2": 30, "p3": 5}),
		},
	}
	got, err := pl.Evaluate(votes, 2, domain.Constraints{})
	require.NoError(t, err)
	// p2 leads on preferential votes; p1 beats p3 by list order.
	assert.Equal(t, []domain.Candidate{"p2", "p1"}, got["P"])
}

func TestOpenByVotesRejectsOffListVotes(t *testing.T) {
	votes := domain.NewSimpleTally(map[domain.Candidate]int64{"x": 1})
	_, err := NewOpenByVotes().EvaluateList(votes, 1, []domain.Candidate{"p1"})
	require.ErrorIs(t, err, domain.ErrInputShape)
}

func TestOpenByVotesWithoutPreferentialVotes(t *testing.T) {
	got, err := NewOpenByVotes().EvaluateList(nil, 2, []domain.Candidate{"p1", "p2", "p3"})
	require.NoError(t, err)
	assert.Equal(t, []domain.Candidate{"p1", "p2"}, got, "list order decides without votes")
}
