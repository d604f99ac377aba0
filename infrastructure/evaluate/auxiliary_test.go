package evaluate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-psephos/internal/domain"
)

func TestPrioritySelector(t *testing.T) {
	sel, err := NewPrioritySelector([]domain.Candidate{"C", "A", "B"})
	require.NoError(t, err)

	votes := domain.NewSimpleTally(map[domain.Candidate]int64{"A": 100, "B": 1, "C": 0})
	got, err := sel.Evaluate(votes, 2, domain.Constraints{})
	require.NoError(t, err)
	assert.Equal(t, domain.Selection{domain.Elected("C"), domain.Elected("A")}, got)
}

func TestPrioritySelectorUnknownCandidate(t *testing.T) {
	sel, err := NewPrioritySelector([]domain.Candidate{"A"})
	require.NoError(t, err)

	votes := domain.NewSimpleTally(map[domain.Candidate]int64{"A": 1, "Z": 1})
	_, err = sel.Evaluate(votes, 1, domain.Constraints{})
	require.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestPrioritySelectorValidation(t *testing.T) {
	_, err := NewPrioritySelector(nil)
	require.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = NewPrioritySelector([]domain.Candidate{"A", "A"})
	require.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestSortitorSeededIsReproducible(t *testing.T) {
	votes := domain.NewSimpleTally(map[domain.Candidate]int64{"A": 10, "B": 20, "C": 30, "D": 40})

	first, err := NewSortitor(42).Evaluate(votes, 2, domain.Constraints{})
	require.NoError(t, err)
	second, err := NewSortitor(42).Evaluate(votes, 2, domain.Constraints{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSortitorDrawsDistinctCandidates(t *testing.T) {
	votes := domain.NewSimpleTally(map[domain.Candidate]int64{"A": 1, "B": 1, "C": 1})

	got, err := NewSortitor(7).Evaluate(votes, 3, domain.Constraints{})
	require.NoError(t, err)
	cands, err := got.Candidates()
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.Candidate{"A", "B", "C"}, cands)
}

func TestSortitorZeroTotal(t *testing.T) {
	votes := domain.NewSimpleTally(map[domain.Candidate]int64{"A": 0, "B": 0})

	_, err := NewSortitor(1).Evaluate(votes, 1, domain.Constraints{})
	require.ErrorIs(t, err, domain.ErrInputShape)
}
