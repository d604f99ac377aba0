package application

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-psephos/infrastructure/evaluate"
	"github.com/ahrav/go-psephos/internal/domain"
)

func TestBatchRunnerPreservesInputOrder(t *testing.T) {
	runner, err := NewBatchRunner[domain.SimpleTally, domain.Selection](evaluate.NewPlurality(), 4)
	require.NoError(t, err)

	inputs := make([]BatchInput[domain.SimpleTally], 50)
	for i := range inputs {
		winner := domain.Candidate(fmt.Sprintf("w%02d", i))
		inputs[i] = BatchInput[domain.SimpleTally]{
			Votes: domain.SimpleTally{winner: domain.Rat(10), "loser": domain.Rat(1)},
			Seats: 1,
		}
	}

	results, err := runner.Run(context.Background(), inputs)
	require.NoError(t, err)
	require.Len(t, results, len(inputs))
	for i, sel := range results {
		assert.Equal(t, domain.Selection{domain.Elected(domain.Candidate(fmt.Sprintf("w%02d", i)))}, sel)
	}
}

func TestBatchRunnerReportsFailingInput(t *testing.T) {
	prio, err := evaluate.NewPrioritySelector([]domain.Candidate{"A"})
	require.NoError(t, err)
	runner, err := NewBatchRunner[domain.SimpleTally, domain.Selection](prio, 2)
	require.NoError(t, err)

	inputs := []BatchInput[domain.SimpleTally]{
		{Votes: domain.SimpleTally{"A": domain.Rat(1)}, Seats: 1},
		{Votes: domain.SimpleTally{"Z": domain.Rat(1)}, Seats: 1},
	}
	_, err = runner.Run(context.Background(), inputs)
	require.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Contains(t, err.Error(), "input 1")
}

func TestBatchRunnerValidation(t *testing.T) {
	_, err := NewBatchRunner[domain.SimpleTally, domain.Selection](evaluate.NewPlurality(), 0)
	require.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestBatchRunnerEmptyBatch(t *testing.T) {
	runner, err := NewBatchRunner[domain.SimpleTally, domain.Selection](evaluate.NewPlurality(), 1)
	require.NoError(t, err)

	results, err := runner.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}
