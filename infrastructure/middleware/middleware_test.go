package middleware

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/ahrav/go-psephos/infrastructure/evaluate"
	"github.com/ahrav/go-psephos/internal/domain"
)

func TestMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	wrapped, err := NewMetrics[domain.SimpleTally, domain.Selection](evaluate.NewPlurality(), "plurality", reg)
	require.NoError(t, err)

	clean := domain.NewSimpleTally(map[domain.Candidate]int64{"A": 3, "B": 1})
	tied := domain.NewSimpleTally(map[domain.Candidate]int64{"A": 2, "B": 2})

	_, err = wrapped.Evaluate(clean, 1, domain.Constraints{})
	require.NoError(t, err)
	_, err = wrapped.Evaluate(clean, 1, domain.Constraints{})
	require.NoError(t, err)
	_, err = wrapped.Evaluate(tied, 1, domain.Constraints{})
	require.NoError(t, err)

	assert.InDelta(t, 2, testutil.ToFloat64(wrapped.evaluations.WithLabelValues("ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(wrapped.evaluations.WithLabelValues("tie")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(wrapped.evaluations.WithLabelValues("error")), 0)
}

func TestMetricsCountsErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	prio, err := evaluate.NewPrioritySelector([]domain.Candidate{"A"})
	require.NoError(t, err)
	wrapped, err := NewMetrics[domain.SimpleTally, domain.Selection](prio, "priority", reg)
	require.NoError(t, err)

	votes := domain.NewSimpleTally(map[domain.Candidate]int64{"Z": 1})
	_, err = wrapped.Evaluate(votes, 1, domain.Constraints{})
	require.Error(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(wrapped.evaluations.WithLabelValues("error")), 0)
}

func TestMetricsRequiresRegisterer(t *testing.T) {
	_, err := NewMetrics[domain.SimpleTally, domain.Selection](evaluate.NewPlurality(), "plurality", nil)
	require.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestRateLimited(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(time.Hour), 2)
	wrapped, err := NewRateLimited[domain.SimpleTally, domain.Selection](evaluate.NewPlurality(), limiter)
	require.NoError(t, err)

	votes := domain.NewSimpleTally(map[domain.Candidate]int64{"A": 3, "B": 1})
	for i := 0; i < 2; i++ {
		_, err := wrapped.Evaluate(votes, 1, domain.Constraints{})
		require.NoError(t, err)
	}
	_, err = wrapped.Evaluate(votes, 1, domain.Constraints{})
	require.ErrorIs(t, err, ErrRateLimited)
}

func TestRateLimitedRequiresLimiter(t *testing.T) {
	_, err := NewRateLimited[domain.SimpleTally, domain.Selection](evaluate.NewPlurality(), nil)
	require.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestTracingIsTransparent(t *testing.T) {
	wrapped := NewTracing[domain.SimpleTally, domain.Selection](evaluate.NewPlurality(), "plurality")

	votes := domain.NewSimpleTally(map[domain.Candidate]int64{"A": 3, "B": 1})
	got, err := wrapped.Evaluate(votes, 1, domain.Constraints{})
	require.NoError(t, err)
	assert.Equal(t, domain.Selection{domain.Elected("A")}, got)
	assert.True(t, wrapped.Capabilities().Seats)
}
