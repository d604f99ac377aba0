package quota

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-psephos/internal/domain"
)

func TestQuotaValues(t *testing.T) {
	votes := domain.Rat(100)

	tests := []struct {
		name  string
		seats int
		want  *big.Rat
	}{
		{"hare", 3, domain.RatFrac(100, 3)},
		{"hare_rounded", 3, domain.Rat(33)},
		{"droop", 3, domain.Rat(26)},
		{"hagenbach_bischoff", 3, domain.Rat(25)},
		{"hagenbach_bischoff_ceil", 3, domain.Rat(25)},
		{"hagenbach_bischoff_rounded", 3, domain.Rat(25)},
		{"imperiali", 3, domain.Rat(20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, ok := Get(tt.name)
			require.True(t, ok)
			assert.Zero(t, fn(votes, tt.seats).Cmp(tt.want), "want %s", tt.want.RatString())
		})
	}
}

func TestDroopVsHagenbachBischoffCeil(t *testing.T) {
	droop, _ := Get("droop")
	hbCeil, _ := Get("hagenbach_bischoff_ceil")

	// They differ exactly when votes/(seats+1) is whole.
	whole := domain.Rat(100)
	assert.Zero(t, droop(whole, 3).Cmp(domain.Rat(26)))
	assert.Zero(t, hbCeil(whole, 3).Cmp(domain.Rat(25)))

	frac := domain.Rat(101)
	assert.Zero(t, droop(frac, 3).Cmp(hbCeil(frac, 3)))
}

func TestConstant(t *testing.T) {
	fn := Constant(domain.Rat(42))
	assert.Zero(t, fn(domain.Rat(1000), 7).Cmp(domain.Rat(42)))
}

func TestRegistry(t *testing.T) {
	_, ok := Get("no_such_quota")
	assert.False(t, ok)

	names := Names()
	require.NotEmpty(t, names)
	assert.Contains(t, names, "droop")
	assert.IsIncreasing(t, names)
}
