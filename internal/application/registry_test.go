package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-psephos/internal/domain"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"droop", "droop"},
		{"Droop", "droop"},
		{"  DROOP ", "droop"},
		{"D'Hondt", "d'hondt"},
		{"sainte lague", "sainte_lague"},
		{"Sainte-Lague", "sainte_lague"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeName(tt.in), tt.in)
	}
}

func TestResolveQuotaCaseInsensitive(t *testing.T) {
	fn, err := resolveQuota("Hagenbach-Bischoff")
	require.NoError(t, err)
	assert.Zero(t, fn(domain.Rat(100), 3).Cmp(domain.Rat(25)))
}

func TestResolveQuotaSuggestsClosestName(t *testing.T) {
	_, err := resolveQuota("drop")
	require.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Contains(t, err.Error(), `did you mean "droop"`)
}

func TestResolveDivisor(t *testing.T) {
	entry, err := resolveDivisor("Sainte-Lague")
	require.NoError(t, err)
	require.NotNil(t, entry.Signpost)
	assert.Zero(t, entry.Signpost.Cmp(domain.RatFrac(1, 2)))

	_, err = resolveDivisor("dhont")
	require.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Contains(t, err.Error(), `did you mean "d_hondt"`)
}

func TestResolveTransfer(t *testing.T) {
	gregory, err := resolveTransfer("Gregory", nil)
	require.NoError(t, err)
	assert.True(t, gregory.Stable())

	seed := int64(7)
	hare, err := resolveTransfer("hare", &seed)
	require.NoError(t, err)
	assert.True(t, hare.Stable())

	unseeded, err := resolveTransfer("hare", nil)
	require.NoError(t, err)
	assert.False(t, unseeded.Stable())

	_, err = resolveTransfer("meek", nil)
	require.ErrorIs(t, err, domain.ErrConfiguration)
}
