package aerconf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTOML = `
[mre]
mods = ["modA", "modB"]
promoteUnhandledErrors = true

[modA]
enabled = true
maxEnemies = 7
spawnRate = 0.5
label = "hello"
weights = [1.0, 2.5, 3.0]
`

func TestModsAndPromoteFlag(t *testing.T) {
	r, err := NewFromBytes([]byte(sampleTOML))
	require.NoError(t, err)

	assert.Equal(t, []string{"modA", "modB"}, r.Mods())
	assert.True(t, r.PromoteUnhandledErrors())
}

// TestRoundTripInvariant7 asserts invariant 7: a value written under
// <mod-name>.K in TOML is exactly what the typed reader returns for K.
func TestRoundTripInvariant7(t *testing.T) {
	r, err := NewFromBytes([]byte(sampleTOML))
	require.NoError(t, err)

	b, err := r.GetBool("modA", "enabled")
	require.NoError(t, err)
	assert.True(t, b)

	i, err := r.GetInt("modA", "maxEnemies")
	require.NoError(t, err)
	assert.Equal(t, int64(7), i)

	f, err := r.GetDouble("modA", "spawnRate")
	require.NoError(t, err)
	assert.Equal(t, 0.5, f)

	s, err := r.GetString("modA", "label")
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
}

func TestArraySizeProbeThenRead(t *testing.T) {
	r, err := NewFromBytes([]byte(sampleTOML))
	require.NoError(t, err)

	n, err := r.ArraySize("modA", "weights")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	buf := make([]float64, n)
	count, err := r.GetDoubleArray("modA", "weights", buf)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, []float64{1.0, 2.5, 3.0}, buf)
}

func TestGetMissingKeyFails(t *testing.T) {
	r, err := NewFromBytes([]byte(sampleTOML))
	require.NoError(t, err)

	_, err = r.GetString("modA", "missing")
	require.Error(t, err)
}
