package aersave

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarioS5RoundTrip mirrors the spec's worked example: a mod writes
// a scalar during game-save, the store is serialized, and a "fresh
// process" (a new Store loaded from that same map) reads back an equal
// value during game-load.
func TestScenarioS5RoundTrip(t *testing.T) {
	save := New()
	save.Write("modA", "runs", Scalar{Float: 3.0})

	serialized := save.BuildSerializationMap()

	load := New()
	require.NoError(t, load.LoadFromSerializationMap(map[string]any{"mod": serialized}))

	v, err := load.Read("modA", "runs")
	require.NoError(t, err)
	assert.False(t, v.IsString)
	assert.Equal(t, 3.0, v.Float)
}

func TestRoundTripPreservesStrings(t *testing.T) {
	save := New()
	save.Write("modA", "name", Scalar{IsString: true, Str: "hello"})

	serialized := save.BuildSerializationMap()
	load := New()
	require.NoError(t, load.LoadFromSerializationMap(map[string]any{"mod": serialized}))

	v, err := load.Read("modA", "name")
	require.NoError(t, err)
	assert.True(t, v.IsString)
	assert.Equal(t, "hello", v.Str)
}

func TestBuildSerializationMapIsDeterministic(t *testing.T) {
	save := New()
	save.Write("modB", "z", Scalar{Float: 1})
	save.Write("modB", "a", Scalar{Float: 2})
	save.Write("modA", "x", Scalar{Float: 3})

	m1 := save.BuildSerializationMap()
	m2 := save.BuildSerializationMap()
	assert.Equal(t, m1, m2)
}

func TestReadMissingKeyFails(t *testing.T) {
	save := New()
	_, err := save.Read("modA", "missing")
	require.Error(t, err)
}

func TestLoadFromSerializationMapWithNoModSubmap(t *testing.T) {
	save := New()
	save.Write("modA", "x", Scalar{Float: 1})
	require.NoError(t, save.LoadFromSerializationMap(map[string]any{}))

	_, err := save.Read("modA", "x")
	require.Error(t, err, "loading an empty serialization map clears prior state")
}

func TestLoadFromSerializationMapRejectsBadShape(t *testing.T) {
	save := New()
	err := save.LoadFromSerializationMap(map[string]any{"mod": "not-a-map"})
	require.Error(t, err)
}
