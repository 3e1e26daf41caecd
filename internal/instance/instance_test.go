package instance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxbud/aergo/internal/objtree"
)

func TestIsCompatibleWith(t *testing.T) {
	tree := objtree.New()
	tree.Build(map[int32]int32{0: -1, 1: 0, 2: 1})
	m := New(tree, nil)

	assert.True(t, m.IsCompatibleWith(2, 2), "same object is always compatible")
	assert.True(t, m.IsCompatibleWith(2, 1), "direct ancestor")
	assert.True(t, m.IsCompatibleWith(2, 0), "transitive ancestor")
	assert.False(t, m.IsCompatibleWith(1, 2), "descendants are not ancestors")
}

func TestSetModLocalRejectsLongName(t *testing.T) {
	m := New(objtree.New(), nil)
	err := m.SetModLocal(0, 1, "this-name-is-definitely-longer-than-24-chars", false, Value{}, nil)
	require.Error(t, err)
}

func TestModLocalPrivateNamespaceIsIsolated(t *testing.T) {
	m := New(objtree.New(), nil)
	require.NoError(t, m.SetModLocal(0, 1, "hp", false, Value{Int: 10}, nil))
	require.NoError(t, m.SetModLocal(1, 1, "hp", false, Value{Int: 20}, nil))

	v0, err := m.GetModLocal(0, 1, "hp", false)
	require.NoError(t, err)
	assert.Equal(t, int64(10), v0.Int)

	v1, err := m.GetModLocal(1, 1, "hp", false)
	require.NoError(t, err)
	assert.Equal(t, int64(20), v1.Int)
}

func TestModLocalPublicNamespaceIsShared(t *testing.T) {
	m := New(objtree.New(), nil)
	require.NoError(t, m.SetModLocal(0, 1, "score", true, Value{Int: 5}, nil))

	v, err := m.GetModLocal(1, 1, "score", true)
	require.NoError(t, err)
	assert.Equal(t, int64(5), v.Int)
}

// TestScenarioS4PruneRunsDestructorOnce mirrors the spec's worked example:
// a private mod-local is created, the instance then "vanishes" (the
// resolver starts returning false), and pruning must invoke the
// destructor exactly once and afterward report failed-lookup on read.
func TestScenarioS4PruneRunsDestructorOnce(t *testing.T) {
	alive := map[int32]bool{1: true}
	m := New(objtree.New(), func(instID int32) bool { return alive[instID] })

	destructorCalls := 0
	require.NoError(t, m.SetModLocal(0, 1, "hp", false, Value{Int: 100}, func(instID int32, v Value) {
		destructorCalls++
	}))

	pruned := m.PruneOrphans()
	assert.Zero(t, pruned, "instance is still alive, nothing should be pruned yet")

	delete(alive, 1)
	pruned = m.PruneOrphans()
	assert.Equal(t, 1, pruned)
	assert.Equal(t, 1, destructorCalls)

	_, err := m.GetModLocal(0, 1, "hp", false)
	require.Error(t, err)
}

func TestDeleteModLocalSkipDestructor(t *testing.T) {
	m := New(objtree.New(), nil)
	called := false
	require.NoError(t, m.SetModLocal(0, 1, "x", false, Value{}, func(int32, Value) { called = true }))
	require.NoError(t, m.DeleteModLocal(0, 1, "x", false, true))
	assert.False(t, called)
}

func TestVMLocalIndexLookup(t *testing.T) {
	m := New(objtree.New(), nil)
	m.BuildVMLocalNames(map[string]int32{"x": 0, "y": 1})

	idx, err := m.VMLocalIndex("y")
	require.NoError(t, err)
	assert.Equal(t, int32(1), idx)

	_, err = m.VMLocalIndex("missing")
	require.Error(t, err)
}
