package modman

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, names ...string) *Manager {
	t.Helper()
	m := New()
	for i, name := range names {
		m.mods = append(m.mods, &Mod{Name: name, Index: int32(i)})
		m.byName[name] = int32(i)
	}
	return m
}

func TestContextStackPushPop(t *testing.T) {
	m := newTestManager(t, "modA", "modB")
	assert.False(t, m.HasContext())
	assert.Equal(t, ModNull, m.PeekContext())
	assert.Equal(t, "mre", m.CurrentName())

	m.PushContext(0)
	assert.True(t, m.HasContext())
	assert.Equal(t, int32(0), m.PeekContext())
	assert.Equal(t, "modA", m.CurrentName())

	m.PushContext(1)
	assert.Equal(t, int32(1), m.PeekContext())
	assert.Equal(t, "modB", m.CurrentName())

	assert.Equal(t, int32(1), m.PopContext())
	assert.Equal(t, int32(0), m.PopContext())
	assert.False(t, m.HasContext())
}

func TestGameStepListenersRunInLoadOrder(t *testing.T) {
	m := newTestManager(t, "modA", "modB")
	var order []string
	m.mods[0].Defn.GameStep = func() { order = append(order, "modA") }
	m.mods[1].Defn.GameStep = func() { order = append(order, "modB") }

	m.ExecuteGameStepListeners()
	assert.Equal(t, []string{"modA", "modB"}, order)
}

func TestRoomStartFallsBackToDeprecatedRoomChangeAlias(t *testing.T) {
	m := newTestManager(t, "modA")
	var gotNew, gotPrev int32 = -999, -999
	m.mods[0].Defn.RoomChange = func(n, p int32) { gotNew, gotPrev = n, p }

	m.ExecuteRoomStartListeners(5, 3)
	assert.Equal(t, int32(5), gotNew)
	assert.Equal(t, int32(3), gotPrev)
}

func TestModByNameAndIndexLookup(t *testing.T) {
	m := newTestManager(t, "modA", "modB")
	require.NotNil(t, m.ModByName("modB"))
	assert.Equal(t, int32(1), m.ModByName("modB").Index)
	assert.Nil(t, m.ModByName("missing"))
	assert.Nil(t, m.Mod(99))
}
