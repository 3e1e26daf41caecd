package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachineAdvancesForward(t *testing.T) {
	m := New()
	assert.True(t, m.ExactlyAt(Init))

	require.NoError(t, m.Advance(SpriteReg))
	assert.True(t, m.AtOrPast(Init))
	assert.True(t, m.ExactlyAt(SpriteReg))
	assert.False(t, m.Past(SpriteReg))

	require.NoError(t, m.Advance(ListenerReg))
	assert.True(t, m.Past(ObjectReg))
}

func TestMachineRejectsBackwardMove(t *testing.T) {
	m := New()
	require.NoError(t, m.Advance(ListenerReg))
	err := m.Advance(SpriteReg)
	assert.Error(t, err)
	assert.Equal(t, ListenerReg, m.Current())
}

func TestActionDrawAlternation(t *testing.T) {
	m := New()
	require.NoError(t, m.Advance(Action))

	require.NoError(t, m.AdvanceDraw())
	assert.Equal(t, Draw, m.Current())

	require.NoError(t, m.AdvanceAction())
	assert.Equal(t, Action, m.Current())

	require.NoError(t, m.AdvanceDraw())
	assert.Equal(t, Draw, m.Current())
}

func TestAdvanceDrawBeforeActionFails(t *testing.T) {
	m := New()
	require.NoError(t, m.Advance(ListenerReg))
	err := m.AdvanceDraw()
	assert.Error(t, err)
}
