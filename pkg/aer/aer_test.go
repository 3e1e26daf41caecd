package aer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxbud/aergo/internal/aercore"
	"github.com/foxbud/aergo/internal/aererr"
	"github.com/foxbud/aergo/internal/eventtrap"
	"github.com/foxbud/aergo/internal/hld"
)

func newBoundEngine(t *testing.T) *aercore.Engine {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "conf.toml")
	require.NoError(t, os.WriteFile(path, []byte("[mre]\nmods = []\n"), 0o644))

	e, err := aercore.New(path)
	require.NoError(t, err)
	require.NoError(t, e.Init(&hld.VMRefs{}, &hld.VMFuncs{}))
	Bind(e)
	t.Cleanup(func() { Bind(nil) })
	return e
}

func TestLastErrorReportsSeqBreakWhenUnbound(t *testing.T) {
	Bind(nil)
	ok := AttachListener(0, 1, EventStep, 0, func(it *Iterator, target, other int32) bool { return true })
	assert.False(t, ok)
	assert.Equal(t, aererr.SeqBreak, LastError())
}

func TestAttachListenerAndDispatchThroughPublicAPI(t *testing.T) {
	e := newBoundEngine(t)

	var fired bool
	ok := AttachListener(0, 1, EventStep, 0, func(it *Iterator, target, other int32) bool {
		fired = true
		return it.Handle(target, other)
	})
	require.True(t, ok)

	key := eventtrap.EventKey{Type: hld.EventStep, Num: 0, ObjIdx: 1}
	result, handled := e.Traps.Dispatch(key, 5, -1)
	assert.True(t, handled)
	assert.True(t, result)
	assert.True(t, fired)
}

func TestModLocalsThroughPublicAPI(t *testing.T) {
	newBoundEngine(t)

	ok := SetModLocal(0, 1, "hp", false, LocalValue{Int: 42}, nil)
	require.True(t, ok)

	v, ok := GetModLocal(0, 1, "hp", false)
	require.True(t, ok)
	assert.Equal(t, int64(42), v.Int)
}

func TestSaveRoundTripThroughPublicAPI(t *testing.T) {
	newBoundEngine(t)

	require.True(t, SaveWriteDouble(0, "runs", 3.0))
	v, ok := SaveReadDouble(0, "runs")
	require.True(t, ok)
	assert.Equal(t, 3.0, v)
}

func TestConfReadsThroughPublicAPI(t *testing.T) {
	e := newBoundEngine(t)
	_ = e

	// The fixture has no "mre.missing" entry (only mre.mods);
	// the call must fail with failed-lookup rather than panic.
	_, ok := ConfGetBool(-1, "missing")
	assert.False(t, ok)
}
