package aercore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxbud/aergo/internal/hld"
	"github.com/foxbud/aergo/internal/instance"
	"github.com/foxbud/aergo/internal/stage"
)

func writeTestConf(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "conf.toml")
	content := []byte("[mre]\nmods = []\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestNewBuildsEngineWithEmptyModList(t *testing.T) {
	e, err := New(writeTestConf(t))
	require.NoError(t, err)
	assert.Equal(t, stage.Init, e.Stage.Current())
}

func TestInitAdvancesThroughRegistrationStages(t *testing.T) {
	e, err := New(writeTestConf(t))
	require.NoError(t, err)

	require.NoError(t, e.Init(&hld.VMRefs{}, &hld.VMFuncs{}))
	assert.Equal(t, stage.ListenerReg, e.Stage.Current())
}

func TestInitRejectsNilRefs(t *testing.T) {
	e, err := New(writeTestConf(t))
	require.NoError(t, err)

	err = e.Init(nil, &hld.VMFuncs{})
	require.Error(t, err)
}

func TestOpenActionClosesListenerReg(t *testing.T) {
	e, err := New(writeTestConf(t))
	require.NoError(t, err)
	require.NoError(t, e.Init(&hld.VMRefs{}, &hld.VMFuncs{}))

	require.NoError(t, e.OpenAction())
	assert.Equal(t, stage.Action, e.Stage.Current())
}

func TestStepPrunesOrphanedModLocals(t *testing.T) {
	e, err := New(writeTestConf(t))
	require.NoError(t, err)
	require.NoError(t, e.Init(&hld.VMRefs{}, &hld.VMFuncs{}))

	// With a zero-value VMRefs, resolveInstance always reports "not found",
	// so any mod-local is pruned on the very next step.
	destructed := false
	require.NoError(t, e.Instances.SetModLocal(0, 1, "hp", false, instance.Value{Int: 1}, func(int32, instance.Value) {
		destructed = true
	}))

	e.Step()
	assert.True(t, destructed)
}
