// Package modman resolves, loads, and tracks mod shared libraries: the set
// of named .so files read from config, their registration and lifecycle
// callbacks, and the context stack of "currently executing mod" used for
// logging and local-variable namespacing (spec.md §4.2).
package modman

import (
	"fmt"
	"sync"

	"github.com/foxbud/aergo/internal/aererr"
)

// ModNull is the index reserved for the MRE's own public namespace — no
// real mod is ever loaded at this index.
const ModNull int32 = -1

// Definition is the set of nullable callbacks a mod's define_mod (or
// alias) entry point returns (spec.md §4.2, §6 "Mod ABI").
type Definition struct {
	RegisterSprites         func()
	RegisterObjects         func()
	RegisterObjectListeners func()
	RegisterFonts           func()

	Constructor func()
	Destructor  func()

	GameStep    func()
	GamePause   func(paused bool)
	GameSave    func(slot int32)
	GameLoad    func(slot int32)
	RoomStart   func()
	RoomEnd     func()
	// RoomChange is a deprecated alias for RoomStart; kept only because
	// mods built against older MRE releases may still export it.
	RoomChange func(newRoomIdx, prevRoomIdx int32)
}

// Mod is a single loaded shared library plus its registration state.
type Mod struct {
	Name       string
	Index      int32
	Defn       Definition
	Fingerprint string // BLAKE2b-256 hex digest of the library bytes, see Manager.loadOne.

	handle libHandle
}

// Manager owns the ordered list of loaded mods and the context stack.
// It is a process-wide singleton by necessity (spec.md §9 "Global
// mutable state"); callers construct exactly one and thread it through
// the MRE's core.
type Manager struct {
	mu       sync.Mutex
	mods     []*Mod
	byName   map[string]int32
	context  []int32

	// Aliases is the ordered set of entry-point names searched for the
	// mod definition function, per spec.md §4.2.
	Aliases []string
}

// New creates an empty Manager with the spec-mandated alias set.
func New() *Manager {
	return &Manager{
		byName:  make(map[string]int32),
		Aliases: []string{"define_mod", "definemod", "defineMod", "DefineMod"},
	}
}

// NumMods returns the number of loaded mods.
func (m *Manager) NumMods() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.mods)
}

// Mod returns the mod at idx, or nil if out of range.
func (m *Manager) Mod(idx int32) *Mod {
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx < 0 || int(idx) >= len(m.mods) {
		return nil
	}
	return m.mods[idx]
}

// ModByName returns the mod with the given name, or nil.
func (m *Manager) ModByName(name string) *Mod {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx, ok := m.byName[name]
	if !ok {
		return nil
	}
	return m.mods[idx]
}

// LoadAll resolves and opens each named mod in order, recording it at the
// index equal to its position in names. It does not run constructors;
// call RunConstructors separately once all libraries are open, matching
// spec.md §4.2's two-phase load-then-construct sequence.
func (m *Manager) LoadAll(names []string) error {
	for _, name := range names {
		if err := m.loadOne(name); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) loadOne(name string) error {
	m.mu.Lock()
	idx := int32(len(m.mods))
	m.mu.Unlock()

	libPath := fmt.Sprintf("lib%s.so", name)
	handle, fingerprint, err := openLibrary(libPath)
	if err != nil {
		return aererr.New("ModManLoad", aererr.BadFile, "opening %s: %v", libPath, err)
	}

	defn, err := resolveDefinition(handle, m.Aliases)
	if err != nil {
		closeLibrary(handle)
		return aererr.New("ModManLoad", aererr.FailedLookup, "resolving mod-definition entry point in %s: %v", libPath, err)
	}

	mod := &Mod{Name: name, Index: idx, Defn: defn, Fingerprint: fingerprint, handle: handle}

	m.mu.Lock()
	m.mods = append(m.mods, mod)
	m.byName[name] = idx
	m.mu.Unlock()
	return nil
}

// RunConstructors runs each loaded mod's constructor (if any) in load
// order, pushing that mod's index onto the context stack around the call.
func (m *Manager) RunConstructors() {
	m.mu.Lock()
	mods := append([]*Mod(nil), m.mods...)
	m.mu.Unlock()

	for _, mod := range mods {
		if mod.Defn.Constructor == nil {
			continue
		}
		m.PushContext(mod.Index)
		mod.Defn.Constructor()
		m.PopContext()
	}
}

// Unload runs every mod's destructor (if any) and releases its library
// handle, in reverse load order (spec.md §5 "Resource ownership").
func (m *Manager) Unload() {
	m.mu.Lock()
	mods := append([]*Mod(nil), m.mods...)
	m.mu.Unlock()

	for i := len(mods) - 1; i >= 0; i-- {
		mod := mods[i]
		if mod.Defn.Destructor != nil {
			m.PushContext(mod.Index)
			mod.Defn.Destructor()
			m.PopContext()
		}
		closeLibrary(mod.handle)
	}
}

// HasContext reports whether any mod is currently executing.
func (m *Manager) HasContext() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.context) > 0
}

// PushContext pushes modIdx onto the context stack. Called by the event
// trampoline before invoking a mod listener.
func (m *Manager) PushContext(modIdx int32) {
	m.mu.Lock()
	m.context = append(m.context, modIdx)
	m.mu.Unlock()
}

// PopContext pops the top of the context stack and returns it.
func (m *Manager) PopContext() int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.context)
	if n == 0 {
		return ModNull
	}
	idx := m.context[n-1]
	m.context = m.context[:n-1]
	return idx
}

// PeekContext returns the currently executing mod's index, or ModNull if
// the MRE itself is executing (empty context stack).
func (m *Manager) PeekContext() int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.context)
	if n == 0 {
		return ModNull
	}
	return m.context[n-1]
}

// CurrentName returns the display name for the currently executing mod,
// or "mre" when the context stack is empty — used by aerlog to tag lines.
func (m *Manager) CurrentName() string {
	idx := m.PeekContext()
	if idx == ModNull {
		return "mre"
	}
	if mod := m.Mod(idx); mod != nil {
		return mod.Name
	}
	return "mre"
}

// ExecuteGameStepListeners runs every loaded mod's GameStep callback in
// load order.
func (m *Manager) ExecuteGameStepListeners() {
	for _, mod := range m.snapshot() {
		if mod.Defn.GameStep == nil {
			continue
		}
		m.PushContext(mod.Index)
		mod.Defn.GameStep()
		m.PopContext()
	}
}

// ExecuteGamePauseListeners runs every loaded mod's GamePause callback.
func (m *Manager) ExecuteGamePauseListeners(paused bool) {
	for _, mod := range m.snapshot() {
		if mod.Defn.GamePause == nil {
			continue
		}
		m.PushContext(mod.Index)
		mod.Defn.GamePause(paused)
		m.PopContext()
	}
}

// ExecuteRoomStartListeners runs every loaded mod's RoomStart callback,
// falling back to the deprecated RoomChange alias when RoomStart is absent.
func (m *Manager) ExecuteRoomStartListeners(newRoomIdx, prevRoomIdx int32) {
	for _, mod := range m.snapshot() {
		m.PushContext(mod.Index)
		switch {
		case mod.Defn.RoomStart != nil:
			mod.Defn.RoomStart()
		case mod.Defn.RoomChange != nil:
			mod.Defn.RoomChange(newRoomIdx, prevRoomIdx)
		}
		m.PopContext()
	}
}

// ExecuteRoomEndListeners runs every loaded mod's RoomEnd callback.
func (m *Manager) ExecuteRoomEndListeners() {
	for _, mod := range m.snapshot() {
		if mod.Defn.RoomEnd == nil {
			continue
		}
		m.PushContext(mod.Index)
		mod.Defn.RoomEnd()
		m.PopContext()
	}
}

// ExecuteGameSaveListeners runs every loaded mod's GameSave callback, in
// load order, with the host-supplied save slot (core.c's
// AERHookSaveData: mods write into the in-memory save store before it is
// bulk-encoded back into the host's DS map).
func (m *Manager) ExecuteGameSaveListeners(slot int32) {
	for _, mod := range m.snapshot() {
		if mod.Defn.GameSave == nil {
			continue
		}
		m.PushContext(mod.Index)
		mod.Defn.GameSave(slot)
		m.PopContext()
	}
}

// ExecuteGameLoadListeners runs every loaded mod's GameLoad callback, in
// load order, with the host-supplied save slot (core.c's
// AERHookLoadData: the in-memory save store is decoded from the host's DS
// map before mods read from it).
func (m *Manager) ExecuteGameLoadListeners(slot int32) {
	for _, mod := range m.snapshot() {
		if mod.Defn.GameLoad == nil {
			continue
		}
		m.PushContext(mod.Index)
		mod.Defn.GameLoad(slot)
		m.PopContext()
	}
}

func (m *Manager) snapshot() []*Mod {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Mod(nil), m.mods...)
}
