// Package instance implements the instance manager: VM-locals access,
// mod-local storage keyed by (mod index, instance id, name), orphan
// pruning on room change, and the object-compatibility test
// (spec.md §4.5).
//
// Grounded on the teacher's counters.Counter/BoostCounter (per-entity
// keyed value store with explicit lifecycle) and
// rules.WatcherRegistry.ResetWatchers (bulk pruning of entries whose
// owning entity has left play).
package instance

import (
	"fmt"
	"sync"

	"github.com/foxbud/aergo/internal/aererr"
	"github.com/foxbud/aergo/internal/objtree"
)

// ModNull is the public-namespace sentinel mod index: a mod-local created
// with this namespace is readable and writable by any mod.
const ModNull int32 = -1

// MaxModLocalName is the longest a mod-local's name may be before the
// manager rejects it with bad-value (spec.md §4.5 "Mod locals").
const MaxModLocalName = 24

// Value is the 64-bit-union-equivalent payload a mod local carries. Only
// one of the typed accessors is meaningful for a given local at a time;
// which one is the caller's responsibility, mirroring the VM's own
// untagged union.
type Value struct {
	Bool    bool
	Int     int64
	UInt    uint64
	Float32 float32
	Float64 float64
	Ptr     uintptr
}

// modLocalKey is the composite key a mod-local is stored under
// (spec.md §3 "Mod-local key").
type modLocalKey struct {
	ModIndex   int32
	InstanceID int32
	Name       string
}

type modLocal struct {
	value      Value
	destructor func(instID int32, value Value)
}

// InstanceResolver reports whether instID currently resolves in the VM's
// instance hash table (spec.md §4.5 "Orphan pruning"); aercore supplies
// the real implementation backed by hld.VMRefs.LookupInstance.
type InstanceResolver func(instID int32) bool

// Manager owns VM-local name interning, the mod-local map, and object
// compatibility lookups.
type Manager struct {
	mu sync.Mutex

	tree     *objtree.Tree
	resolver InstanceResolver

	vmLocalNames map[string]int32
	modLocals    map[modLocalKey]*modLocal
	// order records modLocals insertion order, so PruneOrphans scans (and
	// destructs) orphaned locals in creation order rather than Go's
	// randomized map-iteration order.
	order []modLocalKey
}

// New constructs an empty Manager.
func New(tree *objtree.Tree, resolver InstanceResolver) *Manager {
	return &Manager{
		tree:         tree,
		resolver:     resolver,
		vmLocalNames: make(map[string]int32),
		modLocals:    make(map[modLocalKey]*modLocal),
	}
}

// BuildVMLocalNames populates the name->index map read from the VM's
// instance-local table at init (spec.md §4.5 "VM locals").
func (m *Manager) BuildVMLocalNames(names map[string]int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vmLocalNames = make(map[string]int32, len(names))
	for k, v := range names {
		m.vmLocalNames[k] = v
	}
}

// VMLocalIndex translates a VM-local name to its interned index.
func (m *Manager) VMLocalIndex(name string) (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx, ok := m.vmLocalNames[name]
	if !ok {
		return 0, aererr.New("InstanceVMLocalIndex", aererr.FailedLookup, "no VM local named %q", name)
	}
	return idx, nil
}

// IsCompatibleWith implements spec.md §4.5's compatibility test: true iff
// instObj equals obj, or obj is a transitive ancestor of instObj
// (invariant 5).
func (m *Manager) IsCompatibleWith(instObj, obj int32) bool {
	if instObj == obj {
		return true
	}
	if m.tree == nil {
		return false
	}
	return m.tree.IsAncestor(obj, instObj)
}

func namespaceFor(modIndex int32, public bool) int32 {
	if public {
		return ModNull
	}
	return modIndex
}

// SetModLocal creates or overwrites a mod-local value. destructor, if
// non-nil, runs exactly once when the local is removed — explicitly, via
// DeleteModLocal, or via PruneOrphans.
func (m *Manager) SetModLocal(callingMod, instID int32, name string, public bool, value Value, destructor func(instID int32, value Value)) error {
	if len(name) > MaxModLocalName {
		return aererr.New("InstanceSetModLocal", aererr.BadVal, "mod-local name %q exceeds %d chars", name, MaxModLocalName)
	}

	key := modLocalKey{ModIndex: namespaceFor(callingMod, public), InstanceID: instID, Name: name}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.modLocals[key]; !exists {
		m.order = append(m.order, key)
	}
	m.modLocals[key] = &modLocal{value: value, destructor: destructor}
	return nil
}

// GetModLocal reads a mod-local's value. The namespace rule mirrors
// creation: a private local is only visible to the mod that created it.
func (m *Manager) GetModLocal(callingMod, instID int32, name string, public bool) (Value, error) {
	if len(name) > MaxModLocalName {
		return Value{}, aererr.New("InstanceGetModLocal", aererr.BadVal, "mod-local name %q exceeds %d chars", name, MaxModLocalName)
	}

	key := modLocalKey{ModIndex: namespaceFor(callingMod, public), InstanceID: instID, Name: name}
	m.mu.Lock()
	defer m.mu.Unlock()
	local, ok := m.modLocals[key]
	if !ok {
		return Value{}, aererr.New("InstanceGetModLocal", aererr.FailedLookup, "no mod-local %q for instance %d", name, instID)
	}
	return local.value, nil
}

// DeleteModLocal removes a mod-local, running its destructor first unless
// skipDestructor is set (spec.md §4.5: "deletion without destructor
// invocation is also exposed").
func (m *Manager) DeleteModLocal(callingMod, instID int32, name string, public bool, skipDestructor bool) error {
	key := modLocalKey{ModIndex: namespaceFor(callingMod, public), InstanceID: instID, Name: name}

	m.mu.Lock()
	local, ok := m.modLocals[key]
	if ok {
		delete(m.modLocals, key)
		m.removeFromOrderLocked(key)
	}
	m.mu.Unlock()

	if !ok {
		return aererr.New("InstanceDeleteModLocal", aererr.FailedLookup, "no mod-local %q for instance %d", name, instID)
	}
	if !skipDestructor && local.destructor != nil {
		local.destructor(instID, local.value)
	}
	return nil
}

// PruneOrphans scans every mod-local key, removing (and destructing) any
// whose instance no longer resolves in the VM's instance hash
// (spec.md §4.5 "Orphan pruning", invariant 4, scenario S4). Call once
// per step, or at minimum on every room change.
func (m *Manager) PruneOrphans() int {
	if m.resolver == nil {
		return 0
	}

	m.mu.Lock()
	type pending struct {
		key   modLocalKey
		local *modLocal
	}
	var toDestruct []pending
	kept := m.order[:0:0]
	for _, key := range m.order {
		if _, ok := m.modLocals[key]; !ok {
			// Already removed via DeleteModLocal; drop from order too.
			continue
		}
		if m.resolver(key.InstanceID) {
			kept = append(kept, key)
			continue
		}
		toDestruct = append(toDestruct, pending{key: key, local: m.modLocals[key]})
		delete(m.modLocals, key)
	}
	m.order = kept
	m.mu.Unlock()

	for _, p := range toDestruct {
		if p.local.destructor != nil {
			p.local.destructor(p.key.InstanceID, p.local.value)
		}
	}
	return len(toDestruct)
}

// removeFromOrderLocked removes key from m.order. Callers must hold m.mu.
func (m *Manager) removeFromOrderLocked(key modLocalKey) {
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			return
		}
	}
}

// String is used in error messages and tests for compact key display.
func (k modLocalKey) String() string {
	return fmt.Sprintf("mod%d/inst%d/%s", k.ModIndex, k.InstanceID, k.Name)
}
