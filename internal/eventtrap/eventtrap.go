// Package eventtrap implements the MRE's event-interception engine: the
// trap map keyed by EventKey, the universal trampoline every trapped
// event funnels through, and subscriber-array masking so subclass
// instances inherit their ancestor's alarm/step subscriptions
// (spec.md §4.4).
//
// Grounded on the teacher's rules.TriggerManager (listener chains keyed
// by trigger condition) and effects.ReplacementManager (ordered,
// cancellable replacement chains) generalized into a single chain type
// that also knows how to fall back to a captured original handler.
package eventtrap

import (
	"fmt"
	"sync"

	"github.com/foxbud/aergo/internal/aererr"
	"github.com/foxbud/aergo/internal/hld"
	"github.com/foxbud/aergo/internal/objtree"
)

// EventKey identifies a single hook point: a fixed event-type, a
// disambiguating sub-number, and the object it is attached to. It is a
// plain comparable struct so it can be used directly as a map key
// (spec.md §3 "EventKey").
type EventKey struct {
	Type   hld.EventType
	Num    int32
	ObjIdx int32
}

func (k EventKey) String() string {
	return fmt.Sprintf("%s(%d)@obj%d", k.Type, k.Num, k.ObjIdx)
}

// Listener is a single mod's handler for an EventKey, plus the mod index
// it originated from (used for attribution in logs and failure reports).
type Listener struct {
	ModIndex int32
	Func     ListenerFunc
}

// ListenerFunc is a mod listener's shape: it receives the per-call
// iterator so it may invoke Handle to continue the chain, plus the
// target and other instance ids. Returning false without ever calling
// Handle blocks everything downstream (spec.md §4.4 "Dispatch").
type ListenerFunc func(it *Iterator, targetInstID, otherInstID int32) bool

// HandlerFunc is the terminal handler a trap falls back to once its
// listener chain is exhausted: either the VM's captured original handler
// or the synthetic default (spec.md §3 "Trap"). It never sees an
// iterator — there is nothing further in the chain to continue into.
type HandlerFunc func(targetInstID, otherInstID int32) bool

// Trap owns the ordered listener chain for one EventKey and the handler
// to fall back to once the chain is exhausted (spec.md §3 "Trap").
type Trap struct {
	Key           EventKey
	listeners     []Listener
	origListener  HandlerFunc
	isSyntheticDefault bool
}

// Listeners returns a copy of the trap's current listener chain, mod
// index first, for introspection and tests.
func (t *Trap) Listeners() []Listener {
	out := make([]Listener, len(t.listeners))
	copy(out, t.listeners)
	return out
}

// DefaultFactory builds the synthetic "perform default" handler for a
// trap whose VM slot was empty at creation time: forwards to the parent
// object's same event, except that for a normal draw event on an instance
// with a sprite it calls the VM's draw-self instead (spec.md §3 "Trap",
// §4.4 "Entrapment").
type DefaultFactory func(key EventKey) HandlerFunc

// Engine owns every trap ever created plus the subscriber-masking state.
// It is a process-wide singleton threaded through from aercore, mirroring
// the teacher's single TriggerManager-per-game instance.
type Engine struct {
	mu sync.Mutex

	traps map[EventKey]*Trap
	tree  *objtree.Tree

	defaultFactory DefaultFactory
	captureOrig    func(key EventKey) (HandlerFunc, bool)
	allocSlot      func(key EventKey) error
	writeback      func(key EventKey, objIdxs []int32)

	maskedObjects map[EventKey]map[int32]struct{}

	listenerRegOpen bool

	onUnhandled func(modName string, key EventKey, err error)
}

// Deps bundles the engine's host-facing collaborators so tests can supply
// fakes without touching unsafe VM memory.
type Deps struct {
	Tree *objtree.Tree

	// DefaultFactory builds the synthetic default handler for a newly
	// created trap whose VM slot was empty.
	DefaultFactory DefaultFactory
	// CaptureOrig returns the VM's existing handler for key, and whether
	// one was present. When absent, the engine uses DefaultFactory instead.
	CaptureOrig func(key EventKey) (HandlerFunc, bool)
	// AllocSlot resizes the object's per-event-type listener array (if
	// needed) and installs the MRE's universal trampoline at the given
	// slot. Called once per newly entrapped EventKey.
	AllocSlot func(key EventKey) error
	// SubscriberWriteback pushes the masked-subscriber set for key's
	// (type, number) pair back into the VM's alarm/step subscriber arrays:
	// the union of the sets of every trap sharing that pair. Called each
	// time a new alarm or step trap is created, since a listener registered
	// later on another object can add new members (spec.md §4.4
	// "Subscription masking"). A nil hook (e.g. in tests with no live VM)
	// is a no-op.
	SubscriberWriteback func(key EventKey, objIdxs []int32)

	// OnUnhandled is invoked when a mod listener's error channel reports
	// a failure; the aercore wiring turns this into an aerlog line and
	// optionally a fatal abort, per the promoteUnhandledErrors option.
	OnUnhandled func(modName string, key EventKey, err error)
}

// New constructs an Engine. ListenerReg must be opened explicitly via
// OpenListenerReg once the stage machine reaches listener-reg.
func New(d Deps) *Engine {
	return &Engine{
		traps:         make(map[EventKey]*Trap),
		tree:          d.Tree,
		defaultFactory: d.DefaultFactory,
		captureOrig:   d.CaptureOrig,
		allocSlot:     d.AllocSlot,
		writeback:     d.SubscriberWriteback,
		maskedObjects: make(map[EventKey]map[int32]struct{}),
		onUnhandled:   d.OnUnhandled,
	}
}

// OpenListenerReg permits Attach calls. Call once, when the stage machine
// transitions into listener-reg.
func (e *Engine) OpenListenerReg() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listenerRegOpen = true
}

// CloseListenerReg forbids further Attach calls, matching the stage
// machine's transition out of listener-reg.
func (e *Engine) CloseListenerReg() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listenerRegOpen = false
}

const maxAlarmIndex = hld.MaxAlarms

// SubNumMax returns the maximum sub-event count for a given event type
// (spec.md §4.4 "Entrapment" step (a)); for collision events it is
// numObjects (from hld.VMRefs.NumObjects). No event-listener array is
// sized from it: hld.EntrapEvent grows an object's array only to
// eventNum+1 entries, whatever the event type.
func SubNumMax(t hld.EventType, numObjects int32) int32 {
	switch t {
	case hld.EventCreate, hld.EventDestroy:
		return 1
	case hld.EventStep:
		return 3
	case hld.EventAlarm:
		return maxAlarmIndex
	case hld.EventCollision:
		return numObjects
	case hld.EventOther, hld.EventDraw:
		return hld.MaxSubEvent
	default:
		return hld.MaxSubEvent
	}
}

// Attach registers a mod's listener for key, creating the trap (and,
// where needed, resizing the VM's event-listener array and capturing or
// synthesizing the original handler) on first use (spec.md §4.4
// "Entrapment").
func (e *Engine) Attach(key EventKey, modIndex int32, fn ListenerFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.listenerRegOpen {
		return aererr.New("EventTrapAttach", aererr.SeqBreak, "cannot attach listener for %s outside listener-reg", key)
	}
	if key.Type == hld.EventAlarm && (key.Num < 0 || key.Num >= maxAlarmIndex) {
		return aererr.New("EventTrapAttach", aererr.BadVal, "alarm index %d out of range [0,%d)", key.Num, maxAlarmIndex)
	}

	trap, ok := e.traps[key]
	if !ok {
		if e.allocSlot != nil {
			if err := e.allocSlot(key); err != nil {
				return aererr.New("EventTrapAttach", aererr.FailedLookup, "allocating slot for %s: %v", key, err)
			}
		}

		trap = &Trap{Key: key}
		if orig, present := e.captureOrigFn(key); present {
			trap.origListener = orig
		} else if e.defaultFactory != nil {
			trap.origListener = e.defaultFactory(key)
			trap.isSyntheticDefault = true
		}
		e.traps[key] = trap

		if key.Type == hld.EventAlarm || key.Type == hld.EventStep {
			e.maskSubscribersLocked(key)
		}
	}

	trap.listeners = append(trap.listeners, Listener{ModIndex: modIndex, Func: fn})
	return nil
}

func (e *Engine) captureOrigFn(key EventKey) (HandlerFunc, bool) {
	if e.captureOrig == nil {
		return nil, false
	}
	return e.captureOrig(key)
}

// maskSubscribersLocked walks key's object and its transitive descendants,
// recording each exactly once as a subscriber (spec.md §4.4 "Subscription
// masking"). Called with e.mu held.
func (e *Engine) maskSubscribersLocked(key EventKey) {
	set, ok := e.maskedObjects[key]
	if !ok {
		set = make(map[int32]struct{})
		e.maskedObjects[key] = set
	}
	set[key.ObjIdx] = struct{}{}
	if e.tree != nil {
		for _, desc := range e.tree.TransitiveDescendants(key.ObjIdx) {
			set[desc] = struct{}{}
		}
	}

	if e.writeback == nil {
		return
	}
	// The host keeps one subscriber list per (type, number), shared by all
	// objects, so write back the union over every trap with that pair.
	union := make(map[int32]struct{}, len(set))
	for k, s := range e.maskedObjects {
		if k.Type != key.Type || k.Num != key.Num {
			continue
		}
		for obj := range s {
			union[obj] = struct{}{}
		}
	}
	objIdxs := make([]int32, 0, len(union))
	for obj := range union {
		objIdxs = append(objIdxs, obj)
	}
	e.writeback(key, objIdxs)
}

// MaskedSubscribers returns the full subscriber set for key after
// masking, for introspection/tests and for the caller to push back into
// the VM's over-allocated subscriber arrays.
func (e *Engine) MaskedSubscribers(key EventKey) []int32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	set := e.maskedObjects[key]
	out := make([]int32, 0, len(set))
	for obj := range set {
		out = append(out, obj)
	}
	return out
}

// Trap returns the trap registered for key, or nil.
func (e *Engine) Trap(key EventKey) *Trap {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.traps[key]
}

// Iterator is the per-dispatch-call cursor mod listeners advance via
// Handle; it is the Go analogue of the opaque handle the spec hands to
// mod code (spec.md §4.4 "Dispatch" step 2).
type Iterator struct {
	trap *Trap
	next int
}

// Handle invokes the next listener in the chain (or, once exhausted, the
// captured/synthetic original handler), returning its bool result
// (spec.md §4.4 "Dispatch" steps 3-4).
func (it *Iterator) Handle(targetInstID, otherInstID int32) bool {
	if it.next < len(it.trap.listeners) {
		l := it.trap.listeners[it.next]
		it.next++
		return l.Func(it, targetInstID, otherInstID)
	}
	if it.trap.origListener == nil {
		return true
	}
	return it.trap.origListener(targetInstID, otherInstID)
}

// Dispatch runs the universal trampoline for key: it builds a fresh
// Iterator and invokes the first listener (or falls straight through to
// the original handler if none attached), returning the outermost result
// (false means the event was cancelled) and whether a trap exists for key
// at all (spec.md §4.4 "Dispatch").
//
// A create event returning false tells the caller (aercore) to destroy
// the instance immediately without firing its destroy event, per
// spec.md §4.4 "Dispatch" step 5; Dispatch itself performs no instance
// mutation, leaving that orchestration to the caller.
func (e *Engine) Dispatch(key EventKey, targetInstID, otherInstID int32) (result bool, handled bool) {
	trap := e.Trap(key)
	if trap == nil {
		return true, false
	}
	it := &Iterator{trap: trap}
	return it.Handle(targetInstID, otherInstID), true
}

// ReportUnhandled routes a mod listener's error-channel failure through
// the engine's configured handler (spec.md §4.4 "Failure semantics").
func (e *Engine) ReportUnhandled(modName string, key EventKey, err error) {
	if e.onUnhandled != nil {
		e.onUnhandled(modName, key, err)
	}
}
