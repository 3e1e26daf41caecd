package aer

import (
	"github.com/foxbud/aergo/internal/eventtrap"
	"github.com/foxbud/aergo/internal/hld"
)

// EventType re-exports the host's event-category enumeration for mod
// code that never needs to reach into internal/hld directly.
type EventType = hld.EventType

const (
	EventCreate    = hld.EventCreate
	EventDestroy   = hld.EventDestroy
	EventAlarm     = hld.EventAlarm
	EventStep      = hld.EventStep
	EventCollision = hld.EventCollision
	EventOther     = hld.EventOther
	EventDraw      = hld.EventDraw
)

// ListenerFunc is a mod's event-listener signature: given the event
// iterator, the target and other instance ids, it returns whether the
// event should keep propagating to whatever comes after it in the chain
// (spec.md §4.4 "Dispatch").
type ListenerFunc func(iter *Iterator, targetInstID, otherInstID int32) bool

// Iterator is the public handle a mod listener uses to invoke the next
// listener in the chain (spec.md §4.4 "Dispatch" step 2).
type Iterator struct {
	inner *eventtrap.Iterator
}

// Handle invokes the next listener in the chain, or the original VM
// handler once the chain is exhausted.
func (it *Iterator) Handle(targetInstID, otherInstID int32) bool {
	return it.inner.Handle(targetInstID, otherInstID)
}

// AttachListener attaches a mod's listener for (objIdx, eventType,
// eventNum), returning the usual bool-sentinel / last-error pair
// (spec.md §4.4 "Entrapment", boundary 9, 11).
func AttachListener(modIndex, objIdx int32, eventType EventType, eventNum int32, listener ListenerFunc) bool {
	e, ok := guardEngine()
	if !ok {
		return false
	}

	key := eventtrap.EventKey{Type: eventType, Num: eventNum, ObjIdx: objIdx}
	err := e.Traps.Attach(key, modIndex, func(inner *eventtrap.Iterator, target, other int32) bool {
		// The internal chain hands the trampoline its own iterator; wrap
		// it in the public Iterator only at the mod-facing call site,
		// matching the short-lived, stack-allocated shape spec.md §9
		// "Dynamic dispatch" calls for.
		return listener(&Iterator{inner: inner}, target, other)
	})
	setLast(err)
	return err == nil
}
