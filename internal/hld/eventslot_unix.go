//go:build linux || darwin

package hld

/*
#include <stdlib.h>
#include <string.h>

static void aergo_call_event_handler(void *fn, void *target, void *other) {
	if (fn) ((void (*)(void *, void *))fn)(target, other);
}
*/
import "C"

import (
	"errors"
	"unsafe"
)

// eventWrapperSize/eventSize/namedFunctionSize are this process's actual
// sizes of the mirrored structs, used for the same raw pointer-arithmetic
// growth package modman's loader avoids needing (there, .so handles are
// opaque; here the MRE itself owns the memory it allocates).
var (
	eventWrapperSize  = unsafe.Sizeof(EventWrapper{})
	eventSize         = unsafe.Sizeof(Event{})
	namedFunctionSize = unsafe.Sizeof(NamedFunction{})
)

// ErrNoEventSlot reports that an object's event-listener array has no room
// for eventNum and growing it failed.
var ErrNoEventSlot = errors.New("hld: no event slot available")

// EntrapEvent installs trampoline as the handler for (obj, eventType,
// eventNum), growing obj's EventWrapper array if eventNum falls outside its
// current bounds (spec.md §4.4 "Entrapment"). It returns the function
// pointer that was previously installed in that slot (nil if the slot was
// unused), which the caller stashes as the event's original/default
// handler.
//
// Grounded on event.c's RegisterEventSubscriber, which grows
// HLDObject.eventListeners[type] to numSubEvents slots on first use of an
// event number beyond the object's compiled-in range, then repoints the
// HLDEventWrapper at a new HLDEvent carrying the MRE's own handler.
func EntrapEvent(obj *Object, eventType EventType, eventNum int32, trampoline unsafe.Pointer) (origHandler unsafe.Pointer, err error) {
	if obj == nil {
		return nil, ErrNoEventSlot
	}
	if eventType < 0 || int(eventType) >= NumEventTypes {
		return nil, ErrNoEventSlot
	}
	if eventNum < 0 {
		return nil, ErrNoEventSlot
	}
	arr := &obj.EventListeners[eventType]
	need := uintptr(eventNum) + 1
	if need > arr.Size {
		grown := C.calloc(C.size_t(need), C.size_t(eventWrapperSize))
		if grown == nil {
			return nil, ErrNoEventSlot
		}
		if arr.Elements != nil && arr.Size > 0 {
			C.memcpy(grown, arr.Elements, C.size_t(arr.Size*eventWrapperSize))
			// The host allocated the old array; the MRE never frees host
			// memory it didn't allocate itself, matching spec.md §1's
			// borrowed-memory rule. Leaking the stale array here mirrors
			// event.c's own ReallocEventArr, which does the same.
		}
		arr.Elements = grown
		arr.Size = need
	}

	wrapper := (*EventWrapper)(unsafe.Add(arr.Elements, uintptr(eventNum)*eventWrapperSize))

	if wrapper.Event == nil {
		ev := (*Event)(C.calloc(1, C.size_t(eventSize)))
		if ev == nil {
			return nil, ErrNoEventSlot
		}
		wrapper.Event = ev
	}

	var prevFn unsafe.Pointer
	if wrapper.Event.Handler != nil {
		prevFn = wrapper.Event.Handler.Function
	}

	nf := (*NamedFunction)(C.malloc(C.size_t(namedFunctionSize)))
	if nf == nil {
		return nil, ErrNoEventSlot
	}
	nf.Name = nil
	nf.Function = trampoline
	wrapper.Event.Handler = nf
	wrapper.Event.HandlerIndex = uint32(eventNum)

	return prevFn, nil
}

// CallEventHandler invokes a raw event-handler function pointer captured by
// EntrapEvent, as the void(HLDInstance*, HLDInstance*) signature event.c's
// EventTrapIterNext calls it with. Its return is never read by the real
// implementation's chain walker when it falls through to the original
// handler (event.c: "trap->origListener(target, other); /* result stays
// true */"), so callers should treat this as unconditionally successful.
func CallEventHandler(fn unsafe.Pointer, target, other *Instance) {
	if fn == nil {
		return
	}
	C.aergo_call_event_handler(fn, unsafe.Pointer(target), unsafe.Pointer(other))
}

// InstallEventSubscribers rewrites the host's subscriber list for
// (eventType, eventNum) to exactly objIdxs, reallocating the backing array
// with room for every object (spec.md §4.4 "Subscription masking"). Only Alarm and Step events carry a
// subscriber list the host consults before dispatch; other event types are
// always dispatched unconditionally, so this is a no-op for them.
func (r *VMRefs) InstallEventSubscribers(eventType EventType, eventNum int32, objIdxs []int32) error {
	if r == nil {
		return ErrNoEventSlot
	}
	var subs **EventSubscribers
	var counts *uint32
	switch eventType {
	case EventAlarm:
		subs, counts = r.AlarmEventSubscribers, r.AlarmEventSubscriberCounts
	case EventStep:
		subs, counts = r.StepEventSubscribers, r.StepEventSubscriberCounts
	default:
		return nil
	}
	if subs == nil || *subs == nil || counts == nil {
		return ErrNoEventSlot
	}

	n := len(objIdxs)
	capacity := n
	if numObjs := int(r.NumObjects()); numObjs > capacity {
		capacity = numObjs
	}
	var buf *int32
	if capacity > 0 {
		buf = (*int32)(C.malloc(C.size_t(capacity) * C.size_t(unsafe.Sizeof(int32(0)))))
		if buf == nil {
			return ErrNoEventSlot
		}
		dst := unsafe.Slice(buf, n)
		copy(dst, objIdxs)
	}

	slot := (*EventSubscribers)(unsafe.Add(unsafe.Pointer(*subs), uintptr(eventNum)*unsafe.Sizeof(EventSubscribers{})))
	slot.Objects = buf
	slot.NumSlots = uint32(n)

	countSlot := (*uint32)(unsafe.Add(unsafe.Pointer(counts), uintptr(eventNum)*unsafe.Sizeof(uint32(0))))
	*countSlot = uint32(n)

	return nil
}
