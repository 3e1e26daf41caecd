package hld

import "unsafe"

// VMRefs mirrors the struct of pointers to the host's internal globals that
// the host hands the MRE at init (spec.md §1, §6). Every field is borrowed;
// the MRE never frees anything reachable through VMRefs.
type VMRefs struct {
	// ObjectTableHandle points at the host's pointer to its object table
	// (an OpenHashTable keyed by object index).
	ObjectTableHandle **OpenHashTable
	// InstanceTable is the host's instance table, keyed by instance id.
	InstanceTable *OpenHashTable
	// RoomCurrent points at the host's pointer to the active room record.
	RoomCurrent **Room
	// AlarmEventSubscribers/StepEventSubscribers are the per-event-number
	// subscriber arrays the event-trap engine rewrites during
	// subscription masking (spec.md §4.4).
	AlarmEventSubscribers      **EventSubscribers
	StepEventSubscribers       **EventSubscribers
	AlarmEventSubscriberCounts *uint32
	StepEventSubscriberCounts  *uint32
	// InstanceLocalTable names the host's interned instance-local name
	// table, used to build the name->index map in package instance.
	InstanceLocalTable *ArraySlice
	// SampleTable/SampleNameTable back the audio pass-through surface.
	SampleTable     *ArraySlice
	SampleNameTable *ArraySlice
	// Maps backs the host's serializable-map primitive table, used by the
	// save hook (spec.md §4.6).
	Maps *ArraySlice
	// MousePosX/MousePosY back the input pass-through surface.
	MousePosX *int32
	MousePosY *int32
}

// VMFuncs mirrors the struct of pointers to host functions handed to the MRE
// at init (include/private/internal/hld.h's HLDFunctions). Every field is a
// raw C-ABI function pointer; the typed invocation wrappers that actually
// call through them live in vmfuncs_unix.go and eventslot_unix.go, since
// calling a C function pointer requires cgo and is outside this file's
// pure-Go struct-layout concern.
type VMFuncs struct {
	ActionDrawSelf                      unsafe.Pointer
	ActionEventPerform                  unsafe.Pointer
	ActionInstanceCreate                unsafe.Pointer
	ActionInstanceChange                unsafe.Pointer
	ActionInstanceDestroy               unsafe.Pointer
	ActionRoomGoto                      unsafe.Pointer
	ActionSpriteAdd                     unsafe.Pointer
	ActionFontAdd                       unsafe.Pointer
	ActionAudioCreateStream             unsafe.Pointer
	ActionAudioPlaySound                unsafe.Pointer
	ActionDrawSetAlpha                  unsafe.Pointer
	ActionDrawGetAlpha                  unsafe.Pointer
	ActionDrawSetFont                   unsafe.Pointer
	ActionDrawText                      unsafe.Pointer
	ActionDrawLine                      unsafe.Pointer
	ActionDrawRectangle                 unsafe.Pointer
	ActionDrawTriangle                  unsafe.Pointer
	ActionDrawEllipse                   unsafe.Pointer
	InstanceSetMaskIndex                unsafe.Pointer
	InstanceSetPosition                 unsafe.Pointer
	InstanceSetMotionPolarFromCartesian unsafe.Pointer
	APIDsMapFindValue                   unsafe.Pointer
	APIDsMapSet                         unsafe.Pointer
	ScriptSetDepth                      unsafe.Pointer
}

// LookupObject finds the object record for objIdx via the host's object table.
func (r *VMRefs) LookupObject(objIdx int32) *Object {
	if r == nil || r.ObjectTableHandle == nil || *r.ObjectTableHandle == nil {
		return nil
	}
	return (*Object)((*r.ObjectTableHandle).Lookup(objIdx))
}

// LookupInstance finds the instance record for instId via the host's
// instance table. The returned pointer is valid only for the duration of
// the current step (spec.md §3 "VM-instance view").
func (r *VMRefs) LookupInstance(instID int32) *Instance {
	if r == nil || r.InstanceTable == nil {
		return nil
	}
	return (*Instance)(r.InstanceTable.Lookup(instID))
}

// CurrentRoom returns the active room record, or nil before the first room
// has loaded.
func (r *VMRefs) CurrentRoom() *Room {
	if r == nil || r.RoomCurrent == nil {
		return nil
	}
	return *r.RoomCurrent
}

// NumObjects returns the host's live object-class count, the upper bound
// collision entrapment needs to size its per-object sub-event array
// (spec.md §4.4 "Entrapment" step (a), grounded on event.c's
// subNumEvents == (*hldvars.objectTableHandle)->numItems case).
func (r *VMRefs) NumObjects() int32 {
	if r == nil || r.ObjectTableHandle == nil || *r.ObjectTableHandle == nil {
		return 0
	}
	return int32((*r.ObjectTableHandle).NumItems)
}
