// Command aergo builds the MRE as a C-ABI shared library
// (-buildmode=c-shared). It exports the five host ABI entry points
// spec.md §6 names and wires each one to the internal/aercore singleton.
package main

/*
#include <stdint.h>
#include <stdbool.h>
#include <stdlib.h>

// aergo_vm_refs and aergo_vm_funcs are the by-value structs of pointers
// the host hands init (spec.md §6 "Host ABI"). Field order and sizes
// must match the host binary's actual layout; cmd/aergo's build step is
// responsible for validating that against the target host, per
// spec.md §9 open question (a).
typedef struct aergo_vm_refs {
	void *objectTableHandle;
	void *instanceTable;
	void *roomCurrent;
	void *alarmEventSubscribers;
	void *stepEventSubscribers;
	void *alarmEventSubscriberCounts;
	void *stepEventSubscriberCounts;
	void *instanceLocalTable;
	void *sampleTable;
	void *sampleNameTable;
	void *maps;
	void *mousePosX;
	void *mousePosY;
} aergo_vm_refs;

typedef struct aergo_vm_funcs {
	void *actionDrawSelf;
	void *actionEventPerform;
	void *actionInstanceCreate;
	void *actionInstanceChange;
	void *actionInstanceDestroy;
	void *actionRoomGoto;
	void *actionSpriteAdd;
	void *actionFontAdd;
	void *actionAudioCreateStream;
	void *actionAudioPlaySound;
	void *actionDrawSetAlpha;
	void *actionDrawGetAlpha;
	void *actionDrawSetFont;
	void *actionDrawText;
	void *actionDrawLine;
	void *actionDrawRectangle;
	void *actionDrawTriangle;
	void *actionDrawEllipse;
	void *instanceSetMaskIndex;
	void *instanceSetPosition;
	void *instanceSetMotionPolarFromCartesian;
	void *apiDsMapFindValue;
	void *apiDsMapSet;
	void *scriptSetDepth;
} aergo_vm_funcs;

// aergo_event_trampoline is the single C function pointer installed into
// every entrapped object's event-listener slot (internal/hld.EntrapEvent).
// The host calls it directly, with no further Go-side involvement needed
// to receive the call — it forwards straight into the exported
// aergo_dispatch_event, matching the real libaermre's universal
// trampoline (event.c's AEREventHandler wrapper).
extern void aergo_dispatch_event(void *target, void *other);

static void aergo_event_trampoline(void *target, void *other) {
	aergo_dispatch_event(target, other);
}

static void *aergo_trampoline_ptr(void) {
	return (void *)aergo_event_trampoline;
}
*/
import "C"

import (
	"os"
	"unsafe"

	"go.uber.org/zap"

	"github.com/foxbud/aergo/internal/aercore"
	"github.com/foxbud/aergo/internal/hld"
	"github.com/foxbud/aergo/pkg/aer"
)

var eng *aercore.Engine

const defaultConfPath = "aer/conf.toml"

func confPath() string {
	if p := os.Getenv("AERGO_CONF_PATH"); p != "" {
		return p
	}
	return defaultConfPath
}

func toVMRefs(refs *C.aergo_vm_refs) *hld.VMRefs {
	return &hld.VMRefs{
		ObjectTableHandle:          (**hld.OpenHashTable)(unsafe.Pointer(refs.objectTableHandle)),
		InstanceTable:              (*hld.OpenHashTable)(unsafe.Pointer(refs.instanceTable)),
		RoomCurrent:                (**hld.Room)(unsafe.Pointer(refs.roomCurrent)),
		AlarmEventSubscribers:      (**hld.EventSubscribers)(unsafe.Pointer(refs.alarmEventSubscribers)),
		StepEventSubscribers:       (**hld.EventSubscribers)(unsafe.Pointer(refs.stepEventSubscribers)),
		AlarmEventSubscriberCounts: (*uint32)(unsafe.Pointer(refs.alarmEventSubscriberCounts)),
		StepEventSubscriberCounts:  (*uint32)(unsafe.Pointer(refs.stepEventSubscriberCounts)),
		InstanceLocalTable:         (*hld.ArraySlice)(unsafe.Pointer(refs.instanceLocalTable)),
		SampleTable:                (*hld.ArraySlice)(unsafe.Pointer(refs.sampleTable)),
		SampleNameTable:            (*hld.ArraySlice)(unsafe.Pointer(refs.sampleNameTable)),
		Maps:                       (*hld.ArraySlice)(unsafe.Pointer(refs.maps)),
		MousePosX:                  (*int32)(unsafe.Pointer(refs.mousePosX)),
		MousePosY:                  (*int32)(unsafe.Pointer(refs.mousePosY)),
	}
}

func toVMFuncs(funcs *C.aergo_vm_funcs) *hld.VMFuncs {
	return &hld.VMFuncs{
		ActionDrawSelf:                      unsafe.Pointer(funcs.actionDrawSelf),
		ActionEventPerform:                  unsafe.Pointer(funcs.actionEventPerform),
		ActionInstanceCreate:                unsafe.Pointer(funcs.actionInstanceCreate),
		ActionInstanceChange:                unsafe.Pointer(funcs.actionInstanceChange),
		ActionInstanceDestroy:               unsafe.Pointer(funcs.actionInstanceDestroy),
		ActionRoomGoto:                      unsafe.Pointer(funcs.actionRoomGoto),
		ActionSpriteAdd:                     unsafe.Pointer(funcs.actionSpriteAdd),
		ActionFontAdd:                       unsafe.Pointer(funcs.actionFontAdd),
		ActionAudioCreateStream:             unsafe.Pointer(funcs.actionAudioCreateStream),
		ActionAudioPlaySound:                unsafe.Pointer(funcs.actionAudioPlaySound),
		ActionDrawSetAlpha:                  unsafe.Pointer(funcs.actionDrawSetAlpha),
		ActionDrawGetAlpha:                  unsafe.Pointer(funcs.actionDrawGetAlpha),
		ActionDrawSetFont:                   unsafe.Pointer(funcs.actionDrawSetFont),
		ActionDrawText:                      unsafe.Pointer(funcs.actionDrawText),
		ActionDrawLine:                      unsafe.Pointer(funcs.actionDrawLine),
		ActionDrawRectangle:                 unsafe.Pointer(funcs.actionDrawRectangle),
		ActionDrawTriangle:                  unsafe.Pointer(funcs.actionDrawTriangle),
		ActionDrawEllipse:                   unsafe.Pointer(funcs.actionDrawEllipse),
		InstanceSetMaskIndex:                unsafe.Pointer(funcs.instanceSetMaskIndex),
		InstanceSetPosition:                 unsafe.Pointer(funcs.instanceSetPosition),
		InstanceSetMotionPolarFromCartesian: unsafe.Pointer(funcs.instanceSetMotionPolarFromCartesian),
		APIDsMapFindValue:                   unsafe.Pointer(funcs.apiDsMapFindValue),
		APIDsMapSet:                         unsafe.Pointer(funcs.apiDsMapSet),
		ScriptSetDepth:                      unsafe.Pointer(funcs.scriptSetDepth),
	}
}

//export aergo_init
func aergo_init(refs *C.aergo_vm_refs, funcs *C.aergo_vm_funcs) {
	e, err := aercore.New(confPath())
	if err != nil {
		os.Stderr.WriteString("aergo: fatal: " + err.Error() + "\n")
		os.Exit(1)
	}
	eng = e
	aer.Bind(e)
	e.SetTrampoline(C.aergo_trampoline_ptr())

	if err := e.Init(toVMRefs(refs), toVMFuncs(funcs)); err != nil {
		e.Log.Fatal("Init", "engine initialization failed")
	}
	if err := e.OpenAction(); err != nil {
		e.Log.Fatal("Init", "failed to open action stage")
	}
}

//export aergo_step
func aergo_step() {
	if eng == nil {
		return
	}
	eng.Step()
}

//export aergo_event
func aergo_event(objIdx C.int32_t, eventType C.int32_t, eventNum C.int32_t) {
	// The real host hook only records which event is about to run
	// (core.c's AERHookEvent: "currentEvent = ...; return;"). Dispatch
	// happens later and separately, when the host's own event wrapper
	// calls through the trampoline aergo_init installed via
	// hld.EntrapEvent — see aergo_dispatch_event below.
	if eng == nil {
		return
	}
	eng.SetCurrentEvent(int32(objIdx), hld.EventType(eventType), int32(eventNum))
}

//export aergo_dispatch_event
func aergo_dispatch_event(target, other unsafe.Pointer) {
	if eng == nil {
		return
	}
	targetInst := (*hld.Instance)(target)
	otherInst := (*hld.Instance)(other)
	targetInstID, otherInstID := int32(0), int32(-1)
	if targetInst != nil {
		targetInstID = int32(targetInst.ID)
	}
	if otherInst != nil {
		otherInstID = int32(otherInst.ID)
	}
	key := eng.CurrentEvent()
	eng.Event(key.ObjIdx, key.Type, key.Num, targetInstID, otherInstID, eng.DestroyInstanceForCancel)
}

//export aergo_load_data
func aergo_load_data(mapID C.int32_t) {
	if eng == nil {
		return
	}
	if err := eng.LoadModSaveData(int32(mapID)); err != nil {
		eng.Log.ErrorLine("LoadData", "failed to load save data", zap.Error(err))
	}
}

//export aergo_save_data
func aergo_save_data(mapID C.int32_t) {
	if eng == nil {
		return
	}
	if err := eng.SaveModSaveData(int32(mapID)); err != nil {
		eng.Log.ErrorLine("SaveData", "failed to save data", zap.Error(err))
	}
}

//export aergo_primitive_pointer_copy
func aergo_primitive_pointer_copy(dest, src unsafe.Pointer) {
	hld.PrimitivePointerCopy((*hld.Primitive)(dest), (*hld.Primitive)(src))
}

func main() {}
