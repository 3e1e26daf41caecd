//go:build linux || darwin

package hld

/*
#include <stdbool.h>
#include <stddef.h>
#include <stdint.h>
#include <stdlib.h>

// Each helper below casts a VMFuncs field back to the exact C function
// pointer type include/private/internal/hld.h declares for it
// (HLDFunctions) and calls through it. One helper per distinct signature,
// mirroring definition_abi.go's aergo_call_* family in package modman.

static float aergo_call_draw_get_alpha(void *fn) {
	if (!fn) return 0.0f;
	return ((float (*)(void))fn)();
}

static void aergo_call_draw_set_alpha(void *fn, float alpha) {
	if (fn) ((void (*)(float))fn)(alpha);
}

static void aergo_call_draw_set_font(void *fn, int32_t fontIdx) {
	if (fn) ((void (*)(int32_t))fn)(fontIdx);
}

static void aergo_call_draw_self(void *fn, void *inst) {
	if (fn) ((void (*)(void *))fn)(inst);
}

static void aergo_call_room_goto(void *fn, int32_t roomIdx, int32_t unknown0) {
	if (fn) ((void (*)(int32_t, int32_t))fn)(roomIdx, unknown0);
}

static int32_t aergo_call_sprite_add(void *fn, const char *fname, size_t imgNum,
                                     int32_t u0, int32_t u1, int32_t u2, int32_t u3,
                                     uint32_t origX, uint32_t origY) {
	if (!fn) return -1;
	return ((int32_t (*)(const char *, size_t, int32_t, int32_t, int32_t, int32_t,
	                     uint32_t, uint32_t))fn)(fname, imgNum, u0, u1, u2, u3, origX, origY);
}

static int32_t aergo_call_font_add(void *fn, const char *fname, size_t size,
                                   bool bold, bool italic, int32_t first, int32_t last) {
	if (!fn) return -1;
	return ((int32_t (*)(const char *, size_t, bool, bool, int32_t, int32_t))fn)(
	    fname, size, bold, italic, first, last);
}

static int32_t aergo_call_audio_play(void *fn, int32_t sampleIdx, bool loop) {
	if (!fn) return -1;
	return ((int32_t (*)(int32_t, bool))fn)(sampleIdx, loop);
}

static int32_t aergo_call_audio_create_stream(void *fn, const char *path) {
	if (!fn) return -1;
	return ((int32_t (*)(const char *))fn)(path);
}

static void *aergo_call_instance_create(void *fn, int32_t objIdx, float x, float y) {
	if (!fn) return (void *)0;
	return ((void *(*)(int32_t, float, float))fn)(objIdx, x, y);
}

static void aergo_call_instance_change(void *fn, void *inst, int32_t newObjIdx, bool doEvents) {
	if (fn) ((void (*)(void *, int32_t, bool))fn)(inst, newObjIdx, doEvents);
}

static void aergo_call_instance_destroy(void *fn, void *inst0, void *inst1,
                                        int32_t objIdx, bool doEvent) {
	if (fn) ((void (*)(void *, void *, int32_t, bool))fn)(inst0, inst1, objIdx, doEvent);
}

static void aergo_call_instance_set_position(void *fn, void *inst, float x, float y) {
	if (fn) ((void (*)(void *, float, float))fn)(inst, x, y);
}

static void aergo_call_instance_set_mask_index(void *fn, void *inst, int32_t maskIdx) {
	if (fn) ((void (*)(void *, int32_t))fn)(inst, maskIdx);
}

static void aergo_call_instance_set_motion_polar(void *fn, void *inst) {
	if (fn) ((void (*)(void *))fn)(inst);
}

static int32_t aergo_call_event_perform(void *fn, void *target, void *other,
                                        int32_t targetObjIdx, uint32_t eventType, int32_t eventNum) {
	if (!fn) return 0;
	return ((int32_t (*)(void *, void *, int32_t, uint32_t, int32_t))fn)(
	    target, other, targetObjIdx, eventType, eventNum);
}
*/
import "C"

import "unsafe"

// CallDrawGetAlpha reads the VM's current global draw alpha
// (HLDFunctions.actionDrawGetAlpha).
func (f *VMFuncs) CallDrawGetAlpha() float32 {
	if f == nil {
		return 0
	}
	return float32(C.aergo_call_draw_get_alpha(f.ActionDrawGetAlpha))
}

// CallDrawSetAlpha sets the VM's current global draw alpha
// (HLDFunctions.actionDrawSetAlpha).
func (f *VMFuncs) CallDrawSetAlpha(alpha float32) {
	if f == nil {
		return
	}
	C.aergo_call_draw_set_alpha(f.ActionDrawSetAlpha, C.float(alpha))
}

// CallDrawSetFont sets the currently active draw font
// (HLDFunctions.actionDrawSetFont).
func (f *VMFuncs) CallDrawSetFont(fontIdx int32) {
	if f == nil {
		return
	}
	C.aergo_call_draw_set_font(f.ActionDrawSetFont, C.int32_t(fontIdx))
}

// CallDrawSelf draws inst's own sprite (HLDFunctions.actionDrawSelf), used
// by the synthetic default draw-event handler (spec.md §3 "Trap", §4.4
// "Entrapment").
func (f *VMFuncs) CallDrawSelf(inst *Instance) {
	if f == nil {
		return
	}
	C.aergo_call_draw_self(f.ActionDrawSelf, unsafe.Pointer(inst))
}

// CallRoomGoto transitions the VM to roomIdx (HLDFunctions.actionRoomGoto).
func (f *VMFuncs) CallRoomGoto(roomIdx int32) {
	if f == nil {
		return
	}
	C.aergo_call_room_goto(f.ActionRoomGoto, C.int32_t(roomIdx), 0)
}

// CallSpriteAdd registers a new sprite with the VM and returns its index
// (HLDFunctions.actionSpriteAdd). The unknown0-3/origX/origY fields are
// best-effort defaults: spec.md's pass-through surface only names the
// sprite by filename, so every mod registration uses a single unanimated
// frame with its origin at the top-left.
func (f *VMFuncs) CallSpriteAdd(name string) int32 {
	if f == nil {
		return -1
	}
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return int32(C.aergo_call_sprite_add(f.ActionSpriteAdd, cname, 1, 0, 0, 0, 0, 0, 0))
}

// CallFontAdd registers a new font with the VM and returns its index
// (HLDFunctions.actionFontAdd). Defaults a 12pt non-bold, non-italic font
// covering the printable ASCII range for the same reason CallSpriteAdd
// defaults its unknown parameters.
func (f *VMFuncs) CallFontAdd(name string) int32 {
	if f == nil {
		return -1
	}
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return int32(C.aergo_call_font_add(f.ActionFontAdd, cname, 12, false, false, 0x20, 0x7e))
}

// CallAudioPlaySound plays sampleIdx, looping if requested
// (HLDFunctions.actionAudioPlaySound).
func (f *VMFuncs) CallAudioPlaySound(sampleIdx int32, loop bool) int32 {
	if f == nil {
		return -1
	}
	return int32(C.aergo_call_audio_play(f.ActionAudioPlaySound, C.int32_t(sampleIdx), C.bool(loop)))
}

// CallAudioCreateStream streams the file at path and returns its sample
// index (HLDFunctions.actionAudioCreateStream).
func (f *VMFuncs) CallAudioCreateStream(path string) int32 {
	if f == nil {
		return -1
	}
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	return int32(C.aergo_call_audio_create_stream(f.ActionAudioCreateStream, cpath))
}

// CallInstanceCreate spawns a new instance of objIdx at (x, y)
// (HLDFunctions.actionInstanceCreate).
func (f *VMFuncs) CallInstanceCreate(objIdx int32, x, y float32) *Instance {
	if f == nil {
		return nil
	}
	return (*Instance)(C.aergo_call_instance_create(f.ActionInstanceCreate, C.int32_t(objIdx), C.float(x), C.float(y)))
}

// CallInstanceChange changes inst's object type, optionally re-running
// create/destroy events (HLDFunctions.actionInstanceChange).
func (f *VMFuncs) CallInstanceChange(inst *Instance, newObjIdx int32, doEvents bool) {
	if f == nil {
		return
	}
	C.aergo_call_instance_change(f.ActionInstanceChange, unsafe.Pointer(inst), C.int32_t(newObjIdx), C.bool(doEvents))
}

// CallInstanceDestroy destroys an instance (HLDFunctions.actionInstanceDestroy).
// The event-trap engine calls this directly for create-event cancellation
// (event.c's CommonEventListener: "actionInstanceDestroy(target, other, -1, false)"),
// silently discarding the instance without running its destroy event.
func (f *VMFuncs) CallInstanceDestroy(target, other *Instance, objIdx int32, doEvent bool) {
	if f == nil {
		return
	}
	C.aergo_call_instance_destroy(f.ActionInstanceDestroy, unsafe.Pointer(target), unsafe.Pointer(other), C.int32_t(objIdx), C.bool(doEvent))
}

// CallInstanceSetPosition repositions inst, updating its bounding box
// (HLDFunctions.Instance_setPosition).
func (f *VMFuncs) CallInstanceSetPosition(inst *Instance, x, y float32) {
	if f == nil {
		return
	}
	C.aergo_call_instance_set_position(f.InstanceSetPosition, unsafe.Pointer(inst), C.float(x), C.float(y))
}

// CallInstanceSetMaskIndex changes inst's collision mask
// (HLDFunctions.Instance_setMaskIndex).
func (f *VMFuncs) CallInstanceSetMaskIndex(inst *Instance, maskIdx int32) {
	if f == nil {
		return
	}
	C.aergo_call_instance_set_mask_index(f.InstanceSetMaskIndex, unsafe.Pointer(inst), C.int32_t(maskIdx))
}

// CallInstanceSetMotionPolarFromCartesian recomputes inst's direction/speed
// from its Cartesian motion vector
// (HLDFunctions.Instance_setMotionPolarFromCartesian).
func (f *VMFuncs) CallInstanceSetMotionPolarFromCartesian(inst *Instance) {
	if f == nil {
		return
	}
	C.aergo_call_instance_set_motion_polar(f.InstanceSetMotionPolarFromCartesian, unsafe.Pointer(inst))
}

// CallActionEventPerform triggers eventType/eventNum on targetObjIdx as if
// it occurred naturally (HLDFunctions.actionEventPerform) — the real VM's
// own parent-event-forwarding primitive (event.c's PerformDefaultEvent).
func (f *VMFuncs) CallActionEventPerform(target, other *Instance, targetObjIdx int32, eventType EventType, eventNum int32) int32 {
	if f == nil {
		return 0
	}
	return int32(C.aergo_call_event_perform(f.ActionEventPerform, unsafe.Pointer(target), unsafe.Pointer(other), C.int32_t(targetObjIdx), C.uint32_t(eventType), C.int32_t(eventNum)))
}
