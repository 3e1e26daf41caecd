//go:build linux || darwin

package modman

/*
#include <stdbool.h>
#include <stdint.h>

// modDefinitionABI mirrors the C struct a mod's define_mod (or alias)
// entry point returns (spec.md §6 "Mod ABI", grounded on
// include/aer/modman.h's AERModDef). Every field may be NULL.
typedef struct aergo_mod_definition_abi {
	void (*regSprites)(void);
	void (*regObjects)(void);
	void (*regObjListeners)(void);
	void (*regFonts)(void);
	void (*constructor)(void);
	void (*destructor)(void);
	void (*gameStep)(void);
	void (*gamePause)(bool paused);
	void (*gameSave)(int32_t slot);
	void (*gameLoad)(int32_t slot);
	void (*roomStart)(void);
	void (*roomEnd)(void);
	void (*roomChange)(int32_t newRoomIdx, int32_t prevRoomIdx);
} aergo_mod_definition_abi;

static void aergo_call_void(void *fn) {
	if (fn) ((void (*)(void))fn)();
}

static void aergo_call_bool(void *fn, int v) {
	if (fn) ((void (*)(bool))fn)((bool)v);
}

static void aergo_call_i32(void *fn, int32_t v) {
	if (fn) ((void (*)(int32_t))fn)(v);
}

static void aergo_call_i32i32(void *fn, int32_t a, int32_t b) {
	if (fn) ((void (*)(int32_t, int32_t))fn)(a, b);
}
*/
import "C"

import "unsafe"

func decodeDefinitionABI(raw unsafe.Pointer) Definition {
	if raw == nil {
		return Definition{}
	}
	abi := (*C.aergo_mod_definition_abi)(raw)

	wrapVoid := func(fn unsafe.Pointer) func() {
		if fn == nil {
			return nil
		}
		return func() { C.aergo_call_void(fn) }
	}
	wrapBool := func(fn unsafe.Pointer) func(bool) {
		if fn == nil {
			return nil
		}
		return func(v bool) {
			i := 0
			if v {
				i = 1
			}
			C.aergo_call_bool(fn, C.int(i))
		}
	}
	wrapI32 := func(fn unsafe.Pointer) func(int32) {
		if fn == nil {
			return nil
		}
		return func(v int32) { C.aergo_call_i32(fn, C.int32_t(v)) }
	}
	wrapI32I32 := func(fn unsafe.Pointer) func(int32, int32) {
		if fn == nil {
			return nil
		}
		return func(a, b int32) { C.aergo_call_i32i32(fn, C.int32_t(a), C.int32_t(b)) }
	}

	return Definition{
		RegisterSprites:         wrapVoid(unsafe.Pointer(abi.regSprites)),
		RegisterObjects:         wrapVoid(unsafe.Pointer(abi.regObjects)),
		RegisterObjectListeners: wrapVoid(unsafe.Pointer(abi.regObjListeners)),
		RegisterFonts:           wrapVoid(unsafe.Pointer(abi.regFonts)),
		Constructor:             wrapVoid(unsafe.Pointer(abi.constructor)),
		Destructor:              wrapVoid(unsafe.Pointer(abi.destructor)),
		GameStep:                wrapVoid(unsafe.Pointer(abi.gameStep)),
		GamePause:               wrapBool(unsafe.Pointer(abi.gamePause)),
		GameSave:                wrapI32(unsafe.Pointer(abi.gameSave)),
		GameLoad:                wrapI32(unsafe.Pointer(abi.gameLoad)),
		RoomStart:               wrapVoid(unsafe.Pointer(abi.roomStart)),
		RoomEnd:                 wrapVoid(unsafe.Pointer(abi.roomEnd)),
		RoomChange:              wrapI32I32(unsafe.Pointer(abi.roomChange)),
	}
}
