//go:build linux || darwin

package hld

/*
#include <stdlib.h>
#include <string.h>
#include <stdint.h>

// HLDPrimitive is passed/returned by value through the host's API callback
// convention (API_dsMapFindValue/API_dsMapSet), unlike the void*-returning
// action callbacks definition_abi.go/vmfuncs_unix.go wrap. aergo_primitive
// mirrors hld.Primitive's byte layout exactly so it can cross the cgo call
// boundary by value.
typedef struct aergo_primitive {
	unsigned char value[12];
	int32_t type;
} aergo_primitive;

static aergo_primitive aergo_call_ds_map_find_value(void *fn, aergo_primitive mapID, aergo_primitive key) {
	aergo_primitive zero;
	memset(&zero, 0, sizeof(zero));
	if (!fn) return zero;
	return ((aergo_primitive (*)(aergo_primitive, aergo_primitive))fn)(mapID, key);
}

static void aergo_call_ds_map_set(void *fn, aergo_primitive mapID, aergo_primitive key, aergo_primitive value) {
	if (fn) ((void (*)(aergo_primitive, aergo_primitive, aergo_primitive))fn)(mapID, key, value);
}
*/
import "C"

import "unsafe"

func toCPrimitive(p Primitive) C.aergo_primitive {
	var out C.aergo_primitive
	*(*PrimitiveValue)(unsafe.Pointer(&out.value[0])) = p.Value
	out._type = C.int32_t(p.Type)
	return out
}

func fromCPrimitive(p C.aergo_primitive) Primitive {
	var out Primitive
	out.Value = *(*PrimitiveValue)(unsafe.Pointer(&p.value[0]))
	out.Type = PrimitiveType(p._type)
	return out
}

// NewRealPrimitive wraps a float64 as a Primitive, for callers outside
// this package building values to pass to DsMapSet.
func NewRealPrimitive(v float64) Primitive {
	return realPrimitive(v)
}

// NewStringPrimitive host-allocates a PrimitiveString payload for s, for
// callers outside this package building values to pass to DsMapSet.
func NewStringPrimitive(s string) Primitive {
	return stringPrimitive(s)
}

func realPrimitive(v float64) Primitive {
	var p Primitive
	p.Type = PrimitiveReal
	p.Value.SetReal(v)
	return p
}

// stringPrimitive host-allocates a PrimitiveString payload for s and wraps
// it in a Primitive, matching HLDPrimitiveMakeStringS's allocation pattern
// (save.c) used to build DS-map lookup keys.
func stringPrimitive(s string) Primitive {
	length := len(s)
	ps := (*StringPayload)(C.malloc(C.size_t(unsafe.Sizeof(StringPayload{}))))
	ps.Chars = (*byte)(C.malloc(C.size_t(length + 1)))
	if length > 0 {
		src := unsafe.Slice(unsafe.StringData(s), length)
		dst := unsafe.Slice(ps.Chars, length)
		copy(dst, src)
	}
	*(*byte)(unsafe.Add(unsafe.Pointer(ps.Chars), uintptr(length))) = 0
	ps.Length = uintptr(length)
	ps.Refs = 1

	var p Primitive
	p.Type = PrimitiveString
	p.Value.SetPtr(unsafe.Pointer(ps))
	return p
}

// PrimitiveAsString decodes a PrimitiveString-typed value's characters.
// ok is false only when p is not a string primitive at all.
func PrimitiveAsString(p Primitive) (string, bool) {
	return primitiveAsString(p)
}

func primitiveAsString(p Primitive) (string, bool) {
	if p.Type != PrimitiveString {
		return "", false
	}
	ps := (*StringPayload)(p.Value.AsPtr())
	if ps == nil || ps.Chars == nil {
		return "", true
	}
	return string(unsafe.Slice(ps.Chars, int(ps.Length))), true
}

// DsMapFindValue calls HLDFunctions.API_dsMapFindValue(mapID, key),
// returning the stored primitive (HLD_PRIMITIVE_UNDEFINED if absent).
func (f *VMFuncs) DsMapFindValue(mapID float64, key string) Primitive {
	if f == nil {
		return Primitive{Type: PrimitiveUndefined}
	}
	return fromCPrimitive(C.aergo_call_ds_map_find_value(
		f.APIDsMapFindValue,
		toCPrimitive(realPrimitive(mapID)),
		toCPrimitive(stringPrimitive(key)),
	))
}

// DsMapSet calls HLDFunctions.API_dsMapSet(mapID, key, value), the write
// counterpart used when encoding mod save-data back into the host's DS-map
// (spec.md §4.6 "Save/load").
func (f *VMFuncs) DsMapSet(mapID float64, key string, value Primitive) {
	if f == nil {
		return
	}
	C.aergo_call_ds_map_set(
		f.APIDsMapSet,
		toCPrimitive(realPrimitive(mapID)),
		toCPrimitive(stringPrimitive(key)),
		toCPrimitive(value),
	)
}

// dsMapTable resolves a DS-map id (as the host's "maps" global stores it) to
// its backing OpenHashTable, replicating SaveManLoadData's double
// indirection: hldvars.maps->elements is a pointer to an array of
// HLDOpenHashTable*, and mapID indexes that array.
func (r *VMRefs) dsMapTable(mapID float64) *OpenHashTable {
	if r == nil || r.Maps == nil || r.Maps.Elements == nil {
		return nil
	}
	idx := uintptr(int32(mapID))
	if idx >= r.Maps.Size {
		return nil
	}
	tables := (**OpenHashTable)(r.Maps.Elements)
	slice := unsafe.Slice(tables, r.Maps.Size)
	return slice[idx]
}

// ForEachModMapEntry walks every key/value pair the host's DS-map mapID
// holds, grounded on SaveManLoadData's direct hash-slot walk rather than
// repeated API_dsMapFindValue calls per key.
func (r *VMRefs) ForEachModMapEntry(mapID float64, fn func(key string, value Primitive)) {
	table := r.dsMapTable(mapID)
	if table == nil {
		return
	}
	table.ForEachEntry(func(key, value Primitive) {
		k, ok := primitiveAsString(key)
		if !ok {
			return
		}
		fn(k, value)
	})
}
