package aer

import "github.com/foxbud/aergo/internal/aersave"

// SaveWriteDouble records a scalar under key for modIndex's savedata
// submap, written into the host's serialization map on the next
// game-save (spec.md §4.6).
func SaveWriteDouble(modIndex int32, key string, value float64) bool {
	e, ok := guardEngine()
	if !ok {
		return false
	}
	e.Save.Write(modNameOf(e, modIndex), key, aersave.Scalar{Float: value})
	setLast(nil)
	return true
}

// SaveWriteString records a string scalar.
func SaveWriteString(modIndex int32, key string, value string) bool {
	e, ok := guardEngine()
	if !ok {
		return false
	}
	e.Save.Write(modNameOf(e, modIndex), key, aersave.Scalar{IsString: true, Str: value})
	setLast(nil)
	return true
}

// SaveReadDouble reads back a scalar written via SaveWriteDouble in a
// prior game-save for the same save slot (spec.md §4.6, invariant 8).
func SaveReadDouble(modIndex int32, key string) (float64, bool) {
	e, ok := guardEngine()
	if !ok {
		return 0, false
	}
	v, err := e.Save.Read(modNameOf(e, modIndex), key)
	setLast(err)
	if err != nil {
		return 0, false
	}
	return v.Float, true
}

// SaveReadString reads back a string scalar.
func SaveReadString(modIndex int32, key string) (string, bool) {
	e, ok := guardEngine()
	if !ok {
		return "", false
	}
	v, err := e.Save.Read(modNameOf(e, modIndex), key)
	setLast(err)
	if err != nil {
		return "", false
	}
	return v.Str, true
}
