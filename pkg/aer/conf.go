package aer

import "github.com/foxbud/aergo/internal/aercore"

func modNameOf(e *aercore.Engine, modIndex int32) string {
	if modIndex < 0 {
		return "mre"
	}
	if mod := e.Mods.Mod(modIndex); mod != nil {
		return mod.Name
	}
	return "mre"
}

// ConfGetBool reads a scalar bool at <mod-name>.userKey, where mod-name
// is resolved from modIndex by the bound engine's mod manager (public
// reads are always prefixed with the calling mod's own name,
// spec.md §4.7).
func ConfGetBool(modIndex int32, userKey string) (bool, bool) {
	e, ok := guardEngine()
	if !ok {
		return false, false
	}
	v, err := e.Conf.GetBool(modNameOf(e, modIndex), userKey)
	setLast(err)
	return v, err == nil
}

// ConfGetInt reads a scalar integer.
func ConfGetInt(modIndex int32, userKey string) (int64, bool) {
	e, ok := guardEngine()
	if !ok {
		return 0, false
	}
	v, err := e.Conf.GetInt(modNameOf(e, modIndex), userKey)
	setLast(err)
	return v, err == nil
}

// ConfGetDouble reads a scalar float.
func ConfGetDouble(modIndex int32, userKey string) (float64, bool) {
	e, ok := guardEngine()
	if !ok {
		return 0, false
	}
	v, err := e.Conf.GetDouble(modNameOf(e, modIndex), userKey)
	setLast(err)
	return v, err == nil
}

// ConfGetString reads a scalar string.
func ConfGetString(modIndex int32, userKey string) (string, bool) {
	e, ok := guardEngine()
	if !ok {
		return "", false
	}
	v, err := e.Conf.GetString(modNameOf(e, modIndex), userKey)
	setLast(err)
	return v, err == nil
}

// ConfArraySize reports the total element count of an array value,
// letting a mod probe size before allocating a buffer (spec.md §4.7).
func ConfArraySize(modIndex int32, userKey string) (int, bool) {
	e, ok := guardEngine()
	if !ok {
		return 0, false
	}
	n, err := e.Conf.ArraySize(modNameOf(e, modIndex), userKey)
	setLast(err)
	return n, err == nil
}

// ConfGetDoubleArray copies up to len(buf) elements into buf, returning
// the total element count regardless of how many were copied.
func ConfGetDoubleArray(modIndex int32, userKey string, buf []float64) (int, bool) {
	e, ok := guardEngine()
	if !ok {
		return 0, false
	}
	n, err := e.Conf.GetDoubleArray(modNameOf(e, modIndex), userKey, buf)
	setLast(err)
	return n, err == nil
}

