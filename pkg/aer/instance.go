package aer

import "github.com/foxbud/aergo/internal/instance"

// LocalValue mirrors internal/instance.Value: the untagged union payload
// a mod local carries (spec.md §4.5 "Mod locals").
type LocalValue = instance.Value

// SetModLocal creates or overwrites a private or public mod-local value
// on instID. destructor, if non-nil, runs exactly once when the local is
// removed (boundary 11: names over 24 chars fail with bad-value).
func SetModLocal(modIndex, instID int32, name string, public bool, value LocalValue, destructor func(instID int32, value LocalValue)) bool {
	e, ok := guardEngine()
	if !ok {
		return false
	}
	err := e.Instances.SetModLocal(modIndex, instID, name, public, value, destructor)
	setLast(err)
	return err == nil
}

// GetModLocal reads a mod-local value previously set on instID.
func GetModLocal(modIndex, instID int32, name string, public bool) (LocalValue, bool) {
	e, ok := guardEngine()
	if !ok {
		return LocalValue{}, false
	}
	v, err := e.Instances.GetModLocal(modIndex, instID, name, public)
	setLast(err)
	return v, err == nil
}

// DeleteModLocal removes a mod-local, running its destructor unless
// skipDestructor is set.
func DeleteModLocal(modIndex, instID int32, name string, public bool, skipDestructor bool) bool {
	e, ok := guardEngine()
	if !ok {
		return false
	}
	err := e.Instances.DeleteModLocal(modIndex, instID, name, public, skipDestructor)
	setLast(err)
	return err == nil
}

// IsCompatibleWith reports whether instObj equals obj or obj is a
// transitive ancestor of instObj (spec.md §4.5 "Compatibility test",
// invariant 5).
func IsCompatibleWith(instObj, obj int32) bool {
	e, ok := guardEngine()
	if !ok {
		return false
	}
	return e.Instances.IsCompatibleWith(instObj, obj)
}
