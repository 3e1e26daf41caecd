// Package aersave implements the MRE's save/load hook: a nested
// per-mod key/value store mirrored into and out of the host's
// serialization map under the top-level key "mod" (spec.md §4.6).
//
// Grounded on the teacher's game.SerializationChecksum /
// buildDeterministicRepresentation (sorted, deterministic nested-map
// serialization) and game/replay.go (round-trip write/read of recorded
// state).
package aersave

import (
	"sort"
	"sync"

	"github.com/foxbud/aergo/internal/aererr"
)

// Scalar is the union of types a savedata entry may hold
// (spec.md §4.6: "typed as double or string").
type Scalar struct {
	IsString bool
	Float    float64
	Str      string
}

// Store owns the in-memory per-mod savedata tree for the current process.
// It is rebuilt from the host's serialization map on load and flushed
// back into it on save.
type Store struct {
	mu   sync.Mutex
	data map[string]map[string]Scalar // mod name -> key -> value
}

// New constructs an empty Store.
func New() *Store {
	return &Store{data: make(map[string]map[string]Scalar)}
}

// Write records a scalar under modName/key, overwriting any prior value.
// Called from a mod's saveWrite during its game-save listener.
func (s *Store) Write(modName, key string, value Scalar) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket, ok := s.data[modName]
	if !ok {
		bucket = make(map[string]Scalar)
		s.data[modName] = bucket
	}
	bucket[key] = value
}

// Read returns the scalar written under modName/key, if any.
func (s *Store) Read(modName, key string) (Scalar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket, ok := s.data[modName]
	if !ok {
		return Scalar{}, aererr.New("SaveRead", aererr.FailedLookup, "no savedata for mod %q", modName)
	}
	v, ok := bucket[key]
	if !ok {
		return Scalar{}, aererr.New("SaveRead", aererr.FailedLookup, "no savedata key %q for mod %q", key, modName)
	}
	return v, nil
}

// Clear empties the store, used before populating it from a freshly
// loaded slot.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]map[string]Scalar)
}

// BuildSerializationMap renders the store's contents into the nested
// map shape the host's serialization map expects under top-level key
// "mod": mod name -> key -> scalar (spec.md §4.6). Mod names and keys are
// sorted while building, but the result is a Go map, so its iteration
// order is not defined; two calls over the same data return equal maps.
func (s *Store) BuildSerializationMap() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	modNames := make([]string, 0, len(s.data))
	for name := range s.data {
		modNames = append(modNames, name)
	}
	sort.Strings(modNames)

	out := make(map[string]any, len(modNames))
	for _, modName := range modNames {
		bucket := s.data[modName]
		keys := make([]string, 0, len(bucket))
		for k := range bucket {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		entries := make(map[string]any, len(keys))
		for _, k := range keys {
			v := bucket[k]
			if v.IsString {
				entries[k] = v.Str
			} else {
				entries[k] = v.Float
			}
		}
		out[modName] = entries
	}
	return out
}

// LoadFromSerializationMap replaces the store's contents with the
// top-level "mod" submap decoded from the host's serialization map
// (spec.md §4.6 "On load the inverse happens").
func (s *Store) LoadFromSerializationMap(root map[string]any) error {
	modSubmap, ok := root["mod"]
	if !ok {
		s.Clear()
		return nil
	}
	perMod, ok := modSubmap.(map[string]any)
	if !ok {
		return aererr.New("SaveLoad", aererr.FailedParse, "top-level \"mod\" entry is not a submap")
	}

	data := make(map[string]map[string]Scalar, len(perMod))
	for modName, rawEntries := range perMod {
		entries, ok := rawEntries.(map[string]any)
		if !ok {
			return aererr.New("SaveLoad", aererr.FailedParse, "mod %q's savedata entry is not a submap", modName)
		}
		bucket := make(map[string]Scalar, len(entries))
		for key, raw := range entries {
			switch v := raw.(type) {
			case float64:
				bucket[key] = Scalar{Float: v}
			case string:
				bucket[key] = Scalar{IsString: true, Str: v}
			default:
				return aererr.New("SaveLoad", aererr.FailedParse, "mod %q key %q has unsupported type %T", modName, key, raw)
			}
		}
		data[modName] = bucket
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

// Snapshot returns a deep-ish copy of the store's full contents
// (mod name -> key -> scalar-as-any) for debugging. Nothing in the
// repository calls it, and no debug dump of it is written anywhere; the
// host's serialization map remains the single source of truth.
func (s *Store) Snapshot() map[string]map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]map[string]any, len(s.data))
	for modName, bucket := range s.data {
		entries := make(map[string]any, len(bucket))
		for k, v := range bucket {
			if v.IsString {
				entries[k] = v.Str
			} else {
				entries[k] = v.Float
			}
		}
		out[modName] = entries
	}
	return out
}
