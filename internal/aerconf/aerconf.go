// Package aerconf reads aer/conf.toml once at process start and exposes
// typed, mod-namespaced lookups over its flattened key space
// (spec.md §4.7).
package aerconf

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/foxbud/aergo/internal/aererr"
)

// MRENamespace is the reserved mod name used for MRE-internal reads
// (spec.md §4.7 "Public reads always prefix the caller's key with the
// active mod's name ... or mre when MRE-internal").
const MRENamespace = "mre"

// Reader owns the parsed TOML tree and the dotted-path flattening of it
// into <modname>.<userkey> keys.
type Reader struct {
	mu sync.RWMutex
	v  *viper.Viper

	watchEnabled bool
}

// New parses path (aer/conf.toml by convention) and returns a Reader.
func New(path string) (*Reader, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, aererr.New("ConfigNew", aererr.BadFile, "reading %s: %v", path, err)
	}
	return &Reader{v: v}, nil
}

// NewFromBytes parses raw TOML content directly, bypassing the
// filesystem — used by tests.
func NewFromBytes(raw []byte) (*Reader, error) {
	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(strings.NewReader(string(raw))); err != nil {
		return nil, aererr.New("ConfigNewFromBytes", aererr.BadFile, "parsing config: %v", err)
	}
	return &Reader{v: v}, nil
}

func qualifiedKey(modName, userKey string) string {
	return fmt.Sprintf("%s.%s", modName, userKey)
}

// Mods returns the mre.mods list: the ordered set of mod names to load
// at startup (spec.md §6 "Config file").
func (r *Reader) Mods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.v.GetStringSlice("mre.mods")
}

// PromoteUnhandledErrors reads the mre.promoteUnhandledErrors flag
// (spec.md §7 "An optional promoteUnhandledErrors config").
func (r *Reader) PromoteUnhandledErrors() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.v.GetBool("mre.promoteUnhandledErrors")
}

// GetBool reads a scalar bool at modName.userKey.
func (r *Reader) GetBool(modName, userKey string) (bool, error) {
	key := qualifiedKey(modName, userKey)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.v.IsSet(key) {
		return false, aererr.New("ConfigGetBool", aererr.FailedLookup, "no config key %q", key)
	}
	return r.v.GetBool(key), nil
}

// GetInt reads a scalar integer at modName.userKey.
func (r *Reader) GetInt(modName, userKey string) (int64, error) {
	key := qualifiedKey(modName, userKey)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.v.IsSet(key) {
		return 0, aererr.New("ConfigGetInt", aererr.FailedLookup, "no config key %q", key)
	}
	return r.v.GetInt64(key), nil
}

// GetDouble reads a scalar float at modName.userKey.
func (r *Reader) GetDouble(modName, userKey string) (float64, error) {
	key := qualifiedKey(modName, userKey)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.v.IsSet(key) {
		return 0, aererr.New("ConfigGetDouble", aererr.FailedLookup, "no config key %q", key)
	}
	return r.v.GetFloat64(key), nil
}

// GetString reads a scalar string at modName.userKey.
func (r *Reader) GetString(modName, userKey string) (string, error) {
	key := qualifiedKey(modName, userKey)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.v.IsSet(key) {
		return "", aererr.New("ConfigGetString", aererr.FailedLookup, "no config key %q", key)
	}
	return r.v.GetString(key), nil
}

// ArraySize returns the element count of an array value at
// modName.userKey, letting callers probe with a zero-size buffer before
// allocating (spec.md §4.7 "Array reads copy into a caller-provided
// buffer and report the total element count").
func (r *Reader) ArraySize(modName, userKey string) (int, error) {
	key := qualifiedKey(modName, userKey)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.v.IsSet(key) {
		return 0, aererr.New("ConfigArraySize", aererr.FailedLookup, "no config key %q", key)
	}
	return len(r.v.Get(key).([]interface{})), nil
}

// GetDoubleArray copies up to len(buf) elements of the double array at
// modName.userKey into buf, returning the total element count
// regardless of how many were copied.
func (r *Reader) GetDoubleArray(modName, userKey string, buf []float64) (int, error) {
	key := qualifiedKey(modName, userKey)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.v.IsSet(key) {
		return 0, aererr.New("ConfigGetDoubleArray", aererr.FailedLookup, "no config key %q", key)
	}
	vals := r.v.Get(key)
	slice, ok := vals.([]interface{})
	if !ok {
		return 0, aererr.New("ConfigGetDoubleArray", aererr.FailedParse, "config key %q is not an array", key)
	}
	for i, v := range slice {
		if i >= len(buf) {
			break
		}
		f, ok := toFloat64(v)
		if !ok {
			return 0, aererr.New("ConfigGetDoubleArray", aererr.FailedParse, "config key %q element %d is not numeric", key, i)
		}
		buf[i] = f
	}
	return len(slice), nil
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// WatchReload enables fsnotify-driven hot-reload of the config file,
// calling onChange after every reload until StopWatch is called. It is
// not tied to the stage machine: the caller must only invoke this before
// the stage machine reaches listener-reg, and must call StopWatch once it
// does. Neither aercore nor the harness calls it.
func (r *Reader) WatchReload(onChange func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.watchEnabled {
		return
	}
	r.watchEnabled = true
	r.v.OnConfigChange(func(e fsnotify.Event) {
		r.mu.RLock()
		enabled := r.watchEnabled
		r.mu.RUnlock()
		if enabled && onChange != nil {
			onChange()
		}
	})
	r.v.WatchConfig()
}

// StopWatch disables further onChange callbacks. viper itself exposes no
// unwatch, so the file watch keeps running and viper still reloads its
// values on change; only the onChange callback is suppressed.
func (r *Reader) StopWatch() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchEnabled = false
}

// AllKeysUnder returns every flattened key under the modName namespace,
// with the namespace prefix stripped, for debugging and tests.
func (r *Reader) AllKeysUnder(modName string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	prefix := modName + "."
	var out []string
	for _, k := range r.v.AllKeys() {
		if strings.HasPrefix(k, prefix) {
			out = append(out, strings.TrimPrefix(k, prefix))
		}
	}
	return out
}
