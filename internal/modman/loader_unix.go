//go:build linux || darwin

package modman

/*
#cgo LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdlib.h>

// aergo_mod_define_fn is the C ABI shape of a mod's definition entry point:
// it takes no arguments and returns a pointer to a host-allocated
// AERModDef-equivalent struct. The struct's actual field layout is opaque
// to cgo here; decodeDefinitionABI (called by resolveDefinition below)
// reads it back out field-by-field through the matching C struct declared
// in definition_abi.go's preamble.
typedef void *(*aergo_mod_define_fn)(void);

static void *aergo_dlopen(const char *path) {
	return dlopen(path, RTLD_NOW | RTLD_LOCAL);
}

static void *aergo_dlsym(void *handle, const char *name) {
	return dlsym(handle, name);
}

static void *aergo_call_define(void *fn) {
	return ((aergo_mod_define_fn)fn)();
}
*/
import "C"

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"unsafe"

	"golang.org/x/crypto/blake2b"
)

// libHandle is the opaque handle returned by dlopen.
type libHandle unsafe.Pointer

func openLibrary(path string) (libHandle, string, error) {
	fingerprint, err := fingerprintFile(path)
	if err != nil {
		// A missing/unreadable file still gets a best-effort attempt at
		// dlopen below (the search path may differ from cwd); the
		// fingerprint is diagnostic only, never load-bearing.
		fingerprint = ""
	}

	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	h := C.aergo_dlopen(cpath)
	if h == nil {
		return nil, "", fmt.Errorf("dlopen %s failed", path)
	}
	return libHandle(h), fingerprint, nil
}

func closeLibrary(h libHandle) {
	if h == nil {
		return
	}
	C.dlclose(unsafe.Pointer(h))
}

func resolveDefinition(h libHandle, aliases []string) (Definition, error) {
	var sym unsafe.Pointer
	for _, alias := range aliases {
		csym := C.CString(alias)
		found := C.aergo_dlsym(unsafe.Pointer(h), csym)
		C.free(unsafe.Pointer(csym))
		if found != nil {
			if sym != nil {
				return Definition{}, fmt.Errorf("multiple mod-definition aliases exported; exactly one of %v must be present", aliases)
			}
			sym = found
		}
	}
	if sym == nil {
		return Definition{}, fmt.Errorf("none of %v exported", aliases)
	}

	raw := C.aergo_call_define(sym)
	return decodeDefinitionABI(raw), nil
}

// fingerprintFile reads path and returns its BLAKE2b-256 hex digest, a
// diagnostic tamper-evidence signal that loadOne stores on Mod.Fingerprint;
// nothing logs it. SHA-256 is used instead only if blake2b.New256 returns
// an error.
func fingerprintFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		h = sha256.New()
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
