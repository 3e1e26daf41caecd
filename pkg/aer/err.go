// Package aer is the MRE's public API surface: thin wrappers that
// translate the internal packages' idiomatic Go errors into the
// word + sentinel-return contract spec.md §7 describes, and pass
// through to the host VM's function-pointer table for everything out of
// spec.md's deep-design scope (sprites, fonts, rooms, audio, input,
// drawing — spec.md §1 "Non-goals", SPEC_FULL.md §4.9).
package aer

import (
	"sync"

	"github.com/foxbud/aergo/internal/aercore"
	"github.com/foxbud/aergo/internal/aererr"
)

// engine is the process-wide singleton every public function dispatches
// through. It is nil until Bind is called from cmd/aergo's exported init.
var (
	engineMu sync.RWMutex
	engine   *aercore.Engine

	lastErrMu sync.Mutex
	lastErr   aererr.Code
)

// Bind installs the process-wide engine. Called exactly once, from
// cmd/aergo's exported init, after aercore.New succeeds.
func Bind(e *aercore.Engine) {
	engineMu.Lock()
	defer engineMu.Unlock()
	engine = e
}

func currentEngine() *aercore.Engine {
	engineMu.RLock()
	defer engineMu.RUnlock()
	return engine
}

// LastError returns the error word set by the most recently completed
// public MRE call on this thread (spec.md §7). The host's dispatcher is
// single-threaded, so a single package-level value is sufficient — see
// SPEC_FULL.md §5 for why no per-goroutine state is needed here.
func LastError() aererr.Code {
	lastErrMu.Lock()
	defer lastErrMu.Unlock()
	return lastErr
}

// setLast records the error word every public call must set before
// returning, translating a nil error to aererr.OK.
func setLast(err error) {
	lastErrMu.Lock()
	lastErr = aererr.CodeOf(err)
	lastErrMu.Unlock()
}

// setLastSeqBreak records a sequence-break error tagged with callerFunc,
// used by pass-through wrappers that must run only at a particular
// stage.
func setLastSeqBreak(callerFunc string) {
	setLast(aererr.New(callerFunc, aererr.SeqBreak, "called outside the required stage"))
}

// guardEngine returns the bound engine, or records SeqBreak and reports
// not-ready when Bind has not yet run (e.g. a mod calling a public
// function from its own init before the host has called ours).
func guardEngine() (*aercore.Engine, bool) {
	e := currentEngine()
	if e == nil {
		setLast(aererr.New("PublicAPI", aererr.SeqBreak, "engine not yet initialized"))
		return nil, false
	}
	return e, true
}
