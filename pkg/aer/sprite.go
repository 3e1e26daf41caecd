package aer

import "github.com/foxbud/aergo/internal/stage"

// RegisterSprite may only be called during sprite-reg (spec.md §4.1,
// SPEC_FULL.md §4.9). The real host call happens through internal/hld's
// VMFuncs.CallSpriteAdd cgo wrapper; this layer enforces the stage gate the spec requires of
// every public MRE call.
func RegisterSprite(name string) (int32, bool) {
	e, ok := guardEngine()
	if !ok {
		return -1, false
	}
	if !e.Stage.ExactlyAt(stage.SpriteReg) {
		setLastSeqBreak("RegisterSprite")
		return -1, false
	}
	idx := e.RegisterSprite(name)
	setLast(nil)
	return idx, true
}
