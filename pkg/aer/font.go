package aer

import "github.com/foxbud/aergo/internal/stage"

// RegisterFont may only be called during font-reg (spec.md §4.1).
func RegisterFont(name string) (int32, bool) {
	e, ok := guardEngine()
	if !ok {
		return -1, false
	}
	if !e.Stage.ExactlyAt(stage.FontReg) {
		setLastSeqBreak("RegisterFont")
		return -1, false
	}
	idx := e.RegisterFont(name)
	setLast(nil)
	return idx, true
}
