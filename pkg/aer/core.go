package aer

import "github.com/foxbud/aergo/internal/stage"

// Stage re-exports the MRE's lifecycle stage enumeration.
type Stage = stage.Stage

// CurrentStage returns the engine's current lifecycle stage.
func CurrentStage() Stage {
	e, ok := guardEngine()
	if !ok {
		return stage.Init
	}
	return e.Stage.Current()
}

// CurrentModIndex returns the index of the mod currently executing, or
// ModNull if the MRE itself is on top of the context stack.
func CurrentModIndex() int32 {
	e, ok := guardEngine()
	if !ok {
		return -1
	}
	return e.Mods.PeekContext()
}

// stageDraw returns the stage.Draw value without every pass-through file
// needing its own import of internal/stage.
func stageDraw() Stage {
	return stage.Draw
}
