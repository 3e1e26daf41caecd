// Package stage tracks the MRE's monotonically advancing lifecycle and
// gates every public operation by the set of stages in which it is legal
// (spec.md §3 "Stage", §4.1).
package stage

import "fmt"

// Stage is a single point in the MRE's startup/run lifecycle.
type Stage int

const (
	Init Stage = iota
	SpriteReg
	FontReg
	ObjectReg
	ListenerReg
	Action
	Draw
)

func (s Stage) String() string {
	switch s {
	case Init:
		return "init"
	case SpriteReg:
		return "sprite-reg"
	case FontReg:
		return "font-reg"
	case ObjectReg:
		return "object-reg"
	case ListenerReg:
		return "listener-reg"
	case Action:
		return "action"
	case Draw:
		return "draw"
	default:
		return "unknown"
	}
}

// Machine is the MRE's single mutable stage value. It is not safe for
// concurrent use: the host's dispatcher is single-threaded (spec.md §5) and
// all advancement happens on that thread.
type Machine struct {
	current Stage
}

// New creates a stage machine at Init.
func New() *Machine {
	return &Machine{current: Init}
}

// Current returns the current stage.
func (m *Machine) Current() Stage {
	return m.current
}

// ExactlyAt reports whether the machine is at exactly s.
func (m *Machine) ExactlyAt(s Stage) bool {
	return m.current == s
}

// AtOrPast reports whether the machine is at or past s.
func (m *Machine) AtOrPast(s Stage) bool {
	return m.current >= s
}

// Past reports whether the machine is strictly past s.
func (m *Machine) Past(s Stage) bool {
	return m.current > s
}

// Advance moves the machine forward to `to`, which may skip stages or
// equal the current stage; a backward move is rejected. Advancement is one-way
// within a process lifetime except for the Action<->Draw alternation,
// which the host drives once per frame via AdvanceDraw/AdvanceAction.
func (m *Machine) Advance(to Stage) error {
	if to < m.current {
		return fmt.Errorf("stage: cannot move backward from %s to %s", m.current, to)
	}
	m.current = to
	return nil
}

// AdvanceDraw moves Action -> Draw. Only legal once the action stage has
// been reached at least once.
func (m *Machine) AdvanceDraw() error {
	if m.current != Action && m.current != Draw {
		return fmt.Errorf("stage: cannot enter draw from %s", m.current)
	}
	m.current = Draw
	return nil
}

// AdvanceAction moves Draw -> Action (next frame).
func (m *Machine) AdvanceAction() error {
	if m.current != Draw && m.current != Action {
		return fmt.Errorf("stage: cannot enter action from %s", m.current)
	}
	m.current = Action
	return nil
}
