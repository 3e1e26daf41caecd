package aer

// CurrentEvent returns the EventKey the universal trampoline is
// currently dispatching (spec.md §3 "Current-event register").
func CurrentEvent() (objIdx int32, eventType EventType, eventNum int32, ok bool) {
	e, bound := guardEngine()
	if !bound {
		return 0, 0, 0, false
	}
	key := e.CurrentEvent()
	setLast(nil)
	return key.ObjIdx, key.Type, key.Num, true
}
