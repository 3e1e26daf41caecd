package aer

// MousePos reads the VM's current mouse position.
func MousePos() (x, y int32, ok bool) {
	e, bound := guardEngine()
	if !bound {
		return 0, 0, false
	}
	x, y = e.MousePos()
	setLast(nil)
	return x, y, true
}
