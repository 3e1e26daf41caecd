package aer

// PlaySound passes through to the VM's audio-play-sound action.
func PlaySound(sampleIdx int32, loop bool) bool {
	e, ok := guardEngine()
	if !ok {
		return false
	}
	e.PlaySound(sampleIdx, loop)
	setLast(nil)
	return true
}

// CreateAudioStream passes through to the VM's audio-create-stream
// action.
func CreateAudioStream(path string) (int32, bool) {
	e, ok := guardEngine()
	if !ok {
		return 0, false
	}
	idx := e.CreateAudioStream(path)
	setLast(nil)
	return idx, true
}
