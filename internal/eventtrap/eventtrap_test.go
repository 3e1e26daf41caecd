package eventtrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxbud/aergo/internal/hld"
	"github.com/foxbud/aergo/internal/objtree"
)

func newTestEngine(tree *objtree.Tree) *Engine {
	return New(Deps{
		Tree: tree,
		DefaultFactory: func(key EventKey) HandlerFunc {
			return func(target, other int32) bool { return true }
		},
		CaptureOrig: func(key EventKey) (HandlerFunc, bool) { return nil, false },
		AllocSlot:   func(key EventKey) error { return nil },
	})
}

func TestAttachOutsideListenerRegFails(t *testing.T) {
	e := newTestEngine(objtree.New())
	err := e.Attach(EventKey{Type: hld.EventStep, Num: 0, ObjIdx: 1}, 0, func(it *Iterator, target, other int32) bool { return true })
	require.Error(t, err)
}

func TestAttachRejectsOutOfRangeAlarm(t *testing.T) {
	e := newTestEngine(objtree.New())
	e.OpenListenerReg()
	err := e.Attach(EventKey{Type: hld.EventAlarm, Num: 12, ObjIdx: 1}, 0, func(it *Iterator, target, other int32) bool { return true })
	require.Error(t, err)
}

// TestListenersFireInRegistrationOrder asserts the ordering contract from
// spec.md §4.4 "Dispatch": listeners fire in registration order, and the
// chain only reaches the original handler once every mod listener has
// called Handle — scenario S2's "middleware" composition.
func TestListenersFireInRegistrationOrder(t *testing.T) {
	e := newTestEngine(objtree.New())
	e.OpenListenerReg()
	key := EventKey{Type: hld.EventStep, Num: 0, ObjIdx: 1}

	var order []string
	require.NoError(t, e.Attach(key, 0, func(it *Iterator, target, other int32) bool {
		order = append(order, "modA-pre")
		result := it.Handle(target, other)
		order = append(order, "modA-post")
		return result
	}))
	require.NoError(t, e.Attach(key, 1, func(it *Iterator, target, other int32) bool {
		order = append(order, "modB-pre")
		result := it.Handle(target, other)
		order = append(order, "modB-post")
		return result
	}))

	result, handled := e.Dispatch(key, 10, -1)

	assert.True(t, handled)
	assert.True(t, result)
	assert.Equal(t, []string{"modA-pre", "modB-pre", "modB-post", "modA-post"}, order)
}

// TestListenerCanShortCircuitChain: a listener that never calls Handle
// blocks everything downstream, including the original handler.
func TestListenerCanShortCircuitChain(t *testing.T) {
	e := newTestEngine(objtree.New())
	e.OpenListenerReg()
	key := EventKey{Type: hld.EventStep, Num: 0, ObjIdx: 1}

	calledB := false
	require.NoError(t, e.Attach(key, 0, func(it *Iterator, target, other int32) bool {
		return false // never calls it.Handle(); blocks modB entirely
	}))
	require.NoError(t, e.Attach(key, 1, func(it *Iterator, target, other int32) bool {
		calledB = true
		return true
	}))

	result, handled := e.Dispatch(key, 1, -1)

	assert.True(t, handled)
	assert.False(t, result)
	assert.False(t, calledB)
}

// TestChainFallsThroughToOriginalHandler: once the sole listener calls
// Handle, the chain reaches the captured/synthetic original handler.
func TestChainFallsThroughToOriginalHandler(t *testing.T) {
	e := newTestEngine(objtree.New())
	e.OpenListenerReg()
	key := EventKey{Type: hld.EventCreate, Num: 0, ObjIdx: 1}

	origCalled := false
	e.captureOrig = func(k EventKey) (HandlerFunc, bool) {
		return func(target, other int32) bool {
			origCalled = true
			return true
		}, true
	}

	require.NoError(t, e.Attach(key, 0, func(it *Iterator, target, other int32) bool {
		return it.Handle(target, other)
	}))

	result, handled := e.Dispatch(key, 1, -1)
	assert.True(t, handled)
	assert.True(t, result)
	assert.True(t, origCalled)
}

// TestSubscriptionMaskingCoversDescendants verifies spec.md §4.4
// "Subscription masking": attaching a step listener on a parent object
// causes its transitive descendants to be recorded as subscribers too
// (scenario S3).
func TestSubscriptionMaskingCoversDescendants(t *testing.T) {
	tree := objtree.New()
	tree.Build(map[int32]int32{0: -1, 1: 0, 2: 1})

	e := newTestEngine(tree)
	e.OpenListenerReg()
	key := EventKey{Type: hld.EventStep, Num: 0, ObjIdx: 0}
	require.NoError(t, e.Attach(key, 0, func(it *Iterator, target, other int32) bool { return true }))

	subs := e.MaskedSubscribers(key)
	assert.ElementsMatch(t, []int32{0, 1, 2}, subs)
}

func TestDispatchWithNoTrapReturnsUnhandled(t *testing.T) {
	e := newTestEngine(objtree.New())
	_, handled := e.Dispatch(EventKey{Type: hld.EventStep, Num: 0, ObjIdx: 5}, 1, -1)
	assert.False(t, handled)
}

// TestScenarioS6CreateCancellationNeverCallsOriginal mirrors the spec's
// worked example: a create listener that returns false without ever
// invoking Handle cancels the event outright — the caller (aercore) is
// responsible for destroying the instance silently in response.
func TestScenarioS6CreateCancellationNeverCallsOriginal(t *testing.T) {
	e := newTestEngine(objtree.New())
	e.OpenListenerReg()
	key := EventKey{Type: hld.EventCreate, Num: 0, ObjIdx: 1}

	origCalled := false
	e.captureOrig = func(k EventKey) (HandlerFunc, bool) {
		return func(target, other int32) bool {
			origCalled = true
			return true
		}, true
	}

	require.NoError(t, e.Attach(key, 0, func(it *Iterator, target, other int32) bool {
		return false
	}))

	result, handled := e.Dispatch(key, 1, -1)
	assert.True(t, handled)
	assert.False(t, result)
	assert.False(t, origCalled)
}
